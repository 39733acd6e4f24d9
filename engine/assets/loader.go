package assets

import "github.com/spaghettifunk/helloquad/engine/assets/loaders"

type Loader interface {
	Load(path string) (*loaders.Resource, error)
}
