//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const (
	shadersDir = "assets/shaders"
	binDir     = "bin"
)

type Build mg.Namespace

// Compiles the quad shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, stage := range []string{"vert", "frag"} {
		src := filepath.Join(shadersDir, "quad."+stage)
		if _, err := executeCmd("glslc", withArgs(src, "-o", src+".spv"), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the desktop binary into bin/.
func (Build) Desktop() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join(binDir, "helloquad"), "."), withStream())
	return err
}

// Builds the Android APK with gomobile. Only OpenGL ES is available there.
func (Build) Android() error {
	_, err := executeCmd("gomobile", withArgs("build", "-target=android", "-o", filepath.Join("..", binDir, "helloquad.apk"), "."), withDir("android"), withStream())
	return err
}
