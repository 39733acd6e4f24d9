//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the desktop app with helloquad.toml.
func (Run) Desktop() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run helloquad...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", "helloquad.toml"), withStream())
	return err
}

// Runs the desktop app on OpenGL ES, skipping Vulkan.
func (Run) Gles() error {
	fmt.Println("Run helloquad on OpenGL ES...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", "helloquad.toml", "-backend", "opengles"), withStream())
	return err
}

// Runs go mod tidy and the test suite.
func Test() error {
	if err := goTidy(); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
