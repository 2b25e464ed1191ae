//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL shader sources into SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

// Runs go vet and the full test suite.
func (Build) Check() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	shaders := [][2]string{
		{"shaders/scene.vert", "shaders/scene_vert.spv"},
		{"shaders/scene.frag", "shaders/scene_frag.spv"},
	}
	for _, s := range shaders {
		if _, err := executeCmd("glslc", withArgs(s[0], "-o", s[1]), withStream()); err != nil {
			return err
		}
	}
	return nil
}
