//go:build mage

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/spaghettifunk/prism/engine/assets/shaders"
)

const (
	binDir    = "bin"
	shaderDir = "bin/shaders"
)

// glfw is a cgo binding
var cgoEnv = []string{"CGO_ENABLED=1"}

type Build mg.Namespace

// Compiles the builtin WGSL shaders and writes the SPIR-V next to the binary.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the engine binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join(binDir, "prism"), "."), withEnv(cgoEnv...), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests of every package.
func Test() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withEnv(cgoEnv...), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	sources := shaders.Builtin()
	program, err := shaders.Load(sources)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(shaderDir, 0o755); err != nil {
		return err
	}
	for i, stage := range program.Stages {
		name := strings.TrimSuffix(sources[i].FileName, ".wgsl") + ".spv"
		out := make([]byte, len(stage.Code)*4)
		for j, word := range stage.Code {
			binary.LittleEndian.PutUint32(out[j*4:], word)
		}
		path := filepath.Join(shaderDir, name)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return err
		}
		fmt.Printf("Compiled %s -> %s (%d bytes)\n", sources[i].FileName, path, len(out))
	}
	return nil
}
