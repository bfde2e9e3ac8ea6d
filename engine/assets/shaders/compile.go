// Package shaders turns the engine's WGSL sources into SPIR-V.
package shaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"

	"github.com/gogpu/naga"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

const spirvMagic = 0x07230203

var (
	// ErrEntryPointNotFound means the source declares no entry point with the requested name and stage.
	ErrEntryPointNotFound = errors.New("shaders: entry point not found")
	// ErrInvalidSPIRV means the compiler produced something that is not a SPIR-V module.
	ErrInvalidSPIRV = errors.New("shaders: invalid SPIR-V output")
)

var stageAttributes = map[driver.ShaderStage]string{
	driver.ShaderStageVertex:   "vertex",
	driver.ShaderStageFragment: "fragment",
}

// CompileError carries the file that failed to compile.
type CompileError struct {
	FileName string
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s: %s", e.FileName, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile translates WGSL to SPIR-V words. The source must declare entryPoint
// with the attribute matching stage.
func Compile(source string, stage driver.ShaderStage, fileName string, entryPoint string) ([]uint32, error) {
	attr, ok := stageAttributes[stage]
	if !ok {
		return nil, &CompileError{FileName: fileName, Err: fmt.Errorf("unsupported shader stage %s", stage)}
	}
	if !declaresEntryPoint(source, attr, entryPoint) {
		return nil, &CompileError{
			FileName: fileName,
			Err:      fmt.Errorf("%w: no @%s fn %s", ErrEntryPointNotFound, attr, entryPoint),
		}
	}

	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, &CompileError{FileName: fileName, Err: err}
	}
	words, err := toWords(spirv)
	if err != nil {
		return nil, &CompileError{FileName: fileName, Err: err}
	}
	return words, nil
}

func declaresEntryPoint(source, attr, entryPoint string) bool {
	pattern := `@` + attr + `\s+fn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(`
	return regexp.MustCompile(pattern).MatchString(source)
}

// SPIR-V is little-endian 32-bit words
func toWords(spirv []byte) ([]uint32, error) {
	if len(spirv) < 4 || len(spirv)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSPIRV, len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrInvalidSPIRV, words[0])
	}
	return words, nil
}
