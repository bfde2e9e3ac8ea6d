package shaders

import (
	_ "embed"
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

//go:embed mesh.vert.wgsl
var meshVertexSource string

//go:embed mesh.frag.wgsl
var meshFragmentSource string

// Source is one shader stage waiting to be compiled.
type Source struct {
	FileName   string
	Stage      driver.ShaderStage
	EntryPoint string
	Code       string
}

// Builtin lists the stages of the mesh program in pipeline order.
func Builtin() []Source {
	return []Source{
		{FileName: "mesh.vert.wgsl", Stage: driver.ShaderStageVertex, EntryPoint: "vs_main", Code: meshVertexSource},
		{FileName: "mesh.frag.wgsl", Stage: driver.ShaderStageFragment, EntryPoint: "fs_main", Code: meshFragmentSource},
	}
}

// Program is a set of compiled stages, in the order they were given.
type Program struct {
	Stages []renderer.ShaderBinary
}

// LoadBuiltin compiles the mesh program.
func LoadBuiltin() (*Program, error) {
	return Load(Builtin())
}

// compilePool is shared by every Load so repeated loads never add workers.
var compilePool = sync.OnceValue(func() worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(2, 16, 1*time.Second)
})

// Load compiles every stage concurrently. All errors are joined.
func Load(sources []Source) (*Program, error) {
	pool := compilePool()

	stages := make([]renderer.ShaderBinary, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		id, src := i, src
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				code, err := Compile(src.Code, src.Stage, src.FileName, src.EntryPoint)
				if err != nil {
					errs[id] = err
					return nil, err
				}
				stages[id] = renderer.ShaderBinary{
					Stage:      src.Stage,
					EntryPoint: src.EntryPoint,
					Code:       code,
				}
				core.LogDebug("compiled %s (%d words)", src.FileName, len(code))
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &Program{Stages: stages}, nil
}
