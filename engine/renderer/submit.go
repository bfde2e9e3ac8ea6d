package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

type SubmitState int

const (
	SubmitStateIdle SubmitState = iota
	SubmitStateRecording
	SubmitStateInFlight
)

func (s SubmitState) String() string {
	switch s {
	case SubmitStateIdle:
		return "idle"
	case SubmitStateRecording:
		return "recording"
	case SubmitStateInFlight:
		return "in-flight"
	}
	return "unknown"
}

// Submitter pairs a reusable command buffer with the fence that guards it.
// The command buffer is only reset after the fence reports the previous
// submission finished, and the fence is only reset once a recorded buffer is
// ready to submit. A failed submission leaves the fence unsignaled, after
// which the submitter refuses further work with ErrSubmitterFailed.
type Submitter struct {
	name   string
	cmd    driver.CmdBuffer
	fence  driver.Fence
	state  SubmitState
	failed error
}

func NewSubmitter(name string, cmd driver.CmdBuffer, fence driver.Fence) *Submitter {
	return &Submitter{
		name:  name,
		cmd:   cmd,
		fence: fence,
		state: SubmitStateIdle,
	}
}

func (s *Submitter) State() SubmitState {
	return s.state
}

// Wait blocks until the last submission has completed.
func (s *Submitter) Wait() error {
	if s.failed != nil {
		return fmt.Errorf("%s: %w: %w", s.name, ErrSubmitterFailed, s.failed)
	}
	if err := s.fence.Wait(driver.Infinite); err != nil {
		err = fmt.Errorf("%s fence wait failed: %w", s.name, err)
		core.LogError("%s", err)
		return err
	}
	s.state = SubmitStateIdle
	return nil
}

// Record waits for the previous submission, re-records the command buffer with
// fn and submits it. The submission waits on waits at waitStage and signals
// signals and the fence.
func (s *Submitter) Record(queue driver.Queue, waits []driver.Semaphore, waitStage driver.PipelineStage, signals []driver.Semaphore, fn func(cmd driver.CmdBuffer)) error {
	if err := s.Wait(); err != nil {
		return err
	}
	if err := s.cmd.Reset(); err != nil {
		err = fmt.Errorf("%s command buffer reset failed: %w", s.name, err)
		core.LogError("%s", err)
		return err
	}
	if err := s.cmd.Begin(); err != nil {
		return err
	}
	s.state = SubmitStateRecording
	fn(s.cmd)
	if err := s.cmd.End(); err != nil {
		s.state = SubmitStateIdle
		return err
	}

	// the fence stays signaled until a buffer is ready to submit
	if err := s.fence.Reset(); err != nil {
		s.state = SubmitStateIdle
		err = fmt.Errorf("%s fence reset failed: %w", s.name, err)
		core.LogError("%s", err)
		return err
	}
	if err := queue.Submit(&driver.Submission{
		Cmd:       s.cmd,
		Wait:      waits,
		WaitStage: waitStage,
		Signal:    signals,
		Fence:     s.fence,
	}); err != nil {
		s.state = SubmitStateIdle
		s.failed = err
		err = fmt.Errorf("%s submission failed: %w", s.name, err)
		core.LogError("%s", err)
		return err
	}
	s.state = SubmitStateInFlight
	return nil
}

// CommandPool owns the two reusable command buffers: one for setup work
// (uploads, layout transitions) and one for drawing.
type CommandPool struct {
	pool   driver.CommandPool
	fences []driver.Fence

	Setup *Submitter
	Draw  *Submitter
}

func NewCommandPool(gpu driver.GPU) (*CommandPool, error) {
	pool, err := gpu.NewCommandPool()
	if err != nil {
		return nil, err
	}
	c := &CommandPool{pool: pool}

	cmds, err := pool.Allocate(2)
	if err != nil {
		c.Destroy()
		return nil, err
	}
	// both start signaled so the first Record does not block
	for i := 0; i < 2; i++ {
		fence, err := gpu.NewFence(true)
		if err != nil {
			c.Destroy()
			return nil, err
		}
		c.fences = append(c.fences, fence)
	}
	c.Setup = NewSubmitter("setup", cmds[0], c.fences[0])
	c.Draw = NewSubmitter("draw", cmds[1], c.fences[1])
	return c, nil
}

func (c *CommandPool) Destroy() {
	for _, f := range c.fences {
		f.Destroy()
	}
	c.fences = nil
	if c.pool != nil {
		c.pool.Destroy()
		c.pool = nil
	}
	c.Setup, c.Draw = nil, nil
}
