package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/prism/engine/renderer/driver"
)

func TestCommandPoolStartsSignaled(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)

	assert.Equal(t, 2, gpu.live["fence"])
	for _, s := range []*Submitter{pool.Setup, pool.Draw} {
		assert.True(t, s.fence.(*fakeFence).signaled)
		assert.Equal(t, SubmitStateIdle, s.State())
	}
	assert.NotSame(t, pool.Setup.cmd.(*fakeCmd), pool.Draw.cmd.(*fakeCmd))
}

func TestRecordSubmitsWithSemaphores(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)
	wait, _ := gpu.NewSemaphore()
	signal, _ := gpu.NewSemaphore()

	err := pool.Draw.Record(gpu.queue, []driver.Semaphore{wait}, driver.PipelineStageColorAttachmentOutput, []driver.Semaphore{signal}, func(cmd driver.CmdBuffer) {
		cmd.EndRendering()
	})
	require.NoError(t, err)

	require.Len(t, gpu.queue.submits, 1)
	sub := gpu.queue.submits[0]
	assert.Equal(t, []string{"end-rendering"}, sub.ops)
	assert.Equal(t, []driver.Semaphore{wait}, sub.wait)
	assert.Equal(t, []driver.Semaphore{signal}, sub.signal)
	assert.Equal(t, driver.PipelineStageColorAttachmentOutput, sub.waitStage)
	assert.Same(t, pool.Draw.fence.(*fakeFence), sub.fence)
	assert.Equal(t, SubmitStateInFlight, pool.Draw.State())
}

// The command buffer of a submitter is only touched after its fence reported
// completion, however many times it is re-recorded.
func TestRecordWaitsBeforeReuse(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(cmd driver.CmdBuffer) {
			cmd.DrawIndexed(3, 1, 0, 0, 0)
		}))
		// interleave setup work on the other buffer
		require.NoError(t, pool.Setup.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}))
	}
	assert.Empty(t, gpu.violations)

	fence := pool.Draw.fence.(*fakeFence)
	assert.Equal(t, 10, fence.waits)
	assert.Equal(t, 10, fence.resets)
	assert.Len(t, gpu.queue.submitsOn(pool.Draw.cmd.(*fakeCmd)), 10)
}

// A fence that never reports completion keeps the command buffer and the
// fence itself untouched.
func TestRecordLeavesPendingWorkAlone(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)
	require.NoError(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}))

	fence := pool.Draw.fence.(*fakeFence)
	cmd := pool.Draw.cmd.(*fakeCmd)
	fence.waitErrs = []error{driver.ErrTimeout, driver.ErrDeviceLost}
	resets, begins := cmd.resets, cmd.begins

	for _, want := range []error{driver.ErrTimeout, driver.ErrDeviceLost} {
		err := pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {
			t.Fatal("recorded while the previous submission is pending")
		})
		assert.ErrorIs(t, err, want)
		assert.Equal(t, SubmitStateInFlight, pool.Draw.State())
	}

	assert.Equal(t, resets, cmd.resets)
	assert.Equal(t, begins, cmd.begins)
	assert.Equal(t, 1, fence.resets)
	assert.False(t, fence.signaled)
	assert.Same(t, fence, cmd.inFlight)
	assert.Len(t, gpu.queue.submits, 1)
	assert.Empty(t, gpu.violations)

	// once the fence completes the buffer is reusable
	require.NoError(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}))
	assert.Len(t, gpu.queue.submits, 2)
	assert.Empty(t, gpu.violations)
}

func TestRecordFailureKeepsFenceSignaled(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)
	fence := pool.Draw.fence.(*fakeFence)
	cmd := pool.Draw.cmd.(*fakeCmd)

	cmd.beginErr = errors.New("out of host memory")
	assert.ErrorContains(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}), "out of host memory")
	cmd.beginErr = nil

	cmd.endErr = errors.New("recording invalid")
	assert.ErrorContains(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}), "recording invalid")
	cmd.endErr = nil

	assert.True(t, fence.signaled)
	assert.Zero(t, fence.resets)
	assert.Equal(t, SubmitStateIdle, pool.Draw.State())
	assert.Empty(t, gpu.queue.submits)

	require.NoError(t, pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}))
	assert.Len(t, gpu.queue.submits, 1)
	assert.Empty(t, gpu.violations)
}

// After a rejected submission the fence will never signal, so the submitter
// refuses to wait on it.
func TestRecordAfterFailedSubmission(t *testing.T) {
	gpu := newFakeGPU()
	pool := newTestPool(t, gpu)
	fence := pool.Draw.fence.(*fakeFence)

	gpu.queue.submitErr = driver.ErrDeviceLost
	err := pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {})
	assert.ErrorIs(t, err, driver.ErrDeviceLost)
	assert.False(t, fence.signaled)
	waits := fence.waits

	gpu.queue.submitErr = nil
	err = pool.Draw.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {})
	assert.ErrorIs(t, err, ErrSubmitterFailed)
	assert.ErrorIs(t, err, driver.ErrDeviceLost)
	assert.ErrorIs(t, pool.Draw.Wait(), ErrSubmitterFailed)
	assert.Equal(t, waits, fence.waits)
	assert.Empty(t, gpu.queue.submits)

	// the setup submitter is unaffected
	require.NoError(t, pool.Setup.Record(gpu.queue, nil, 0, nil, func(driver.CmdBuffer) {}))
}
