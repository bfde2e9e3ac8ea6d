package renderer

import "errors"

var (
	ErrNoMemoryType      = errors.New("no memory type satisfies the requested properties")
	ErrNotHostVisible    = errors.New("buffer memory is not host visible and coherent")
	ErrBufferOverflow    = errors.New("write exceeds buffer capacity")
	ErrUsageMismatch     = errors.New("buffer usage does not allow the operation")
	ErrPipelineRejected  = errors.New("pipeline creation rejected")
	ErrRendererDestroyed = errors.New("renderer destroyed")
	ErrSubmitterFailed   = errors.New("submitter unusable after a failed submission")
)
