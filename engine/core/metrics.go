package core

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling frame time average and a once-per-second FPS counter.
type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

func NewMetrics() *MetricsState {
	return &MetricsState{}
}

// Update takes the duration of the last frame in seconds. It returns true when a full second
// has been accumulated and FPS was refreshed.
func (m *MetricsState) Update(frameElapsedTime float64) bool {
	frameMS := frameElapsedTime * 1000.0
	m.MStimes[m.FrameAVGCounter] = frameMS
	if m.FrameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += m.MStimes[i]
		}
		m.MSavg = sum / float64(AVG_COUNT)
	}
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT

	m.Frames++

	m.AccumulatedFrameMS += frameMS
	if m.AccumulatedFrameMS > 1000 {
		m.FPS = float64(m.Frames)
		m.AccumulatedFrameMS -= 1000
		m.Frames = 0
		return true
	}
	return false
}

func (m *MetricsState) FPSValue() float64 {
	return m.FPS
}

func (m *MetricsState) FrameTime() float64 {
	return m.MSavg
}
