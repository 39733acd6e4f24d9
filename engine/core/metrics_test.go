package core

import "testing"

func TestMetricsUpdate(t *testing.T) {
	tests := []struct {
		name      string
		frames    int
		frameTime float64
		wantFPS   float64
		wantAvg   float64
	}{
		{name: "no full second yet", frames: 15, frameTime: 0.0625, wantFPS: 0, wantAvg: 0},
		{name: "one second", frames: 16, frameTime: 0.0625, wantFPS: 16, wantAvg: 0},
		{name: "full average window", frames: AvgCount, frameTime: 0.0625, wantFPS: 16, wantAvg: 62.5},
		{name: "fast frames", frames: 128, frameTime: 0.0078125, wantFPS: 128, wantAvg: 7.8125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			for i := 0; i < tt.frames; i++ {
				m.Update(tt.frameTime)
			}
			fps, avg := m.Frame()
			if fps != tt.wantFPS {
				t.Errorf("FPS = %v, want %v", fps, tt.wantFPS)
			}
			if avg != tt.wantAvg {
				t.Errorf("FrameTime = %v, want %v", avg, tt.wantAvg)
			}
		})
	}
}
