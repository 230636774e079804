package videocast

import "testing"

func TestBackpressure(t *testing.T) {
	var (
		p     backpressure
		stats statsRecorder
	)

	if !p.admit(&stats) {
		t.Fatal("an uncongested queue should admit frames")
	}

	p.enough()
	for i := 0; i < 3; i++ {
		if p.admit(&stats) {
			t.Fatalf("frame %d admitted while congested", i)
		}
	}
	if got := stats.snapshot().FramesDropped; got != 3 {
		t.Errorf("FramesDropped = %d, want 3", got)
	}

	p.need()
	if !p.admit(&stats) {
		t.Error("need-data should clear congestion")
	}
	if got := stats.snapshot().FramesDropped; got != 3 {
		t.Errorf("FramesDropped after recovery = %d, want 3", got)
	}
}
