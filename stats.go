package videocast

import (
	"sync"

	"github.com/Eyevinn/mp4ff/avc"
)

// Stats provides session statistics.
type Stats struct {
	FramesRequested uint64 // NeedData invocations
	FramesEncoded   uint64 // frames handed to the compression engine
	FramesDropped   uint64 // frames skipped under pipeline backpressure
	AccessUnits     uint64 // compressed access units emitted
	Keyframes       uint64 // access units carrying an IDR slice
	DatagramsSent   uint64
	BytesSent       uint64
	SendErrors      uint64 // datagrams the socket refused
	EngineErrors    uint64 // errors reported through RuntimeErrorFunc
}

type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) update(fn func(s *Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *statsRecorder) reset() {
	r.mu.Lock()
	r.stats = Stats{}
	r.mu.Unlock()
}

// containsIDR reports whether an Annex-B access unit carries an IDR slice.
func containsIDR(au []byte) bool {
	for _, nalu := range avc.ExtractNalusFromByteStream(au) {
		if len(nalu) > 0 && avc.GetNaluType(nalu[0]) == avc.NALU_IDR {
			return true
		}
	}
	return false
}
