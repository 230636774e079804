package videocast

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// output is the normalize, packetize, frame and send path shared by both
// backends. The pipeline backend calls emit from a GStreamer streaming
// thread, so the path is serialized by mu.
type output struct {
	mu         sync.Mutex
	packetizer *Packetizer
	framer     Framer
	sender     Sender
	stats      *statsRecorder
	log        *logrus.Entry
}

func newOutput(codec Codec, framer Framer, sender Sender, stats *statsRecorder, log *logrus.Entry) *output {
	return &output{
		packetizer: NewPacketizer(codec),
		framer:     framer,
		sender:     sender,
		stats:      stats,
		log:        log,
	}
}

// emit sends one compressed access unit. au may be modified in place.
func (o *output) emit(au []byte, timestampNs int64) {
	if len(au) == 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	payload := o.packetizer.Normalize(au)
	keyframe := containsIDR(payload)

	datagrams, err := o.framer.Frame(payload, Fragment(payload, o.packetizer.maxPayload), timestampNs)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"function":  "output.emit",
			"timestamp": timestampNs,
			"error":     err.Error(),
		}).Warn("Failed to frame access unit")
		return
	}

	var sent, bytes, failed uint64
	for _, d := range datagrams {
		if err := o.sender.Send(d); err != nil {
			failed++
			o.log.WithFields(logrus.Fields{
				"function": "output.emit",
				"size":     len(d),
				"error":    err.Error(),
			}).Debug("Datagram dropped")
			continue
		}
		sent++
		bytes += uint64(len(d))
	}

	o.stats.update(func(s *Stats) {
		s.AccessUnits++
		if keyframe {
			s.Keyframes++
		}
		s.DatagramsSent += sent
		s.BytesSent += bytes
		s.SendErrors += failed
	})
}
