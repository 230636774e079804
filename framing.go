package videocast

import (
	"fmt"
	"sync"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/pion/rtp"
)

// H264 NAL unit types used by the RTP framer
const (
	nalTypeSTAPA = 24 // Single-time aggregation packet
	nalTypeFUA   = 28 // Fragmentation Unit A

	rtpHeaderSize = 12
	h264ClockRate = 90000
)

// Framer turns normalized payload chunks of one access unit into the
// datagrams written to the socket.
type Framer interface {
	// Frame returns the datagrams for one access unit. rawChunks are the
	// headerless fragments of au; timestampNs is its logical timestamp.
	Frame(au []byte, rawChunks [][]byte, timestampNs int64) ([][]byte, error)
}

// rawFramer sends the fragments as they are.
type rawFramer struct{}

func (rawFramer) Frame(_ []byte, rawChunks [][]byte, _ int64) ([][]byte, error) {
	return rawChunks, nil
}

// NewFramer returns the Framer for f. ssrc and payloadType only apply to RTP.
func NewFramer(f Framing, ssrc uint32, payloadType uint8) (Framer, error) {
	switch f {
	case FramingRaw:
		return rawFramer{}, nil
	case FramingRTP:
		return NewRTPFramer(ssrc, payloadType, MaxPayloadSize), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFraming, int(f))
	}
}

// RTPFramer packetizes Annex-B access units per RFC 6184 (single NAL and
// FU-A packets). Each marshalled packet fits in mtu bytes.
type RTPFramer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

// NewRTPFramer creates an RTP framer. mtu bounds the whole datagram,
// RTP header included.
func NewRTPFramer(ssrc uint32, payloadType uint8, mtu int) *RTPFramer {
	if mtu <= rtpHeaderSize+2 {
		mtu = MaxPayloadSize
	}
	return &RTPFramer{
		ssrc:        ssrc,
		payloadType: payloadType,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
	}
}

// Frame implements Framer.
func (f *RTPFramer) Frame(au []byte, _ [][]byte, timestampNs int64) ([][]byte, error) {
	packets, err := f.Packetize(au, rtpTimestamp(timestampNs))
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(packets))
	for _, pkt := range packets {
		b, err := pkt.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal rtp packet: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Packetize converts one Annex-B access unit into RTP packets sharing
// timestamp. The marker bit is set on the last packet.
func (f *RTPFramer) Packetize(au []byte, timestamp uint32) ([]*rtp.Packet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(au) == 0 {
		return nil, nil
	}

	nalUnits := avc.ExtractNalusFromByteStream(au)
	if len(nalUnits) == 0 {
		return nil, fmt.Errorf("no NAL units found in access unit")
	}

	var packets []*rtp.Packet
	for i, nalu := range nalUnits {
		if len(nalu) == 0 {
			continue
		}
		isLast := i == len(nalUnits)-1

		if len(nalu) <= f.mtu-rtpHeaderSize {
			packets = append(packets, f.packet(nalu, timestamp, isLast))
			continue
		}
		packets = append(packets, f.fragmentNALUnit(nalu, timestamp, isLast)...)
	}
	return packets, nil
}

func (f *RTPFramer) packet(payload []byte, timestamp uint32, marker bool) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    f.payloadType,
			SequenceNumber: f.sequencer.NextSequenceNumber(),
			Timestamp:      timestamp,
			SSRC:           f.ssrc,
		},
		Payload: payload,
	}
}

// fragmentNALUnit splits a NAL unit larger than the MTU into FU-A packets.
func (f *RTPFramer) fragmentNALUnit(nalu []byte, timestamp uint32, isLastNALU bool) []*rtp.Packet {
	nalHeader := nalu[0]
	nalType := nalHeader & 0x1F
	nri := nalHeader & 0x60

	payload := nalu[1:]
	maxPayload := f.mtu - rtpHeaderSize - 2 // FU indicator + FU header

	var packets []*rtp.Packet
	for offset := 0; offset < len(payload); {
		end := offset + maxPayload
		if end > len(payload) {
			end = len(payload)
		}
		isStart := offset == 0
		isEnd := end == len(payload)

		fuHeader := nalType
		if isStart {
			fuHeader |= 0x80
		}
		if isEnd {
			fuHeader |= 0x40
		}

		pktPayload := make([]byte, 2+end-offset)
		pktPayload[0] = nri | nalTypeFUA
		pktPayload[1] = fuHeader
		copy(pktPayload[2:], payload[offset:end])

		packets = append(packets, f.packet(pktPayload, timestamp, isEnd && isLastNALU))
		offset = end
	}
	return packets
}

// rtpTimestamp converts nanoseconds to the 90 kHz video clock.
func rtpTimestamp(ns int64) uint32 {
	return uint32(ns / 1000 * h264ClockRate / 1_000_000)
}

// RTPDepacketizer reassembles Annex-B access units from RTP packets
// produced by RTPFramer. It is not safe for concurrent use.
type RTPDepacketizer struct {
	frameData   []byte
	fuaBuffer   []byte
	fragmenting bool
	timestamp   uint32
	started     bool
}

// Depacketize consumes pkt and returns a complete access unit once the
// marker bit is seen. The returned slice is valid until the next call.
func (d *RTPDepacketizer) Depacketize(pkt *rtp.Packet) ([]byte, error) {
	if len(pkt.Payload) == 0 {
		return nil, nil
	}

	if d.started && d.timestamp != pkt.Timestamp {
		d.reset()
	}
	d.timestamp = pkt.Timestamp
	d.started = true

	nalType := pkt.Payload[0] & 0x1F
	switch {
	case nalType >= 1 && nalType <= 23:
		d.frameData = append(d.frameData, 0, 0, 0, 1)
		d.frameData = append(d.frameData, pkt.Payload...)

	case nalType == nalTypeSTAPA:
		payload := pkt.Payload[1:]
		for len(payload) >= 2 {
			size := int(payload[0])<<8 | int(payload[1])
			payload = payload[2:]
			if size > len(payload) {
				break
			}
			d.frameData = append(d.frameData, 0, 0, 0, 1)
			d.frameData = append(d.frameData, payload[:size]...)
			payload = payload[size:]
		}

	case nalType == nalTypeFUA:
		if len(pkt.Payload) < 2 {
			return nil, fmt.Errorf("FU-A packet too short")
		}
		fuIndicator, fuHeader := pkt.Payload[0], pkt.Payload[1]
		if fuHeader&0x80 != 0 {
			d.fuaBuffer = append(d.fuaBuffer[:0], (fuIndicator&0xE0)|(fuHeader&0x1F))
			d.fragmenting = true
		}
		if !d.fragmenting {
			return nil, nil
		}
		d.fuaBuffer = append(d.fuaBuffer, pkt.Payload[2:]...)
		if fuHeader&0x40 != 0 {
			d.frameData = append(d.frameData, 0, 0, 0, 1)
			d.frameData = append(d.frameData, d.fuaBuffer...)
			d.fuaBuffer = d.fuaBuffer[:0]
			d.fragmenting = false
		}

	default:
		return nil, fmt.Errorf("unsupported NAL type: %d", nalType)
	}

	if pkt.Marker && len(d.frameData) > 0 {
		au := d.frameData
		d.frameData = d.frameData[:0]
		return au, nil
	}
	return nil, nil
}

func (d *RTPDepacketizer) reset() {
	d.frameData = d.frameData[:0]
	d.fuaBuffer = d.fuaBuffer[:0]
	d.fragmenting = false
}
