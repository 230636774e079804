package videocast

// MaxPayloadSize is the largest datagram payload sent on the wire.
const MaxPayloadSize = 1440

// Fragment splits payload into consecutive slices of at most max bytes.
// The slices alias payload. An empty payload yields no slices, and a
// payload that is an exact multiple of max has no trailing empty slice.
func Fragment(payload []byte, max int) [][]byte {
	if len(payload) == 0 || max <= 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(payload)+max-1)/max)
	for off := 0; off < len(payload); off += max {
		end := off + max
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[off:end])
	}
	return chunks
}

// Packetizer turns compressed access units into datagram payloads.
type Packetizer struct {
	codec      Codec
	maxPayload int
}

// NewPacketizer creates a packetizer for access units produced by codec.
func NewPacketizer(codec Codec) *Packetizer {
	return &Packetizer{codec: codec, maxPayload: MaxPayloadSize}
}

// Normalize applies the codec-specific start-code fixups to au and
// returns the resulting view. au may be modified in place.
func (p *Packetizer) Normalize(au []byte) []byte {
	if p.codec != CodecX264Pipeline {
		return au
	}
	return normalizeStartCodes(au)
}

// Packetize normalizes au and fragments it into datagram payloads.
func (p *Packetizer) Packetize(au []byte) [][]byte {
	return Fragment(p.Normalize(au), p.maxPayload)
}

// normalizeStartCodes rewrites the access unit delimiter framing emitted by
// x264enc (a 4-byte start code, then 09 30 or 09 10) into plain Annex-B.
//
// 09 30: the 5-byte prefix is dropped and the next byte forced to zero,
// turning the leftover 3-byte start code into a 4-byte one.
//
// 09 10: the 5-byte prefix is dropped, then everything before the first
// 00 00 01 65 (IDR slice) is shifted left by one and a zero written just
// before the marker. Without a marker the data is left as is.
func normalizeStartCodes(au []byte) []byte {
	if len(au) < 6 || au[4] != 0x09 {
		return au
	}
	switch au[5] {
	case 0x30:
		d := au[5:]
		d[0] = 0
		return d
	case 0x10:
		d := au[5:]
		for i := 0; i+4 < len(d); i++ {
			if d[i+1] == 0x00 && d[i+2] == 0x00 && d[i+3] == 0x01 && d[i+4] == 0x65 {
				copy(d[:i], d[1:i+1])
				d[i] = 0
				return d
			}
		}
		return d
	}
	return au
}
