package videocast

import (
	"bytes"
	"testing"
)

func TestFragment(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{1, 1},
		{1439, 1},
		{1440, 1},
		{1441, 2},
		{2880, 2},
		{2881, 3},
		{100000, 70},
	}

	for _, tt := range tests {
		payload := make([]byte, tt.length)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		chunks := Fragment(payload, MaxPayloadSize)
		if len(chunks) != tt.want {
			t.Errorf("Fragment(%d bytes) = %d chunks, want %d", tt.length, len(chunks), tt.want)
			continue
		}

		var joined []byte
		for i, c := range chunks {
			if len(c) == 0 || len(c) > MaxPayloadSize {
				t.Errorf("len %d: chunk %d has %d bytes", tt.length, i, len(c))
			}
			if i < len(chunks)-1 && len(c) != MaxPayloadSize {
				t.Errorf("len %d: non-final chunk %d has %d bytes", tt.length, i, len(c))
			}
			joined = append(joined, c...)
		}
		if !bytes.Equal(joined, payload) {
			t.Errorf("len %d: concatenated chunks differ from payload", tt.length)
		}
	}
}

func TestFragmentAliasesPayload(t *testing.T) {
	payload := make([]byte, 3000)
	chunks := Fragment(payload, MaxPayloadSize)
	chunks[1][0] = 0xAB
	if payload[MaxPayloadSize] != 0xAB {
		t.Error("chunks should alias the payload")
	}
}

func TestNormalizeMarkerOnlyUnit(t *testing.T) {
	au := []byte{0, 0, 0, 1, 0x09, 0x30, 0, 0, 1, 0x67, 0x42}
	got := NewPacketizer(CodecX264Pipeline).Normalize(au)

	want := []byte{0, 0, 0, 1, 0x67, 0x42}
	if !bytes.Equal(got, want) {
		t.Errorf("Normalize = % x, want % x", got, want)
	}
}

func TestNormalizeDelimiterUnit(t *testing.T) {
	au := []byte{
		0, 0, 0, 1, 0x09, 0x10,
		0, 0, 1, 0x67, 0xAA,
		0, 0, 1, 0x65, 0xBB, 0xCC,
	}
	got := NewPacketizer(CodecX264Pipeline).Normalize(au)

	want := []byte{
		0, 0, 1, 0x67, 0xAA,
		0, 0, 0, 1, 0x65, 0xBB, 0xCC,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Normalize = % x, want % x", got, want)
	}
}

func TestNormalizeDelimiterWithoutIDR(t *testing.T) {
	au := []byte{0, 0, 0, 1, 0x09, 0x10, 0, 0, 1, 0x41, 0x9A, 0x01}
	got := NewPacketizer(CodecX264Pipeline).Normalize(au)

	want := []byte{0x10, 0, 0, 1, 0x41, 0x9A, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("Normalize = % x, want % x", got, want)
	}
}

func TestNormalizeLeavesOtherUnits(t *testing.T) {
	inputs := [][]byte{
		{0, 0, 0, 1, 0x65, 0x88},
		{0, 0, 0, 1, 0x09},
		{0, 0, 0, 1, 0x09, 0x50, 0x01},
	}
	p := NewPacketizer(CodecX264Pipeline)
	for _, in := range inputs {
		orig := append([]byte(nil), in...)
		if got := p.Normalize(in); !bytes.Equal(got, orig) {
			t.Errorf("Normalize(% x) = % x, want unchanged", orig, got)
		}
	}
}

func TestNormalizeOnlyForX264Pipeline(t *testing.T) {
	for _, codec := range []Codec{CodecX264, CodecOMXPipeline} {
		au := []byte{0, 0, 0, 1, 0x09, 0x30, 0, 0, 1, 0x67}
		orig := append([]byte(nil), au...)
		got := NewPacketizer(codec).Normalize(au)
		if !bytes.Equal(got, orig) {
			t.Errorf("%s: Normalize modified the access unit: % x", codec, got)
		}
	}
}

func TestPacketize(t *testing.T) {
	au := make([]byte, 5+4000)
	copy(au, []byte{0, 0, 0, 1, 0x09, 0x30})

	chunks := NewPacketizer(CodecX264Pipeline).Packetize(au)
	// 4000 bytes remain after the 5-byte prefix is stripped
	if len(chunks) != 3 {
		t.Fatalf("Packetize = %d chunks, want 3", len(chunks))
	}
	if chunks[0][0] != 0 {
		t.Errorf("first byte = %#x, want 0", chunks[0][0])
	}
	if n := len(chunks[2]); n != 4000-2*MaxPayloadSize {
		t.Errorf("last chunk = %d bytes, want %d", n, 4000-2*MaxPayloadSize)
	}
}
