package videocast

import (
	"bytes"
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsIDR(t *testing.T) {
	assert.True(t, containsIDR(append(append([]byte(nil), testSPS...), testIDR...)))
	assert.False(t, containsIDR(testSPS))
	assert.False(t, containsIDR([]byte{0, 0, 0, 1, 0x41, 0x9A}))
	assert.False(t, containsIDR(nil))
}

func TestOutputNormalizesPipelineUnits(t *testing.T) {
	var stats statsRecorder
	sender := &recordingSender{}
	out := newOutput(CodecX264Pipeline, rawFramer{}, sender, &stats, quietLogger())

	au := []byte{0, 0, 0, 1, 0x09, 0x30, 0, 0, 1, 0x65, 0xAA}
	out.emit(au, 0)

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.True(t, bytes.Equal([]byte{0, 0, 0, 1, 0x65, 0xAA}, sent[0]))

	s := stats.snapshot()
	assert.Equal(t, uint64(1), s.AccessUnits)
	assert.Equal(t, uint64(1), s.Keyframes)
	assert.Equal(t, uint64(6), s.BytesSent)
}

func TestOutputSkipsEmptyUnits(t *testing.T) {
	var stats statsRecorder
	sender := &recordingSender{}
	out := newOutput(CodecX264, rawFramer{}, sender, &stats, quietLogger())

	out.emit(nil, 0)
	assert.Empty(t, sender.sent())
	assert.Equal(t, Stats{}, stats.snapshot())
}

func TestOutputRTPFraming(t *testing.T) {
	var stats statsRecorder
	sender := &recordingSender{}
	out := newOutput(CodecX264, NewRTPFramer(99, 96, MaxPayloadSize), sender, &stats, quietLogger())

	out.emit(testAccessUnit(3000), 80_000_000)

	sent := sender.sent()
	require.NotEmpty(t, sent)
	for _, d := range sent {
		assert.LessOrEqual(t, len(d), MaxPayloadSize)
		var pkt rtp.Packet
		require.NoError(t, pkt.Unmarshal(d))
		assert.Equal(t, uint32(7200), pkt.Timestamp)
	}
	assert.Equal(t, uint64(len(sent)), stats.snapshot().DatagramsSent)
}
