package waveform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannel() ChannelID {
	return ChannelID{Network: "UU", Station: "FSU", Channel: "EHZ", LocationCode: "01"}
}

func TestNewPacketValidation(t *testing.T) {
	_, err := NewPacket(ChannelID{}, 100, time.Now(), nil)
	assert.Error(t, err)

	_, err = NewPacket(testChannel(), 0, time.Now(), nil)
	assert.Error(t, err)

	p, err := NewPacket(testChannel(), 100, time.Unix(0, 0), []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumSamples())
}

func TestPacketEndTimeUndefinedWhenEmpty(t *testing.T) {
	p, err := NewPacket(testChannel(), 100, time.Unix(0, 0), nil)
	require.NoError(t, err)
	_, ok := p.EndTime()
	assert.False(t, ok)
}

func TestPacketEndTime(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	p, err := NewPacket(testChannel(), 100, start, make([]float64, 101))
	require.NoError(t, err)
	end, ok := p.EndTime()
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Second), end)
}

func TestProbabilityPacketValidation(t *testing.T) {
	base, _ := NewPacket(testChannel(), 100, time.Unix(0, 0), []float64{0.1, 0.5, 1.1})
	pp := ProbabilityPacket{
		Packet:            base,
		PositiveClassName: "P",
		NegativeClassName: "Noise",
		Algorithm:         "uNetOneComponentP",
	}
	err := pp.Validate()
	assert.Error(t, err, "sample 1.1 is out of [0,1]")

	base2, _ := NewPacket(testChannel(), 100, time.Unix(0, 0), []float64{0.1, 0.5, 0.9})
	pp2 := ProbabilityPacket{Packet: base2, PositiveClassName: "P", NegativeClassName: "Noise", Algorithm: "uNetOneComponentP"}
	assert.NoError(t, pp2.Validate())
}
