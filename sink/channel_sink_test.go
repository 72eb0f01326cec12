package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelSink_Send(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(2)

	// Given a sink with room for two frames
	req.True(s.Send([]byte("1")))
	req.True(s.Send([]byte("2")))

	// When the buffer is full
	// Then the next frame is dropped without blocking
	req.False(s.Send([]byte("3")))
	req.Equal(2, s.Pending())

	req.Equal([]byte("1"), <-s.Frames())
	req.True(s.Send([]byte("4")))
}

func TestChannelSink_Close(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(2)

	s.Close()
	s.Close()

	req.False(s.Send([]byte("1")))
	select {
	case <-s.Done():
	default:
		req.Fail("done should be closed")
	}
}
