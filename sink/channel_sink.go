package sink

import "sync"

// ChannelSink buffers the frames of one connection until its writer drains them.
// The frames channel is never closed, Done signals the end instead.
type ChannelSink struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{
		frames: make(chan []byte, bufferSize),
		done:   make(chan struct{}),
	}
}

// Send is called by the coordinator while it holds its lock, so it never blocks.
// A closed sink or a full buffer drops the frame.
func (s *ChannelSink) Send(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *ChannelSink) Frames() <-chan []byte {
	return s.frames
}

func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}

// Pending returns the number of buffered frames.
func (s *ChannelSink) Pending() int {
	return len(s.frames)
}

func (s *ChannelSink) Close() {
	s.once.Do(func() { close(s.done) })
}
