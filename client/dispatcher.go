package client

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"encoding/json"
	"fmt"
	"sync"
)

// Dispatcher routes server frames to the registered callbacks.
// Callbacks run on the read loop, one at a time.
type Dispatcher struct {
	mu           sync.RWMutex
	onConnected  func()
	onMessage    func(json.RawMessage)
	onTyping     func(event.Typing)
	onStopTyping func(event.StopTyping)
	onError      func(error)
}

func (d *Dispatcher) SetOnConnected(fn func())                  { d.set(func() { d.onConnected = fn }) }
func (d *Dispatcher) SetOnMessage(fn func(json.RawMessage))      { d.set(func() { d.onMessage = fn }) }
func (d *Dispatcher) SetOnTyping(fn func(event.Typing))          { d.set(func() { d.onTyping = fn }) }
func (d *Dispatcher) SetOnStopTyping(fn func(event.StopTyping)) { d.set(func() { d.onStopTyping = fn }) }
func (d *Dispatcher) SetOnError(fn func(error))                  { d.set(func() { d.onError = fn }) }

func (d *Dispatcher) set(assign func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	assign()
}

func (d *Dispatcher) Dispatch(frame event.Frame) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch frame.Event {
	case domain.EventConnected:
		if d.onConnected != nil {
			d.onConnected()
		}
	case domain.EventMessageReceived:
		if d.onMessage != nil {
			d.onMessage(frame.Data)
		}
	case domain.EventTyping:
		if d.onTyping == nil {
			return
		}
		var typing event.Typing
		if err := json.Unmarshal(frame.Data, &typing); err != nil {
			d.fireError(fmt.Errorf("decode %s: %w", frame.Event, err))
			return
		}
		d.onTyping(typing)
	case domain.EventStopTyping:
		if d.onStopTyping == nil {
			return
		}
		var stop event.StopTyping
		if err := json.Unmarshal(frame.Data, &stop); err != nil {
			d.fireError(fmt.Errorf("decode %s: %w", frame.Event, err))
			return
		}
		d.onStopTyping(stop)
	default:
		d.fireError(fmt.Errorf("unexpected event %q", frame.Event))
	}
}

// reportError is used outside Dispatch.
func (d *Dispatcher) reportError(err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.fireError(err)
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil {
		d.onError(err)
	}
}
