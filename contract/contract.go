//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is a permanent in-process consumer of room events (projections, stats).
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ConnectionSink receives encoded frames for one live connection.
// Send never blocks and reports false when the frame was dropped.
type ConnectionSink interface {
	Send(frame []byte) bool
}

type IRegistry interface {
	Connect(id domain.ConnID, sink ConnectionSink) domain.Connection
	Identify(id domain.ConnID, userID, name string) (domain.Connection, error)
	Move(id domain.ConnID, room domain.RoomID) (domain.RoomID, bool)
	Get(id domain.ConnID) (domain.Connection, bool)
	Sink(id domain.ConnID) (ConnectionSink, bool)
	Remove(id domain.ConnID) (domain.Connection, bool)
	GetSinksForRoom(roomID domain.RoomID, except domain.ConnID) []ConnectionSink
	Presence() domain.Presence
}

// Broker moves room broadcasts between hub instances.
// Subscribe blocks until ctx is done or the subscription fails.
type Broker interface {
	Publish(ctx context.Context, env event.Envelope) error
	Subscribe(ctx context.Context, deliver func(ctx context.Context, env event.Envelope)) error
}

// ICoordinator is what the real-time transport drives.
type ICoordinator interface {
	Connect(ctx context.Context, id domain.ConnID, sink ConnectionSink)
	Handle(ctx context.Context, id domain.ConnID, cmd domain.Command)
	Disconnect(ctx context.Context, id domain.ConnID)
}
