package testlib

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/perimetr/gatekeeper/seclayer"
)

type EventStreamMock struct {
	mock.Mock
}

func (e *EventStreamMock) Send(ctx context.Context, evt seclayer.Event) {
	e.Called(ctx, evt)
}

func (e *EventStreamMock) Shutdown() {
	e.Called()
}

// NoopEventStream swallows events. Tests use it where the event flow
// is irrelevant.
type NoopEventStream struct{}

func (n NoopEventStream) Send(_ context.Context, _ seclayer.Event) {}

func (n NoopEventStream) Shutdown() {}
