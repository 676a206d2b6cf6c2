//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"converse/domain/event"
)

// EventSink is the opaque send capability of a live connection.
// Consume must deliver the event as one whole unit or fail; a returned
// error means the underlying transport is unusable.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// IdentityResolver maps a bearer credential to a user identity.
// A failed resolution is always reported as an error, never as an
// empty identity.
type IdentityResolver interface {
	Resolve(credential string) (string, error)
}
