// Package casework hosts the application services that orchestrate appeal
// mutations: loading aggregates, applying domain policy, persisting under
// optimistic concurrency, and fanning out notifications, events and audit
// entries.
package casework

import (
	"context"

	"github.com/openappeals/casework/internal/domain/appeal"
)

// Notification is one outbound message handed to the notification client.
type Notification struct {
	Template        string            `json:"template"`
	EmailAddress    string            `json:"email_address"`
	Reference       string            `json:"reference"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
}

// Notifier dispatches a single notification. Implementations live under
// internal/infrastructure/notify.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// EventPublisher emits domain events to the messaging backbone after a
// successful mutation. Publishing is best-effort: a publish failure is
// logged, never surfaced to the caller of a completed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, e appeal.Event) error
}
