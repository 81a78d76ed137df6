package analytics

import (
	"context"
	"log"
	"time"
)

// Event names mirrored to the marketing platform. Payload keys are the
// platform's, spaces included, so downstream dashboards keep working.
const (
	EventCategoryViewed = "Category Viewed"
	EventAddedToCart    = "Added to Cart"
	EventCharged        = "Charged"
	EventProfileViewed  = "Profile Viewed"
	EventProfileUpdated = "Profile Updated"
)

// Profile is the identity claim pushed on login and profile updates.
type Profile struct {
	Name        string
	Email       string
	Identity    string
	Phone       string
	CountryCode string
}

// Sink is the write-only analytics boundary. The store and handlers only
// ever call it best-effort; nothing in the system reads from it.
type Sink interface {
	RecordEvent(ctx context.Context, name string, payload map[string]any) error
	Identify(ctx context.Context, profile Profile) error
}

// NopSink drops everything. Used in tests and when no broker is configured.
type NopSink struct{}

func (NopSink) RecordEvent(ctx context.Context, name string, payload map[string]any) error {
	return nil
}

func (NopSink) Identify(ctx context.Context, profile Profile) error { return nil }

const emitTimeout = 3 * time.Second

// EmitEvent mirrors an event to the sink without blocking the caller.
// Failures are logged and swallowed; they are never retried and never
// surfaced to the user.
func EmitEvent(sink Sink, logger *log.Logger, name string, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()

		if err := sink.RecordEvent(ctx, name, payload); err != nil {
			logger.Printf("analytics: record %q failed: %v", name, err)
		}
	}()
}

// EmitIdentify pushes a profile to the sink with the same fire-and-forget
// semantics as EmitEvent.
func EmitIdentify(sink Sink, logger *log.Logger, profile Profile) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()

		if err := sink.Identify(ctx, profile); err != nil {
			logger.Printf("analytics: identify %q failed: %v", profile.Identity, err)
		}
	}()
}
