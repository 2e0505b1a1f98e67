// Package events streams auth events (sign-ins, sign-outs, revocations) to
// downstream security monitoring. Emission is best-effort and asynchronous;
// the auth path never blocks on, or fails because of, the event pipeline.
package events

import (
	"context"
	"log"
	"time"
)

// Event types emitted by the auth core.
const (
	TypeSignUp        = "auth.signup"
	TypeSignIn        = "auth.signin"
	TypeSignInFailed  = "auth.signin_failed"
	TypeSignOut       = "auth.signout"
	TypeSessionDenied = "auth.session_denied"
	TypeOrgSwitch     = "auth.org_switch"
)

// Event is one auth event. Serialized as JSON on the wire.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	OrgID     string    `json:"org_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Producer emits auth events. Best-effort; callers log and ignore errors.
type Producer interface {
	Emit(ctx context.Context, event *Event) error
}

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is
// not blocked. producer and event may be nil; EmitAsync then returns without
// starting a goroutine. The goroutine uses context.Background() so request
// cancellation does not abort an in-flight emit.
func EmitAsync(producer Producer, event *Event) {
	if producer == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := producer.Emit(ctx, event); err != nil {
			log.Printf("events: async emit failed: %v", err)
		}
	}()
}
