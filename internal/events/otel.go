package events

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewOTelProducer returns a Producer that emits auth events as OTel log
// records via the given LoggerProvider. Returns nil when provider is nil.
func NewOTelProducer(provider *sdklog.LoggerProvider) *OTelProducer {
	if provider == nil {
		return nil
	}
	return &OTelProducer{logger: provider.Logger("authcore.events")}
}

// OTelProducer emits events through the OTel logs pipeline.
type OTelProducer struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record and emits it.
func (p *OTelProducer) Emit(ctx context.Context, event *Event) error {
	if p == nil || event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetBody(otellog.StringValue(event.Type))
	rec.AddAttributes(otellog.String("event_type", event.Type))
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", event.OrgID))
	}
	if event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", event.SessionID))
	}
	if event.IP != "" {
		rec.AddAttributes(otellog.String("ip", event.IP))
	}
	if event.Detail != "" {
		rec.AddAttributes(otellog.String("detail", event.Detail))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

// Fanout emits each event to every producer, stopping at the first error.
type Fanout []Producer

func (f Fanout) Emit(ctx context.Context, event *Event) error {
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
