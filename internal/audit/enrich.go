package audit

import (
	"context"

	"inscrito/internal/platform/middleware"
)

// Enriched decorates a publisher with request-scoped metadata: the request id
// and the caller's device condensed from the User-Agent. Services emit bare
// domain events and stay unaware of HTTP.
type Enriched struct {
	next Publisher
}

func Enrich(next Publisher) *Enriched {
	return &Enriched{next: next}
}

func (e *Enriched) Emit(ctx context.Context, event Event) error {
	if event.RequestID == "" {
		event.RequestID = middleware.GetRequestID(ctx)
	}
	if event.Device == "" {
		event.Device = DeviceFromUserAgent(middleware.GetUserAgent(ctx))
	}
	return e.next.Emit(ctx, event)
}
