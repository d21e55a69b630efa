// Package audit captures structured audit events for submission and
// compliance operations. Emission is fire-and-forget from the caller's
// perspective: a failing sink is logged, never propagated, so audit problems
// cannot abort domain writes.
package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"cpdtrack/pkg/requestcontext"
)

// Store is the append-only persistence sink behind the service.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Service records audit events. It is append-only and uses the store layer
// for persistence so tests can swap sinks easily.
type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// Emit records one event, defaulting the timestamp, actor, and IP from the
// request context when the caller left them unset.
func (s *Service) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if event.IPAddress == "" {
		event.IPAddress = requestcontext.ClientIP(ctx)
	}
	if err := s.store.Append(ctx, event); err != nil && s.log != nil {
		s.log.WithError(err).WithField("action", event.Action).Warn("audit append failed")
	}
}
