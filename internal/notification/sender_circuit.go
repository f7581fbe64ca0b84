package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"clearport/pkg/platform/circuit"
)

// ErrCircuitOpen reports a send that was skipped because the sender's
// circuit is open.
var ErrCircuitOpen = errors.New("notification circuit open")

// CircuitSender guards a primary sender with a circuit breaker. While the
// circuit is open most sends fail fast instead of waiting on a dead SMTP
// host; every probeEvery-th send still probes the primary so the circuit
// can close again. The decision pipeline treats delivery failure as
// degraded rather than fatal, so failing fast only shortens the request.
type CircuitSender struct {
	primary Sender
	breaker *circuit.Breaker
	logger  *slog.Logger

	probeEvery uint64
	skipped    atomic.Uint64
}

func NewCircuitSender(primary Sender, logger *slog.Logger) *CircuitSender {
	return &CircuitSender{
		primary: primary,
		breaker: circuit.New("notification-sender",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2),
		),
		logger:     logger,
		probeEvery: 10,
	}
}

func (s *CircuitSender) Send(ctx context.Context, msg Message) error {
	if s.breaker.IsOpen() && s.skipped.Add(1)%s.probeEvery != 0 {
		return ErrCircuitOpen
	}

	if err := s.primary.Send(ctx, msg); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "notification circuit opened", "breaker", s.breaker.Name())
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "notification circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}
