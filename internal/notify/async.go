package notify

import (
	"context"
	"fmt"
	"swiftattend/internal/logger"
	"sync"
)

// Async hands notifications to a goroutine and returns at once, so a slow or
// unreachable broker never holds up a registration or check-in. Delivery
// errors are logged. Wait blocks until every dispatched notification is done.
type Async struct {
	Next   Notifier
	Logger *logger.Logger

	wg sync.WaitGroup
}

func NewAsync(next Notifier, log *logger.Logger) *Async {
	return &Async{Next: next, Logger: log}
}

func (a *Async) NotifyRegistration(ctx context.Context, r Registration) error {
	a.dispatch(ctx, "registration "+r.ParticipantID, func(ctx context.Context) error {
		return a.Next.NotifyRegistration(ctx, r)
	})
	return nil
}

func (a *Async) NotifyCheckIn(ctx context.Context, c CheckIn) error {
	a.dispatch(ctx, "check-in "+c.ParticipantID, func(ctx context.Context) error {
		return a.Next.NotifyCheckIn(ctx, c)
	})
	return nil
}

func (a *Async) dispatch(ctx context.Context, what string, send func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := send(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("NOTIFY", fmt.Sprintf("Background %s notification failed: %v", what, err))
		}
	}()
}

func (a *Async) Wait() {
	a.wg.Wait()
}
