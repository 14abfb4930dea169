// internal/app/system/workers/invitesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	invitestore "github.com/dalemusser/quorum/internal/app/store/invites"
	"github.com/dalemusser/quorum/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// InviteSweep is a background worker that flips overdue pending invites
// to expired. Reads already apply expiry lazily; the sweeper keeps the
// stored state honest so listings and counts don't drift.
type InviteSweep struct {
	invites  *invitestore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewInviteSweep creates a new invite sweep worker.
//
// Parameters:
//   - invStore: the invites store
//   - logger: zap logger for logging
//   - interval: how often to run the sweep (e.g., 10 minutes)
func NewInviteSweep(invStore *invitestore.Store, logger *zap.Logger, interval time.Duration) *InviteSweep {
	return &InviteSweep{
		invites:  invStore,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *InviteSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invite sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *InviteSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("invite sweep worker stopped")
}

func (w *InviteSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *InviteSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	count, err := w.invites.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to expire overdue invites", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("expired overdue invites", zap.Int64("count", count))
	}
}
