package fplsync

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// TransfersTask 拉取积分榜里每个经理的转会记录，依赖 league_standings
type TransfersTask struct {
	*tasks.Base
	deps        Deps
	extra       []int
	concurrency int
}

func NewTransfersTask(cfg conf.TaskConfig, deps Deps) *TransfersTask {
	return &TransfersTask{
		Base:        tasks.NewBase(conf.TaskTransfers, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps:        deps,
		extra:       cfg.Entries,
		concurrency: cfg.Concurrency,
	}
}

func (t *TransfersTask) Run(ctx context.Context) error {
	tracked, err := t.deps.Store.TrackedEntryIDs(ctx)
	if err != nil {
		return err
	}
	entries := dedupe(append(tracked, t.extra...))

	var (
		mu   sync.Mutex
		rows []objects.Transfer
	)
	err = tasks.FanOut(ctx, t.concurrency, entries, func(ctx context.Context, entry int) error {
		transfers, err := fetch(ctx, t.deps, t.Name(), fmt.Sprintf("entry/%d/transfers", entry), func(ctx context.Context) ([]fpl.Transfer, []byte, error) {
			return t.deps.API.GetEntryTransfers(ctx, entry)
		})
		if err != nil {
			return err
		}
		converted := toTransfers(transfers)
		mu.Lock()
		rows = append(rows, converted...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	if err := t.deps.Store.UpsertTransfers(ctx, rows); err != nil {
		return err
	}

	logger.Info("📥 [Transfers] synced", zap.Int("entries", len(entries)), zap.Int("transfers", len(rows)))
	t.Complete(ctx)
	return nil
}
