package fplsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// FixturesTask 同步整个赛季的赛程和比分，依赖俱乐部和比赛周
type FixturesTask struct {
	*tasks.Base
	deps Deps
}

func NewFixturesTask(cfg conf.TaskConfig, deps Deps) *FixturesTask {
	return &FixturesTask{
		Base: tasks.NewBase(conf.TaskFixtures, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps: deps,
	}
}

func (t *FixturesTask) Run(ctx context.Context) error {
	fixtures, err := fetch(ctx, t.deps, t.Name(), "fixtures", func(ctx context.Context) ([]fpl.Fixture, []byte, error) {
		return t.deps.API.GetFixtures(ctx)
	})
	if err != nil {
		return err
	}

	rows := toFixtures(fixtures)
	if err := t.deps.Store.UpsertFixtures(ctx, rows); err != nil {
		return err
	}

	logger.Info("📥 [Fixtures] synced", zap.Int("fixtures", len(rows)))
	t.Complete(ctx)
	return nil
}
