package fplsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// LivePointsTask 当前比赛周的实时得分，依赖 game_state 确定当前比赛周
type LivePointsTask struct {
	*tasks.Base
	deps Deps
}

func NewLivePointsTask(cfg conf.TaskConfig, deps Deps) *LivePointsTask {
	return &LivePointsTask{
		Base: tasks.NewBase(conf.TaskLivePoints, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps: deps,
	}
}

func (t *LivePointsTask) Run(ctx context.Context) error {
	eventID, ok, err := t.deps.Store.CurrentEventID(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// 赛季还没开始
		logger.Info("⏭️ [Live] no current event")
		t.Complete(ctx)
		return nil
	}

	live, err := fetch(ctx, t.deps, t.Name(), fmt.Sprintf("event/%d/live", eventID), func(ctx context.Context) (*fpl.EventLive, []byte, error) {
		return t.deps.API.GetEventLive(ctx, eventID)
	})
	if err != nil {
		return err
	}

	rows := toLiveStats(eventID, live)
	if err := t.deps.Store.UpsertLiveStats(ctx, rows); err != nil {
		return err
	}

	logger.Info("📥 [Live] synced", zap.Int("event", eventID), zap.Int("players", len(rows)))
	t.Complete(ctx)
	return nil
}
