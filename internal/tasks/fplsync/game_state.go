package fplsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// GameStateTask 同步比赛周、俱乐部、球员。其它任务都依赖它写入的数据，放在第一层
type GameStateTask struct {
	*tasks.Base
	deps Deps
}

func NewGameStateTask(cfg conf.TaskConfig, deps Deps) *GameStateTask {
	return &GameStateTask{
		Base: tasks.NewBase(conf.TaskGameState, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps: deps,
	}
}

func (t *GameStateTask) Run(ctx context.Context) error {
	boot, err := fetch(ctx, t.deps, t.Name(), "bootstrap-static", func(ctx context.Context) (*fpl.Bootstrap, []byte, error) {
		return t.deps.API.GetBootstrap(ctx)
	})
	if err != nil {
		return err
	}

	events, clubs, players := toEvents(boot.Events), toClubs(boot.Teams), toPlayers(boot.Elements)
	if err := t.deps.Store.SaveGameState(ctx, events, clubs, players); err != nil {
		return err
	}

	logger.Info("📥 [GameState] synced",
		zap.Int("events", len(events)),
		zap.Int("clubs", len(clubs)),
		zap.Int("players", len(players)))
	t.Complete(ctx)
	return nil
}
