package fplsync

import (
	"fmt"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/core"
)

type builder func(cfg conf.TaskConfig, deps Deps) core.SyncTask

var builders = map[string]builder{
	conf.TaskGameState:       func(c conf.TaskConfig, d Deps) core.SyncTask { return NewGameStateTask(c, d) },
	conf.TaskFixtures:        func(c conf.TaskConfig, d Deps) core.SyncTask { return NewFixturesTask(c, d) },
	conf.TaskLeagueStandings: func(c conf.TaskConfig, d Deps) core.SyncTask { return NewLeagueStandingsTask(c, d) },
	conf.TaskTransfers:       func(c conf.TaskConfig, d Deps) core.SyncTask { return NewTransfersTask(c, d) },
	conf.TaskPlayerPhotos:    func(c conf.TaskConfig, d Deps) core.SyncTask { return NewPlayerPhotosTask(c, d) },
	conf.TaskLivePoints:      func(c conf.TaskConfig, d Deps) core.SyncTask { return NewLivePointsTask(c, d) },
}

// Build 按配置构造启用的任务，未知任务名直接报错
func Build(cfgs []conf.TaskConfig, deps Deps) ([]core.SyncTask, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	list := make([]core.SyncTask, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := builders[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("fplsync: unknown task %q", cfg.Name)
		}
		if !cfg.IsEnabled() {
			continue
		}
		list = append(list, build(cfg, deps))
	}
	return list, nil
}
