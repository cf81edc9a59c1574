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

// LeagueStandingsTask 按联赛分页拉取积分榜，联赛之间并发
type LeagueStandingsTask struct {
	*tasks.Base
	deps        Deps
	leagues     []int
	maxPages    int
	concurrency int
}

const defaultMaxPages = 20

func NewLeagueStandingsTask(cfg conf.TaskConfig, deps Deps) *LeagueStandingsTask {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &LeagueStandingsTask{
		Base:        tasks.NewBase(conf.TaskLeagueStandings, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps:        deps,
		leagues:     dedupe(cfg.Leagues),
		maxPages:    maxPages,
		concurrency: cfg.Concurrency,
	}
}

func (t *LeagueStandingsTask) Run(ctx context.Context) error {
	var (
		mu   sync.Mutex
		rows []objects.LeagueEntry
	)

	err := tasks.FanOut(ctx, t.concurrency, t.leagues, func(ctx context.Context, league int) error {
		entries, err := t.fetchLeague(ctx, league)
		if err != nil {
			return err
		}
		mu.Lock()
		rows = append(rows, entries...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	if err := t.deps.Store.UpsertLeagueEntries(ctx, rows); err != nil {
		return err
	}

	logger.Info("📥 [Standings] synced", zap.Ints("leagues", t.leagues), zap.Int("entries", len(rows)))
	t.Complete(ctx)
	return nil
}

// fetchLeague 一直翻到 has_next 为 false 或者达到页数上限
func (t *LeagueStandingsTask) fetchLeague(ctx context.Context, league int) ([]objects.LeagueEntry, error) {
	var rows []objects.LeagueEntry
	for page := 1; page <= t.maxPages; page++ {
		endpoint := fmt.Sprintf("leagues-classic/%d/standings?page=%d", league, page)
		standings, err := fetch(ctx, t.deps, t.Name(), endpoint, func(ctx context.Context) (*fpl.LeagueStandings, []byte, error) {
			return t.deps.API.GetLeagueStandings(ctx, league, page)
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, toLeagueEntries(standings)...)
		if !standings.Standings.HasNext {
			return rows, nil
		}
	}
	logger.Debug("[Standings] page limit reached", zap.Int("league", league), zap.Int("pages", t.maxPages))
	return rows, nil
}

// dedupe 去重并保持原有顺序
func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
