// Package fplsync FPL 各类资源的同步任务
package fplsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/iceymoss/go-fpl/internal/archive"
	"github.com/iceymoss/go-fpl/internal/checkpoint"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
	"github.com/iceymoss/go-fpl/pkg/retry"
	"github.com/iceymoss/go-fpl/pkg/storage"
)

// API 任务用到的远端接口，*fpl.Client 实现
type API interface {
	GetBootstrap(ctx context.Context) (*fpl.Bootstrap, []byte, error)
	GetFixtures(ctx context.Context) ([]fpl.Fixture, []byte, error)
	GetLeagueStandings(ctx context.Context, leagueID, page int) (*fpl.LeagueStandings, []byte, error)
	GetEntryTransfers(ctx context.Context, entryID int) ([]fpl.Transfer, []byte, error)
	GetEventLive(ctx context.Context, eventID int) (*fpl.EventLive, []byte, error)
	GetPlayerPhoto(ctx context.Context, code int) ([]byte, error)
}

// Store 任务用到的持久化接口，*store.Store 实现
type Store interface {
	SaveGameState(ctx context.Context, events []objects.Event, clubs []objects.Club, players []objects.Player) error
	UpsertFixtures(ctx context.Context, rows []objects.Fixture) error
	UpsertLeagueEntries(ctx context.Context, rows []objects.LeagueEntry) error
	UpsertTransfers(ctx context.Context, rows []objects.Transfer) error
	UpsertPlayerPhotos(ctx context.Context, rows []objects.PlayerPhoto) error
	UpsertLiveStats(ctx context.Context, rows []objects.LiveStat) error

	TrackedEntryIDs(ctx context.Context) ([]int, error)
	PlayersWithoutPhoto(ctx context.Context, limit int) ([]objects.Player, error)
	CurrentEventID(ctx context.Context) (int, bool, error)
}

// Deps 所有任务共享的依赖
type Deps struct {
	API        API
	Store      Store
	Files      storage.FileStorage
	Archive    archive.Archive
	Checkpoint checkpoint.Store
	Clock      clock.PassiveClock
	Retry      retry.Policy
}

func (d Deps) validate() error {
	if d.API == nil {
		return fmt.Errorf("fplsync: API is required")
	}
	if d.Store == nil {
		return fmt.Errorf("fplsync: Store is required")
	}
	return nil
}

func (d Deps) archive() archive.Archive {
	if d.Archive == nil {
		return archive.Nop{}
	}
	return d.Archive
}

// fetch 远端调用统一走重试策略，拿到的原始响应先归档
func fetch[T any](ctx context.Context, d Deps, task, endpoint string, call func(ctx context.Context) (T, []byte, error)) (T, error) {
	type result struct {
		val T
		raw []byte
	}

	policy := d.Retry
	policy.Name = task + " " + endpoint
	res, err := retry.Do(ctx, policy, func() (result, error) {
		val, raw, err := call(ctx)
		return result{val: val, raw: raw}, err
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	payload := archive.Payload{Task: task, Endpoint: endpoint, FetchedAt: now(d), Body: res.raw}
	if err := d.archive().Save(ctx, payload); err != nil {
		logger.Warn("⚠️ [Archive] save failed", zap.String("task", task), zap.String("endpoint", endpoint), zap.Error(err))
	}
	return res.val, nil
}

func now(d Deps) time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}
