package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/iceymoss/go-fpl/internal/archive"
	"github.com/iceymoss/go-fpl/internal/checkpoint"
	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/engine"
	"github.com/iceymoss/go-fpl/internal/repo"
	"github.com/iceymoss/go-fpl/internal/store"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/internal/tasks/fplsync"
	"github.com/iceymoss/go-fpl/pkg/db"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
	"github.com/iceymoss/go-fpl/pkg/retry"
	"github.com/iceymoss/go-fpl/pkg/storage"
)

// checkpointTTL 超过这个时间没跑过的任务，重启后当作从未运行
const checkpointTTL = 7 * 24 * time.Hour

// runtime 一次进程运行需要的所有组件
type runtime struct {
	db       *gorm.DB
	store    *store.Store
	report   *store.Report
	jobs     *repo.JobRepo
	manager  *engine.Manager
	registry *prometheus.Registry

	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func openDB(c *conf.Config) (*gorm.DB, error) {
	return db.Open(db.Options{
		Driver:   c.Database.Driver,
		DSN:      c.Database.DSN,
		LogLevel: c.Database.LogLevel,
		MaxOpen:  c.Database.MaxOpen,
		MaxIdle:  c.Database.MaxIdle,
	})
}

func newRuntime(ctx context.Context, c *conf.Config) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if rt.db, err = openDB(c); err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() {
		if pool, err := rt.db.DB(); err == nil {
			_ = pool.Close()
		}
	})
	rt.store = store.New(rt.db)
	rt.jobs = repo.NewJobRepo(rt.db)

	sx, err := db.SQLX(rt.db, c.Database.Driver)
	if err != nil {
		return nil, err
	}
	rt.report = store.NewReport(sx)

	cp, err := newCheckpoint(ctx, c, rt)
	if err != nil {
		return nil, err
	}
	arch, err := newArchive(ctx, c, rt)
	if err != nil {
		return nil, err
	}

	client := fpl.NewClient(fpl.Config{
		BaseURL:      c.FPL.BaseURL,
		PhotoBaseURL: c.FPL.PhotoBaseURL,
		UserAgent:    c.FPL.UserAgent,
		Timeout:      c.FPL.Timeout,
		RatePerSec:   c.FPL.RatePerSec,
		Burst:        c.FPL.Burst,
	})

	list, err := fplsync.Build(c.Tasks, fplsync.Deps{
		API:        client,
		Store:      rt.store,
		Files:      storage.NewLocalStorage(c.Storage.BasePath, c.Storage.BaseURL),
		Archive:    arch,
		Checkpoint: cp,
		Clock:      clock.RealClock{},
		Retry: retry.Policy{
			MaxRetries: c.FPL.MaxRetries,
			BaseDelay:  c.FPL.RetryBase,
			Retryable:  retry.IsRateLimited,
		},
	})
	if err != nil {
		return nil, err
	}

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := engine.NewMetrics(rt.registry)
	if err != nil {
		return nil, err
	}

	policy, err := engine.ParseTierPolicy(c.Scheduler.TierPolicy)
	if err != nil {
		return nil, err
	}
	rt.manager = engine.NewManager(
		engine.WithSchedule(c.Scheduler.Schedule),
		engine.WithTierPolicy(policy),
		engine.WithHistorySize(c.Scheduler.HistorySize),
		engine.WithTaskTimeout(c.Scheduler.TaskTimeout),
		engine.WithMetrics(metrics),
		engine.WithRunLog(rt.jobs),
	)
	if err := tasks.RegisterAll(ctx, rt.manager, list); err != nil {
		return nil, err
	}
	return rt, nil
}

func newCheckpoint(ctx context.Context, c *conf.Config, rt *runtime) (checkpoint.Store, error) {
	if !c.Redis.Enabled {
		logger.Info("💾 [Checkpoint] redis disabled, last run kept in memory")
		return checkpoint.NewMemory(), nil
	}
	rdb, err := db.NewRedis(ctx, db.RedisOptions{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() { _ = rdb.Close() })
	logger.Info("💾 [Checkpoint] using redis", zap.String("addr", c.Redis.Addr))
	return checkpoint.NewRedis(rdb, checkpointTTL), nil
}

func newArchive(ctx context.Context, c *conf.Config, rt *runtime) (archive.Archive, error) {
	if !c.Mongo.Enabled {
		return archive.Nop{}, nil
	}
	client, err := db.ConnectMongo(ctx, c.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	rt.closers = append(rt.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	})
	logger.Info("🗄️ [Archive] raw payloads archived to mongo",
		zap.String("database", c.Mongo.Database),
		zap.String("collection", c.Mongo.Collection))
	return archive.NewMongo(client, c.Mongo.Database, c.Mongo.Collection), nil
}
