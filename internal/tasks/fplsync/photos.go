package fplsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/tasks"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/logger"
	"github.com/iceymoss/go-fpl/pkg/retry"
)

// PhotoFolder 头像在文件存储里的目录
const PhotoFolder = "photos"

// PlayerPhotosTask 下载还没有头像的球员照片，依赖 game_state 写入的球员
type PlayerPhotosTask struct {
	*tasks.Base
	deps        Deps
	limit       int
	concurrency int
}

func NewPlayerPhotosTask(cfg conf.TaskConfig, deps Deps) *PlayerPhotosTask {
	return &PlayerPhotosTask{
		Base:        tasks.NewBase(conf.TaskPlayerPhotos, cfg.TierValue(), cfg.Interval, deps.Clock, deps.Checkpoint),
		deps:        deps,
		limit:       cfg.Limit,
		concurrency: cfg.Concurrency,
	}
}

func (t *PlayerPhotosTask) Run(ctx context.Context) error {
	if t.deps.Files == nil {
		return errors.New("player photos: file storage is not configured")
	}

	players, err := t.deps.Store.PlayersWithoutPhoto(ctx, t.limit)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		rows    []objects.PlayerPhoto
		missing int
	)
	err = tasks.FanOut(ctx, t.concurrency, players, func(ctx context.Context, p objects.Player) error {
		photo, err := t.download(ctx, p.Code)
		if isNotFound(err) {
			// 新球员经常还没有照片，下次再试
			mu.Lock()
			missing++
			mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}

		url, err := t.deps.Files.SaveFile(ctx, bytes.NewReader(photo), fmt.Sprintf("p%d.png", p.Code), PhotoFolder)
		if err != nil {
			return fmt.Errorf("save photo %d: %w", p.Code, err)
		}
		mu.Lock()
		rows = append(rows, objects.PlayerPhoto{PlayerID: p.ID, Code: p.Code, URL: url})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	if err := t.deps.Store.UpsertPlayerPhotos(ctx, rows); err != nil {
		return err
	}

	logger.Info("📥 [Photos] synced", zap.Int("saved", len(rows)), zap.Int("missing", missing))
	t.Complete(ctx)
	return nil
}

// download 图片不归档，只重试限流
func (t *PlayerPhotosTask) download(ctx context.Context, code int) ([]byte, error) {
	policy := t.deps.Retry
	policy.Name = fmt.Sprintf("%s photo %d", t.Name(), code)
	return retry.Do(ctx, policy, func() ([]byte, error) {
		return t.deps.API.GetPlayerPhoto(ctx, code)
	})
}

func isNotFound(err error) bool {
	var apiErr *fpl.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
