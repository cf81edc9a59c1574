package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/internal/engine"
)

var _ engine.RunLog = (*JobRepo)(nil)

func newDryRunRepo(t *testing.T) (*JobRepo, func() []string) {
	t.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 port=1 user=fpl dbname=fpl sslmode=disable"}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		sqls []string
	)
	capture := func(db *gorm.DB) {
		mu.Lock()
		sqls = append(sqls, db.Statement.SQL.String())
		mu.Unlock()
	}
	require.NoError(t, gdb.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, gdb.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	require.NoError(t, gdb.Callback().Query().After("gorm:query").Register("test:capture_query", capture))

	return NewJobRepo(gdb), func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), sqls...)
	}
}

func TestJobRepoStartFinish(t *testing.T) {
	r, sqls := newDryRunRepo(t)
	ctx := context.Background()

	_, err := r.Start(ctx, "fixtures", core.TierSecond, time.Now())
	require.NoError(t, err)
	require.NoError(t, r.Finish(ctx, 1, time.Now(), 2*time.Second, errors.New("boom")))

	got := sqls()
	require.Len(t, got, 2)
	assert.Contains(t, got[0], `INSERT INTO "sys_job_logs"`)
	assert.Contains(t, got[1], `UPDATE "sys_job_logs" SET`)
	assert.Contains(t, got[1], `"error_msg"`)
	assert.Contains(t, got[1], `WHERE id = `)
}

func TestJobRepoRecent(t *testing.T) {
	r, sqls := newDryRunRepo(t)

	_, err := r.Recent(context.Background(), "transfers", 5)
	require.NoError(t, err)

	got := sqls()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `job_name = `)
	assert.Contains(t, got[0], `ORDER BY id DESC`)
}
