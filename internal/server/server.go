package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/engine"
	"github.com/iceymoss/go-fpl/internal/store"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/logger"
	"github.com/iceymoss/go-fpl/pkg/xerr"
)

// Reporter 看板的只读查询，*store.Report 实现
type Reporter interface {
	TopStandings(ctx context.Context, leagueID, n int) ([]store.StandingRow, error)
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// RunHistory 任务执行记录，*repo.JobRepo 实现
type RunHistory interface {
	Recent(ctx context.Context, task string, limit int) ([]objects.SysJobLog, error)
}

type Options struct {
	Manager  *engine.Manager
	Report   Reporter
	Runs     RunHistory
	Gatherer prometheus.Gatherer
	// StaticDir 本地文件存储目录，球员头像从这里直接读
	StaticDir string
}

type Server struct {
	engine  *gin.Engine
	manager *engine.Manager
	report  Reporter
	runs    RunHistory
}

func NewServer(opts Options) *Server {
	s := &Server{
		manager: opts.Manager,
		report:  opts.Report,
		runs:    opts.Runs,
	}

	router := gin.New()
	router.Use(gin.Recovery(), accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", s.listTasks)
		api.GET("/tasks/:name", s.getTask)
		api.GET("/tasks/:name/runs", s.taskRuns)

		api.GET("/cycles", s.listCycles)
		api.GET("/cycles/last", s.lastCycle)
		api.POST("/cycles", s.triggerCycle)

		api.GET("/leagues/:id/standings", s.standings)
		api.GET("/tables", s.tables)
	}

	var files http.Handler
	if opts.StaticDir != "" {
		files = http.StripPrefix("/static", http.FileServer(http.Dir(opts.StaticDir)))
	}
	router.NoRoute(func(c *gin.Context) {
		// 为了安全，防止 API 404 返回了 HTML 页面
		if strings.HasPrefix(c.Request.URL.Path, "/api") || files == nil || !strings.HasPrefix(c.Request.URL.Path, "/static/") {
			fail(c, xerr.New(xerr.ErrNotFound, "not found"))
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})

	s.engine = router
	return s
}

// Handler 给测试和自定义 http.Server 用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 阻塞到 ctx 取消，然后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🌐 Dashboard running", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("🛑 Dashboard stopped")
	return nil
}

func (s *Server) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.manager.Stats.GetAll()})
}

func (s *Server) getTask(c *gin.Context) {
	stat, ok := s.manager.Stats.Get(c.Param("name"))
	if !ok {
		fail(c, xerr.New(xerr.ErrResourceNotFound, "task not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stat})
}

func (s *Server) taskRuns(c *gin.Context) {
	if s.runs == nil {
		fail(c, xerr.New(xerr.ErrNotConfigured, "run log is not configured"))
		return
	}
	name := c.Param("name")
	if _, ok := s.manager.Stats.Get(name); !ok {
		fail(c, xerr.New(xerr.ErrResourceNotFound, "task not found"))
		return
	}
	runs, err := s.runs.Recent(c.Request.Context(), name, queryInt(c, "limit", 20))
	if err != nil {
		logger.Error("❌ [API] load runs failed", zap.String("task", name), zap.Error(err))
		fail(c, xerr.Wrap(xerr.ErrQueryFailed, "query failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (s *Server) listCycles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.manager.Stats.History()})
}

func (s *Server) lastCycle(c *gin.Context) {
	last, ok := s.manager.Stats.Last()
	if !ok {
		fail(c, xerr.New(xerr.ErrResourceNotFound, "no cycle has run yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": last})
}

// triggerCycle 手动触发一整轮，已经有待处理的触发时返回 409
func (s *Server) triggerCycle(c *gin.Context) {
	if !s.manager.Trigger() {
		fail(c, xerr.New(xerr.ErrCyclePending, "a cycle is already pending"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Triggered"})
}

func (s *Server) standings(c *gin.Context) {
	if s.report == nil {
		fail(c, xerr.New(xerr.ErrNotConfigured, "report is not configured"))
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		fail(c, xerr.New(xerr.ErrInvalidInput, "invalid league id"))
		return
	}
	rows, err := s.report.TopStandings(c.Request.Context(), id, queryInt(c, "limit", 50))
	if err != nil {
		logger.Error("❌ [API] standings failed", zap.Int("league", id), zap.Error(err))
		fail(c, xerr.Wrap(xerr.ErrQueryFailed, "query failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) tables(c *gin.Context) {
	if s.report == nil {
		fail(c, xerr.New(xerr.ErrNotConfigured, "report is not configured"))
		return
	}
	counts, err := s.report.TableCounts(c.Request.Context())
	if err != nil {
		logger.Error("❌ [API] table counts failed", zap.Error(err))
		fail(c, xerr.Wrap(xerr.ErrQueryFailed, "query failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}

// fail 错误统一返回 {code, error}，原始错误只进日志
func fail(c *gin.Context, e *xerr.CodeMsg) {
	c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{"code": e.Code, "error": e.Msg})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// accessLog 用 zap 替代 gin 默认的访问日志
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[HTTP]",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
