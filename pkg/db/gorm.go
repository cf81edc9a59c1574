package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	zLog "github.com/iceymoss/go-fpl/pkg/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver   string
	DSN      string
	LogLevel string
	MaxOpen  int
	MaxIdle  int
	// SlowThreshold 慢查询阈值，0 使用默认 500ms
	SlowThreshold time.Duration
}

// Dialector 按驱动名选择 gorm 方言
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres, "postgresql", "pgx", "cockroach", "cockroachdb":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
}

// Open 打开 gorm 连接并设置连接池
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := Dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}

	dbConn, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(zLog.With(zap.String("agg_type", "gorm")), gormLogger.Config{
			LogLevel:                  GormLevel(opts.LogLevel),
			IgnoreRecordNotFoundError: true,
			SlowThreshold:             slow,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", opts.Driver, err)
	}

	pool, err := dbConn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	maxOpen, maxIdle := opts.MaxOpen, opts.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 30
	}
	if maxIdle <= 0 {
		maxIdle = 15
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)

	return dbConn, nil
}

// SQLX 复用 gorm 的连接池，给只读报表查询用
func SQLX(gdb *gorm.DB, driver string) (*sqlx.DB, error) {
	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	name := DriverMySQL
	if !strings.EqualFold(driver, DriverMySQL) {
		name = DriverPostgres
	}
	return sqlx.NewDb(pool, name), nil
}

// GormLevel 配置里的日志级别映射到 gorm 级别
func GormLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "info":
		return gormLogger.Info
	case "warn", "warning":
		return gormLogger.Warn
	case "error", "fatal", "panic", "dpanic":
		return gormLogger.Error
	case "silent":
		return gormLogger.Silent
	default:
		return gormLogger.Warn
	}
}

// GormLogger 把 gorm 日志转到 zap
type GormLogger struct {
	Logger *zap.Logger
	Config gormLogger.Config
}

func NewGormLogger(l *zap.Logger, cfg gormLogger.Config) *GormLogger {
	return &GormLogger{Logger: l, Config: cfg}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newLogger := *l
	newLogger.Config.LogLevel = level
	return &newLogger
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < gormLogger.Info {
		return
	}
	l.Logger.Info(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < gormLogger.Warn {
		return
	}
	l.Logger.Warn(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel < gormLogger.Error {
		return
	}
	l.Logger.Error(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
}

// Trace 每条 SQL 执行完回调一次
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Config.LogLevel >= gormLogger.Error && (!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.Logger.Error(err.Error(),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_ms", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.Logger.Warn(fmt.Sprintf("SLOW SQL >= %v", l.Config.SlowThreshold),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_ms", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	case l.Config.LogLevel == gormLogger.Info:
		sql, rows := fc()
		l.Logger.Debug("sql",
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_ms", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	}
}
