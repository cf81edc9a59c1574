package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type cronLogger struct {
	sugar *zap.SugaredLogger
}

// CronLogger 把 zap 适配成 cron.Logger，cron 内部日志（跳过、panic 恢复）统一走 zap
func CronLogger() cron.Logger {
	return &cronLogger{sugar: Logger.WithOptions(zap.AddCallerSkip(-1)).Sugar().Named("cron")}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
