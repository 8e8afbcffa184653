// Package logutil ports the teacher's process-wide logger idiom
// (util/expensivequery.go's use of go.uber.org/zap through a package-level
// logger, and util/logutil's BgLogger() accessor referenced from
// util/chunk/row_container.go) to this module.
package logutil

import (
	"os"
	"sync/atomic"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger atomic.Value

func init() {
	globalLogger.Store(zap.NewNop())
}

// Config mirrors the subset of fields callers actually set; a richer
// config would be the out-of-scope system configuration layer named in
// spec.md §1.
type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Init installs the process-wide logger, following the same "explicit
// initialization phase at startup" pattern called out in §9's redesign
// notes for global loggers/config singletons.
func Init(cfg Config) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		sink = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(encoder, sink, level)
	zl := zap.New(core, zap.AddCaller())
	globalLogger.Store(zl)

	// Install the same logger as pingcap/log's package-level global so any
	// component that logs through log.L()/log.GetLevel() (the convention
	// util/expensivequery.go relies on) observes this process's level and
	// sink rather than pingcap/log's own no-op default.
	log.ReplaceGlobals(zl, &log.ZapProperties{Core: core, Syncer: sink, Level: &level})
	return nil
}

// BgLogger returns the process-wide background logger, following
// util/logutil.BgLogger()'s role in the teacher (called from
// row_container.go and action.go on the spill/OOM hot paths).
func BgLogger() *zap.Logger {
	return globalLogger.Load().(*zap.Logger)
}
