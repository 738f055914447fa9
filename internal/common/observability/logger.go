package observability

import (
	"fmt"
	"os"
	"sync/atomic"

	"floorplan/internal/common/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ============================================================
// Logger
// ============================================================

var globalLogger atomic.Pointer[zap.Logger]

// NewLogger собирает zap логгер: консоль всегда, JSON файл с ротацией если задан LogFile.
func NewLogger(cfg config.LoggerConfig) *zap.Logger {
	return NewLoggerTo(cfg, zapcore.Lock(os.Stdout))
}

// NewLoggerTo - как NewLogger, но консольный вывод идёт в out (CLI пишет в stderr).
func NewLoggerTo(cfg config.LoggerConfig, out zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), out, level),
	}

	if cfg.LogFile != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder("json"), writer, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	if cfg.ServiceName != "" {
		logger = logger.Named(cfg.ServiceName)
	}
	return logger
}

// Init создаёт логгер сервиса и делает его глобальным, включая стандартный log.
func Init(cfg config.LoggerConfig) *zap.Logger {
	logger := NewLogger(cfg)
	globalLogger.Store(logger)
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)
	return logger
}

// L возвращает глобальный логгер или no-op, если Init не вызывался.
func L() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

// Sync сбрасывает буферы логгера при завершении.
func Sync() {
	if logger := globalLogger.Load(); logger != nil {
		if err := logger.Sync(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to sync logger:", err)
		}
	}
}

func encoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}
