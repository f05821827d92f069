package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu     sync.RWMutex
	global = &Logger{z: zap.NewNop()}
)

// Logger: обёртка над zap, которая дописывает request_id из контекста
type Logger struct {
	z *zap.Logger
}

// Init настраивает глобальный логгер. До вызова Init пишется в никуда.
func Init(level string, asJSON bool) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return fmt.Errorf("logger.Init: level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if asJSON {
		cfg.Encoding = "json"
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("logger.Init: build: %w", err)
	}

	SetLogger(z)
	return nil
}

// SetLogger подменяет глобальный логгер (тесты, zaptest/observer)
func SetLogger(z *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = &Logger{z: z}
}

func L() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Sync() error { return L().z.Sync() }

// WithRequestID кладёт идентификатор запроса в контекст
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func With(fields ...Field) *Logger { return L().With(fields...) }

// Пакетные функции зовут zap напрямую: до zap ровно один кадр, как у методов Logger (AddCallerSkip(1)).

func Debug(ctx context.Context, msg string, fields ...Field) {
	l := L()
	l.z.Debug(msg, l.withCtx(ctx, fields)...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	l := L()
	l.z.Info(msg, l.withCtx(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	l := L()
	l.z.Warn(msg, l.withCtx(ctx, fields)...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	l := L()
	l.z.Error(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Enabled: пишется ли уровень lvl
func (l *Logger) Enabled(lvl zapcore.Level) bool {
	return l.z.Core().Enabled(lvl)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.z.Info(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.z.Error(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, l.withCtx(ctx, fields)...)
}

func (l *Logger) withCtx(ctx context.Context, fields []Field) []Field {
	if id := RequestID(ctx); id != "" {
		return append(fields, zap.String("request_id", id))
	}
	return fields
}
