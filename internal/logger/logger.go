package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// File, when set, receives a rotated copy of every line.
	File string
}

type Logger struct {
	l *zap.SugaredLogger
}

func New(conf Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if conf.Level != "" {
		if err := level.Set(conf.Level); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", conf.Level, err)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}

	if conf.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    10, //nolint:gomnd // megabytes
			MaxBackups: 3,  //nolint:gomnd
			MaxAge:     28, //nolint:gomnd // days
		}))
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.NewMultiWriteSyncer(sinks...), level)

	return &Logger{l: zap.New(core).Sugar()}, nil
}

// NewWriter logs to w only; used by tests that inspect output.
func NewWriter(w io.Writer) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), zapcore.DebugLevel)

	return &Logger{l: zap.New(core).Sugar()}
}

func NewNop() *Logger {
	return &Logger{l: zap.NewNop().Sugar()}
}

func (l *Logger) LogErrorf(format string, v ...any) {
	l.l.Errorf(format, v...)
}

func (l *Logger) LogInfo(format string, v ...any) {
	l.l.Infof(format, v...)
}

func (l *Logger) LogDebugf(format string, v ...any) {
	l.l.Debugf(format, v...)
}

// StdLog adapts the logger for http.Server.ErrorLog.
func (l *Logger) StdLog() *log.Logger {
	return zap.NewStdLog(l.l.Desugar())
}

func (l *Logger) Sync() error {
	return l.l.Sync() //nolint:wrapcheck
}
