package oplog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gookit/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ─── Console ─────────────────────────────────────────────────────────────────

var (
	colInfo    = color.Info
	colSuccess = color.Success
	colError   = color.Error
	colStamp   = color.FgDarkGray
)

// ConsoleSink prints coloured lines to a terminal.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink writes to w, or stdout when w is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

// Emit implements Sink.
func (c *ConsoleSink) Emit(l Line) {
	style := colInfo
	switch l.Severity {
	case Success:
		style = colSuccess
	case Error:
		style = colError
	}
	color.Fprintln(c.w, colStamp.Sprintf("[%s]", l.Time.Format(TimeFormat)), style.Sprint(l.Message))
}

// ─── File ────────────────────────────────────────────────────────────────────

// FileSink appends lines to a size-rotated log file.
type FileSink struct {
	logger *zap.Logger
	out    *lumberjack.Logger
}

// NewFileSink opens path for appending. maxSizeMB is the rotation threshold.
func NewFileSink(path string, maxSizeMB int) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if maxSizeMB < 1 {
		maxSizeMB = 1
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     30,
		LocalTime:  true,
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "T",
		LevelKey:    "L",
		MessageKey:  "M",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Local().Format(TimeFormat))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(out), zapcore.InfoLevel)

	return &FileSink{logger: zap.New(core), out: out}, nil
}

// Emit implements Sink.
func (f *FileSink) Emit(l Line) {
	ce := f.logger.Check(levelOf(l.Severity), l.Message)
	if ce == nil {
		return
	}
	ce.Time = l.Time
	fields := []zap.Field{zap.String("tag", l.Severity.String())}
	if l.Run != "" {
		fields = append(fields, zap.String("run", l.Run))
	}
	ce.Write(fields...)
}

// Close flushes and closes the file.
func (f *FileSink) Close() error {
	_ = f.logger.Sync()
	return f.out.Close()
}

func levelOf(s Severity) zapcore.Level {
	if s == Error {
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
