package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Enabled    bool      // Включено ли логирование
	Level      string    // debug, info, warn, error, off
	LogsDir    string    // Директория для логов
	SavingDays uint      // Сколько дней хранить логи
	Output     io.Writer // Куда писать вместо stdout, если задано
}

type Logger struct {
	entry  *logrus.Entry
	closer io.Closer
	prefix string
}

func NewLogger(cfg *Config, prefix string) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{prefix: prefix}

	level := strings.ToLower(cfg.Level)
	if !cfg.Enabled || level == "off" || level == "none" {
		base.SetOutput(io.Discard)
		l.entry = logrus.NewEntry(base).WithField("module", prefix)
		return l
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	base.SetLevel(parsed)

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			file := &lumberjack.Logger{
				Filename:  filepath.Join(cfg.LogsDir, "servo-sweep.log"),
				MaxSize:   50,
				MaxAge:    int(cfg.SavingDays),
				LocalTime: true,
			}
			l.closer = file
			output = io.MultiWriter(output, file)
		}
	}
	base.SetOutput(output)

	l.entry = logrus.NewEntry(base).WithField("module", prefix)
	return l
}

// WithPrefix возвращает логгер подсистемы, разделяющий вывод с родителем.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += "/"
	}
	newPrefix += prefix

	return &Logger{
		entry:  l.entry.WithField("module", newPrefix),
		closer: l.closer,
		prefix: newPrefix,
	}
}

func (l *Logger) with(fields []interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		var val interface{} = "?"
		if i+1 < len(fields) {
			val = fields[i+1]
		}
		data[key] = val
	}
	return l.entry.WithFields(data)
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.with(fields).Debug(msg) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.with(fields).Info(msg) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.with(fields).Warn(msg) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.with(fields).Error(msg) }

func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Nop возвращает логгер, который ничего не пишет.
func Nop() *Logger {
	return NewLogger(&Config{Enabled: false}, "")
}
