package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
	// Console receives the colored text output; defaults to os.Stdout.
	Console io.Writer
}

// Logger writes JSON lines to an optional file and colored text to the console.
type Logger struct {
	level      slog.Level
	jsonLogger *slog.Logger // 文件JSON输出
	textLogger *slog.Logger // 控制台文本输出
	logFile    *os.File
	mu         sync.RWMutex
}

// New creates a Logger. An empty Dir disables the JSON file sink.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		level:      level,
		textLogger: slog.New(&textHandler{writer: console, level: level}),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		name := cfg.Filename
		if name == "" {
			name = "tryon-client.log"
		}
		file, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		l.logFile = file
		l.jsonLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}
	return l, nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	l, _ := New(Config{Level: "error", Console: io.Discard})
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close releases the file sink.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		err := l.logFile.Close()
		l.logFile = nil
		l.jsonLogger = nil
		return err
	}
	return nil
}

func (l *Logger) log(level slog.Level, msg string, args ...interface{}) {
	if l == nil {
		return
	}
	var attrs []slog.Attr
	if len(args) > 0 && strings.Contains(msg, "%") {
		msg = fmt.Sprintf(msg, args...)
	} else if len(args) > 0 && args[0] != nil {
		if fields, ok := args[0].(map[string]interface{}); ok {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				attrs = append(attrs, slog.Any(k, fields[k]))
			}
		} else {
			attrs = append(attrs, slog.Any("fields", args[0]))
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	ctx := context.Background()
	if l.jsonLogger != nil {
		l.jsonLogger.LogAttrs(ctx, level, msg, attrs...)
	}
	l.textLogger.LogAttrs(ctx, level, msg, attrs...)
}

// FormatLog 构造带分类标签的日志消息，例如 FormatLog("提交", "完成") -> "[提交] 完成"
func FormatLog(tag, message string) string {
	tag = strings.TrimSpace(tag)
	message = strings.TrimSpace(message)
	if tag == "" || strings.HasPrefix(message, "[") {
		return message
	}
	return fmt.Sprintf("[%s] %s", tag, message)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) DebugTag(tag, msg string, args ...interface{}) { l.Debug(FormatLog(tag, msg), args...) }
func (l *Logger) InfoTag(tag, msg string, args ...interface{})  { l.Info(FormatLog(tag, msg), args...) }
func (l *Logger) WarnTag(tag, msg string, args ...interface{})  { l.Warn(FormatLog(tag, msg), args...) }
func (l *Logger) ErrorTag(tag, msg string, args ...interface{}) { l.Error(FormatLog(tag, msg), args...) }

// Slog exposes the console slog logger for structured integrations.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return nil
	}
	return l.textLogger
}
