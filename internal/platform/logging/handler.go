package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// 模块标签颜色
var tagColors = map[string]string{
	"[引导]":   "\x1b[96m",
	"[HTTP]": "\x1b[95m",
	"[提交]":   "\x1b[94m",
	"[审核]":   "\x1b[35m",
	"[限流]":   "\x1b[33m",
	"[验证]":   "\x1b[92m",
	"[存储]":   "\x1b[97m",
}

// textHandler 自定义文本处理器，支持彩色输出
type textHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var b strings.Builder
	if color, ok := moduleColor(r.Message); ok {
		fmt.Fprintf(&b, "%s[%s]%s %s%s%s", colorTime, timeStr, colorReset, color, r.Message, colorReset)
	} else {
		levelColor, levelStr := levelStyle(r.Level)
		fmt.Fprintf(&b, "%s[%s]%s %s[%s]%s %s", colorTime, timeStr, colorReset, levelColor, levelStr, colorReset, r.Message)
	}

	if r.NumAttrs() > 0 {
		b.WriteString(" {")
		r.Attrs(func(a slog.Attr) bool {
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
			return true
		})
		b.WriteString(" }")
	}
	b.WriteString("\n")

	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *textHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *textHandler) WithGroup(string) slog.Handler      { return h }

func moduleColor(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", false
	}
	end := strings.Index(msg, "]")
	if end < 0 {
		return "", false
	}
	color, ok := tagColors[msg[:end+1]]
	return color, ok
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level >= slog.LevelError:
		return colorError, "错误"
	case level >= slog.LevelWarn:
		return colorWarn, "警告"
	case level >= slog.LevelInfo:
		return colorInfo, "信息"
	default:
		return colorDebug, "调试"
	}
}
