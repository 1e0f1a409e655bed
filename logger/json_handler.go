package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// JsonHandlerWithStdOutput writes json records and optionally echoes a short
// text line to stdout while debugging
type JsonHandlerWithStdOutput struct {
	*slog.JSONHandler
	stdLogger *log.Logger
	stdPrefix string
}

func NewJsonHandlerWithStdOutput(w io.Writer, opts *slog.HandlerOptions, useStdOutput bool) *JsonHandlerWithStdOutput {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	h := &JsonHandlerWithStdOutput{
		JSONHandler: slog.NewJSONHandler(w, opts),
	}
	if useStdOutput {
		h.stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)
	}
	return h
}

func (h *JsonHandlerWithStdOutput) WithAttrs(attrs []slog.Attr) slog.Handler {
	handler := &JsonHandlerWithStdOutput{
		JSONHandler: h.JSONHandler.WithAttrs(attrs).(*slog.JSONHandler),
		stdLogger:   h.stdLogger,
		stdPrefix:   h.stdPrefix,
	}
	if h.stdLogger != nil {
		for _, attr := range attrs {
			handler.stdPrefix += " " + attr.String()
		}
	}
	return handler
}

func (h *JsonHandlerWithStdOutput) WithGroup(name string) slog.Handler {
	return &JsonHandlerWithStdOutput{
		JSONHandler: h.JSONHandler.WithGroup(name).(*slog.JSONHandler),
		stdLogger:   h.stdLogger,
		stdPrefix:   h.stdPrefix,
	}
}

func (h *JsonHandlerWithStdOutput) Handle(ctx context.Context, r slog.Record) error {
	if h.stdLogger != nil {
		h.stdLogger.Output(4, FormatRecord(r, h.stdPrefix))
	}
	return h.JSONHandler.Handle(ctx, r)
}

// FormatRecord renders a record as "[I] message key=value ..."
func FormatRecord(r slog.Record, prefix string) string {
	builder := strings.Builder{}
	builder.WriteString("[")
	builder.WriteString(r.Level.String()[:1])
	builder.WriteString("] ")
	builder.WriteString(r.Message)
	builder.WriteString(prefix)
	r.Attrs(func(attr slog.Attr) bool {
		builder.WriteString(" ")
		builder.WriteString(attr.String())
		return true
	})
	return builder.String()
}

// GetShortFileName keeps the last directory and the file name
func GetShortFileName(file string) string {
	idx := strings.LastIndexByte(file, '/')
	if idx >= 0 {
		idx = strings.LastIndexByte(file[:idx], '/')
		if idx >= 0 {
			return file[idx+1:]
		}
	}
	return file
}
