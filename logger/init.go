package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config of the rotated log file
type Config struct {
	Dir   string `yaml:"Dir" env:"DIR"`
	Name  string `yaml:"Name" env:"NAME"`
	Level string `yaml:"Level" env:"LEVEL"`
	// echo records to stdout
	StdOutput  bool `yaml:"StdOutput" env:"STD_OUTPUT"`
	MaxSize    int  `yaml:"MaxSize" env:"MAX_SIZE"` // megabytes
	MaxBackups int  `yaml:"MaxBackups" env:"MAX_BACKUPS"`
	MaxAge     int  `yaml:"MaxAge" env:"MAX_AGE"` // days
	Compress   bool `yaml:"Compress" env:"COMPRESS"`
}

// ParseLevel maps debug/info/warn/error to slog levels, default info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal", "critical":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// InitLog installs the default slog logger, writing json records to a
// rotated file. The returned closer closes the file.
func InitLog(config Config) (io.Closer, error) {
	dir := config.Dir
	if dir == "" {
		dir = "log"
	}
	name := config.Name
	if name == "" {
		name = "neonhost"
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("%v.log", name)),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
	level := &slog.LevelVar{}
	level.Set(ParseLevel(config.Level))
	slog.SetDefault(slog.New(NewJsonHandlerWithStdOutput(fileLogger, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.Function = ""
					source.File = GetShortFileName(source.File)
				}
			}
			return a
		},
	}, config.StdOutput)))
	return fileLogger, nil
}
