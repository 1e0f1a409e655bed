package logger

import (
	"runtime"

	"github.com/fish-tennis/gnet"
)

// printf style logger, caller depth skips this package
var _logger = gnet.NewStdLogger(3)

func Debug(format string, args ...interface{}) {
	_logger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	_logger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	_logger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	_logger.Error(format, args...)
}

// LogStack logs the stack of the current goroutine, used after recover
func LogStack() {
	Error("%v", string(Stack()))
}

// Stack returns the stack of the current goroutine
func Stack() []byte {
	buf := make([]byte, 1<<12)
	return buf[:runtime.Stack(buf, false)]
}
