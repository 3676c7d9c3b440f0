package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

// Init configures the process-wide structured logger. Safe to call more
// than once; the last call wins.
func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)
}

func Info(event string, fields map[string]interface{}) {
	ensure()
	log.Info(event, attrs(fields)...)
}

func Warn(event string, fields map[string]interface{}) {
	ensure()
	log.Warn(event, attrs(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	ensure()
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	log.Error(event, args...)
}

func ensure() {
	if log == nil {
		Init()
	}
}

func attrs(fields map[string]interface{}) []any {
	args := make([]any, 0, len(fields))
	for key, value := range fields {
		args = append(args, slog.Any(key, value))
	}
	return args
}
