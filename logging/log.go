package logging

import (
	"os"
	"strings"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/twarb/block-prover/config"
)

var (
	// Logger instance for quick declarative logging levels
	Logger = logging.MustGetLogger("block-prover")

	format = logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05.000} %{level:.4s} %{shortfile} %{message}`,
	)
)

// InitLogger wires the console and/or rotated file backends described by cfg.
func InitLogger(cfg *config.LogConfig) {
	var backends []logging.Backend
	if cfg.UseFileLogger {
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxFileSizeInMB,
			MaxBackups: cfg.MaxBackupsOfLogFiles,
			MaxAge:     cfg.MaxAgeToRetainLogFilesInDays,
			Compress:   cfg.Compress,
		}
		fileBackend := logging.NewBackendFormatter(logging.NewLogBackend(fileLogger, "", 0), format)
		backends = append(backends, fileBackend)
	}
	if cfg.UseConsoleLogger || len(backends) == 0 {
		consoleBackend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stdout, "", 0), format)
		backends = append(backends, consoleBackend)
	}

	leveled := logging.MultiLogger(backends...)
	leveled.SetLevel(parseLevel(cfg.Level), "")
	logging.SetBackend(leveled)
}

func parseLevel(level string) logging.Level {
	if level == "" {
		return logging.INFO
	}
	l, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return logging.INFO
	}
	return l
}
