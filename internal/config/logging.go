package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogging configures the global logrus logger from the loaded config.
// Output goes to the configured log file when one is set, otherwise stderr.
// A file that cannot be opened is reported and logging falls back to stderr
// instead of aborting the run.
func InitLogging(cfg *Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.WithError(err).Warn("failed to open log file, using stderr")
			return
		}
		logrus.SetOutput(file)
	}
}
