package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// InitLogger builds the bot-wide logger. The level can be lowered later
// via ApplyLevel once the config is loaded.
func InitLogger() *Logger {
	logger := logrus.New()

	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.DebugLevel)

	return &Logger{logger}
}

// ApplyLevel sets the log level from its config string; unknown or
// empty values keep the debug default.
func (l *Logger) ApplyLevel(level string) {
	if level == "" {
		return
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		l.Warnf("Unknown log level %q, keeping %s", level, l.GetLevel())
		return
	}
	l.SetLevel(parsed)
}
