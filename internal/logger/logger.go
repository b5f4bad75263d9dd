package logger

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger used across the service.
// Release mode logs JSON at the configured level; anything else gets text at debug.
func Init(output io.Writer, level, mode string) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(output)

	if mode != gin.ReleaseMode {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return l
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(new(logrus.JSONFormatter))
	return l
}
