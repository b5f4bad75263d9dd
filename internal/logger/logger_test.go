package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitReleaseWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Init(&buf, "warn", gin.ReleaseMode)
	t.Cleanup(func() { Init(&bytes.Buffer{}, "info", gin.TestMode) })

	require.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.Info("hidden")
	require.Zero(t, buf.Len())

	l.WithField("order", "ABC").Warn("visible")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "visible", entry["msg"])
	require.Equal(t, "ABC", entry["order"])
}

func TestInitDebugMode(t *testing.T) {
	var buf bytes.Buffer
	l := Init(&buf, "error", gin.DebugMode)
	t.Cleanup(func() { Init(&bytes.Buffer{}, "info", gin.TestMode) })

	require.Equal(t, logrus.DebugLevel, l.GetLevel())
	l.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	l := Init(&bytes.Buffer{}, "loud", gin.ReleaseMode)
	t.Cleanup(func() { Init(&bytes.Buffer{}, "info", gin.TestMode) })
	require.Equal(t, logrus.InfoLevel, l.GetLevel())
}
