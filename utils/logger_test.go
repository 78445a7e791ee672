package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestApplyLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{"configured level", "info", logrus.InfoLevel},
		{"empty keeps default", "", logrus.DebugLevel},
		{"unknown keeps default", "chatty", logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := InitLogger()
			logger.ApplyLevel(tt.level)
			require.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
