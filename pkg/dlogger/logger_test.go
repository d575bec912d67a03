// Copyright © 2018 One Concern

package dlogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLogger(t *testing.T) {
	for _, level := range Levels() {
		l, err := GetLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, l)
	}

	l := MustGetLogger(LogLevelWarn)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	assert.False(t, MustGetLogger(LogLevelNone).Core().Enabled(zapcore.ErrorLevel))

	_, err := GetLogger("verbose")
	require.Error(t, err)
	assert.Panics(t, func() { _ = MustGetLogger("verbose") })
}
