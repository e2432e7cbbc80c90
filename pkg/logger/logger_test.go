package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelByEnv(t *testing.T) {
	assert.True(t, New("dev").Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("prod").Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, Nop().Desugar().Core().Enabled(zapcore.ErrorLevel))
}
