package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigureWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salescope.log")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-path", path, "--log-max-size", "1"}))

	Configure(fs, false)
	Logger().Info("written to file")
	Logger().Debug("below info level")
	_ = Logger().Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"written to file"`)
	assert.NotContains(t, string(b), "below info level")
	Silence()
}

func TestRotationNeedsPath(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	assert.Nil(t, rotationFrom(nil))
	assert.Nil(t, rotationFrom(fs))

	require.NoError(t, fs.Parse([]string{"--log-path", "a.log", "--log-max-age", "7", "--log-max-backups", "2"}))
	r := rotationFrom(fs)
	require.NotNil(t, r)
	assert.Equal(t, "a.log", r.Filename)
	assert.Equal(t, 100, r.MaxSize)
	assert.Equal(t, 7, r.MaxAge)
	assert.Equal(t, 2, r.MaxBackups)
}

func TestDebugLevels(t *testing.T) {
	Configure(nil, true)
	assert.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
	Configure(nil, false)
	assert.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
	Silence()
	assert.False(t, Logger().Core().Enabled(zapcore.ErrorLevel))
}
