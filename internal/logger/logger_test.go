package logger

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resetOnce() {
	once = sync.Once{} //nolint:all
}

func TestInitLogger(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	t.Run("development", func(t *testing.T) {
		os.Setenv("ENV", "development")
		defer os.Unsetenv("ENV")

		err := InitLogger()
		require.NoError(t, err)

		assert.NotNil(t, logger)
		assert.NotNil(t, sugar)
	})

	t.Run("production", func(t *testing.T) {
		resetOnce()
		logger = nil
		sugar = nil

		os.Setenv("ENV", "production")
		defer os.Unsetenv("ENV")

		err := InitLogger()
		require.NoError(t, err)

		assert.NotNil(t, logger)
		assert.NotNil(t, sugar)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetOnce()
		logger = nil
		sugar = nil

		os.Setenv("ENV", "development")
		defer os.Unsetenv("ENV")

		require.NoError(t, InitLogger())
		first := logger

		require.NoError(t, InitLogger())
		assert.Equal(t, first, logger)
	})
}

func TestGetLogger(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "development")
	defer os.Unsetenv("ENV")

	assert.NotNil(t, GetLogger())
}

func TestGetSugaredLogger(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "development")
	defer os.Unsetenv("ENV")

	assert.NotNil(t, GetSugaredLogger())
}

func TestConvenienceFunctions(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "development")
	defer os.Unsetenv("ENV")

	require.NoError(t, InitLogger())

	assert.NotPanics(t, func() { Debug("debug", zap.String("k", "v")) })
	assert.NotPanics(t, func() { Info("info", zap.String("k", "v")) })
	assert.NotPanics(t, func() { Warn("warn", zap.String("k", "v")) })
	assert.NotPanics(t, func() { Error("error", zap.String("k", "v")) })
}

func TestWith(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "development")
	defer os.Unsetenv("ENV")

	require.NoError(t, InitLogger())

	l := With(zap.String("service", "contextfusiond"), zap.String("version", "1.0.0"))
	assert.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info("message with fields") })
}

func TestSync(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "development")
	defer os.Unsetenv("ENV")

	require.NoError(t, InitLogger())
	Info("message before sync")

	if err := Sync(); err != nil {
		t.Logf("sync returned error (expected on some stdout fds): %v", err)
	}
}

func TestProductionLoggerWithRotation(t *testing.T) {
	resetOnce()
	logger = nil
	sugar = nil

	os.Setenv("ENV", "production")
	os.Setenv("LOG_FILE", "/tmp/contextfusiond_test.log")
	os.Setenv("LOG_MAX_SIZE", "10")
	os.Setenv("LOG_MAX_BACKUPS", "5")
	os.Setenv("LOG_MAX_AGE", "30")
	os.Setenv("LOG_COMPRESS", "true")
	defer func() {
		os.Unsetenv("ENV")
		os.Unsetenv("LOG_FILE")
		os.Unsetenv("LOG_MAX_SIZE")
		os.Unsetenv("LOG_MAX_BACKUPS")
		os.Unsetenv("LOG_MAX_AGE")
		os.Unsetenv("LOG_COMPRESS")
		_ = os.Remove("/tmp/contextfusiond_test.log")
	}()

	require.NoError(t, InitLogger())
	assert.NotNil(t, logger)
	Info("rotation test", zap.String("test", "rotation"))
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"valid", "100", 10, 100},
		{"invalid", "invalid", 10, 10},
		{"empty", "", 10, 10},
		{"negative", "-5", 10, -5},
		{"zero", "0", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			}
			assert.Equal(t, tt.expected, getEnvInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"yes", "yes", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
		{"no", "no", true, false},
		{"empty", "", true, true},
		{"invalid", "invalid", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			}
			assert.Equal(t, tt.expected, getEnvBool("TEST_BOOL", tt.defaultValue))
		})
	}
}
