// Package logger provides the daemon's structured logging, built on
// uber-go/zap. Development runs get colorized console output; production
// runs get JSON with optional lumberjack file rotation.
package logger

import (
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	once   sync.Once
	sugar  *zap.SugaredLogger
)

// InitLogger initializes the global logger from environment variables:
//
//   - ENV: development (default) or production
//   - LOG_LEVEL: debug/info/warn/error/fatal, defaulted per environment
//   - LOG_FILE, LOG_MAX_SIZE, LOG_MAX_BACKUPS, LOG_MAX_AGE, LOG_COMPRESS:
//     production file rotation, only consulted when ENV=production
func InitLogger() error {
	var initErr error
	once.Do(func() {
		env := getEnv("ENV", "development")

		if env == "production" {
			logger, initErr = initProductionLogger()
		} else {
			logger, initErr = initDevelopmentLogger()
		}

		if initErr != nil {
			return
		}

		sugar = logger.Sugar()
	})

	return initErr
}

func initDevelopmentLogger() (*zap.Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := getEnv("LOG_LEVEL", "debug")
	atomicLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		atomicLevel = zapcore.DebugLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(atomicLevel),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build(zap.AddCallerSkip(0))
}

func initProductionLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := getEnv("LOG_LEVEL", "info")
	atomicLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		atomicLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(atomicLevel)

	logFile := getEnv("LOG_FILE", "")
	if logFile != "" {
		rotateWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 7),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		}

		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(config.EncoderConfig),
			zapcore.AddSync(rotateWriter),
			config.Level,
		)

		return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(os.Stdout),
		config.Level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// GetLogger returns the global logger, initializing it in development mode
// if InitLogger was never called explicitly.
func GetLogger() *zap.Logger {
	if logger == nil {
		_ = InitLogger()
	}
	return logger
}

// GetSugaredLogger returns the global sugared logger.
func GetSugaredLogger() *zap.SugaredLogger {
	if sugar == nil {
		_ = InitLogger()
	}
	return sugar
}

// Sync flushes the logger's buffers. Call before process exit.
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { GetLogger().Fatal(msg, fields...) }

// With returns a child logger carrying the given fields on every entry.
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	switch valueStr {
	case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
		return true
	case "false", "0", "no", "False", "FALSE", "No", "NO":
		return false
	default:
		return defaultValue
	}
}
