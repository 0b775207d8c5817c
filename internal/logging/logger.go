package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "APSWITCH_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks APSWITCH_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
//
// Output always goes to stderr; stdout belongs to the TUI and CLI output.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// parseLevel maps a level name to a zap level. Unknown names mean info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogConsoleLine mirrors a controller console line
func LogConsoleLine(line string) {
	Info("console", zap.String("line", line))
}

// LogRequest logs a network request being submitted. The passphrase is
// never passed in; callers hand over the SSID, BSSID and security mode only.
func LogRequest(ssid, bssid, security string, timeoutSeconds float64) {
	Info("Requesting network",
		zap.String("ssid", ssid),
		zap.String("bssid", bssid),
		zap.String("security", security),
		zap.Float64("timeout_s", timeoutSeconds),
	)
}

// LogNetworkEvent logs a lifecycle event from the connectivity service
func LogNetworkEvent(kind, networkID, iface string) {
	Debug("Network event",
		zap.String("event", kind),
		zap.String("network", networkID),
		zap.String("interface", iface),
	)
}

// LogBinding logs a change of the process network binding.
// An empty iface means the binding was cleared.
func LogBinding(iface string, err error) {
	if err != nil {
		Warn("Process binding failed", zap.String("interface", iface), zap.Error(err))
		return
	}
	if iface == "" {
		Info("Process binding cleared")
		return
	}
	Info("Process bound to interface", zap.String("interface", iface))
}

// LogUnregister logs an observer deregistration
func LogUnregister(registration uint64, reason string) {
	Debug("Observer unregistered",
		zap.Uint64("registration", registration),
		zap.String("reason", reason),
	)
}

// LogDBusSignal logs a raw D-Bus signal at debug level
func LogDBusSignal(path, name string, body []interface{}) {
	Debug("D-Bus signal",
		zap.String("path", path),
		zap.String("name", name),
		zap.Any("body", body),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
