// Package logger provides the process-wide logger every component
// writes through: a DEBUG/INFO/WARN/ERROR level-filtered sink that
// always writes to a log file and additionally echoes WARN and above
// (plus explicit Console and Printf calls) to the console, matching spec.md §4.K's "quiet by default, loud on
// trouble" requirement.
//
// Adapted from the teacher's internal/logger/logger.go, which drove
// the same dual-sink shape over two stdlib *log.Logger instances; this
// keeps that public API but backs it with go.uber.org/zap, since the
// corpus (the teacher's own go.mod) already depends on zap for
// structured logging and a hand-rolled formatter duplicates it.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level lists supported log severities.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger writes every record to a file, and WARN+ additionally to the
// console.
type Logger struct {
	mu          sync.Mutex
	file        *zap.SugaredLogger
	console     *zap.SugaredLogger
	level       Level
	logFile     *os.File
	logFilePath string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init creates the global logger. logFilePrefix names the log file
// under logDir (e.g. "rudis-server"), defaulting to "rudis" if empty.
func Init(logDir string, level Level, logFilePrefix string) error {
	var initErr error
	once.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			initErr = err
			return
		}

		if logFilePrefix == "" {
			logFilePrefix = "rudis"
		}
		logFilePath := filepath.Join(logDir, logFilePrefix+".log")

		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = err
			return
		}

		enc := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
		fileCore := zapcore.NewCore(enc, zapcore.AddSync(logFile), zap.NewAtomicLevelAt(level.zapLevel()))
		consoleCore := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(zapcore.InfoLevel))

		defaultLogger = &Logger{
			file:        zap.New(fileCore).Sugar(),
			console:     zap.New(consoleCore).Sugar(),
			level:       level,
			logFile:     logFile,
			logFilePath: logFilePath,
		}
	})
	return initErr
}

// Close shuts down the log file.
func Close() error {
	if defaultLogger != nil && defaultLogger.logFile != nil {
		defaultLogger.file.Sync()
		return defaultLogger.logFile.Close()
	}
	return nil
}

// GetLogFilePath returns the backing log file path.
func GetLogFilePath() string {
	if defaultLogger != nil {
		return defaultLogger.logFilePath
	}
	return ""
}

func logToFile(level Level, format string, args ...any) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	switch level {
	case DEBUG:
		defaultLogger.file.Debugf(format, args...)
	case WARN:
		defaultLogger.file.Warnf(format, args...)
	case ERROR:
		defaultLogger.file.Errorf(format, args...)
	default:
		defaultLogger.file.Infof(format, args...)
	}
}

func logToConsole(level Level, format string, args ...any) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	switch level {
	case WARN:
		defaultLogger.console.Warnf(format, args...)
	case ERROR:
		defaultLogger.console.Errorf(format, args...)
	default:
		defaultLogger.console.Infof(format, args...)
	}
}

func logToBoth(level Level, format string, args ...any) {
	logToFile(level, format, args...)
	logToConsole(level, format, args...)
}

// Debug logs debug messages (file only).
func Debug(format string, args ...any) { logToFile(DEBUG, format, args...) }

// Info logs info messages (file only).
func Info(format string, args ...any) { logToFile(INFO, format, args...) }

// Warn logs warnings (file + console).
func Warn(format string, args ...any) { logToBoth(WARN, format, args...) }

// Error logs errors (file + console).
func Error(format string, args ...any) { logToBoth(ERROR, format, args...) }

// Printf mimics log.Printf (file + console, info level), satisfying
// internal/server.Logger.
func Printf(format string, args ...any) { logToBoth(INFO, format, args...) }

// Console prints a startup/shutdown milestone to both sinks.
func Console(format string, args ...any) { logToBoth(INFO, format, args...) }
