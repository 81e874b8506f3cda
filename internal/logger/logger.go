package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"tg-bounceguard/internal/config"
)

// log levels in increasing severity
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var (
	mu       sync.Mutex
	level    = LevelInfo
	out      io.Writer = os.Stdout
	stdLog   *log.Logger
	initOnce sync.Once
)

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "tg-bounceguard")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)
	multiWriter := io.MultiWriter(os.Stdout, rotatingLogger)

	mu.Lock()
	out = multiWriter
	level = parseLevel(cfg.Logger.Level)
	stdLog = log.New(multiWriter, "", log.Ldate|log.Ltime)
	mu.Unlock()

	// Route the standard logger through the same writer
	log.SetOutput(multiWriter)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	Infof("Logging initialized: writing to %s", logFilePath)
	return nil
}

func parseLevel(name string) int {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func logger() *log.Logger {
	initOnce.Do(func() {
		mu.Lock()
		if stdLog == nil {
			stdLog = log.New(out, "", log.Ldate|log.Ltime)
		}
		mu.Unlock()
	})
	return stdLog
}

func output(msgLevel int, tag, format string, args ...interface{}) {
	mu.Lock()
	current := level
	mu.Unlock()
	if msgLevel < current {
		return
	}
	logger().Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

// Debugf logs a debug-level message
func Debugf(format string, args ...interface{}) {
	output(LevelDebug, "DEBUG", format, args...)
}

// Infof logs an info-level message
func Infof(format string, args ...interface{}) {
	output(LevelInfo, "INFO", format, args...)
}

// Warningf logs a warning-level message
func Warningf(format string, args ...interface{}) {
	output(LevelWarning, "WARNING", format, args...)
}

// Errorf logs an error-level message
func Errorf(format string, args ...interface{}) {
	output(LevelError, "ERROR", format, args...)
}

// Error logs an error-level message without formatting
func Error(args ...interface{}) {
	output(LevelError, "ERROR", "%s", fmt.Sprint(args...))
}

// Fatalf logs a fatal message and exits
func Fatalf(format string, args ...interface{}) {
	output(LevelFatal, "FATAL", format, args...)
	os.Exit(1)
}
