package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"visionserver/internal/config"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields are structured key/value pairs attached to an entry.
type Fields = logrus.Fields

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	infoLog    *logrus.Logger
	warningLog *logrus.Logger
	errorLog   *logrus.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
	}

	logger.setupLoggers()
	return logger
}

// setupLoggers initializes rotating writers and per-level loggers.
func (l *Logger) setupLoggers() {
	l.infoLog = l.newLevelLogger(os.Stdout, "info.log", logrus.InfoLevel)
	l.warningLog = l.newLevelLogger(os.Stdout, "warning.log", logrus.WarnLevel)
	l.errorLog = l.newLevelLogger(os.Stderr, "error.log", logrus.ErrorLevel)
}

func (l *Logger) newLevelLogger(console io.Writer, fileName string, level logrus.Level) *logrus.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, fileName),
		LocalTime:  true,
		MaxSize:    20,
		MaxAge:     7,
		MaxBackups: 3,
	}

	lg := logrus.New()
	lg.SetLevel(level)
	lg.SetOutput(io.MultiWriter(console, file))
	lg.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
	})
	return lg
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Errorf(format, v...)
}

// InfoFields writes an info entry with structured fields.
func (l *Logger) InfoFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.WithFields(fields).Info(msg)
}

// WarningFields writes a warning entry with structured fields.
func (l *Logger) WarningFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.WithFields(fields).Warn(msg)
}

// ErrorFields writes an error entry with structured fields.
func (l *Logger) ErrorFields(fields Fields, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.WithFields(fields).Error(msg)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	filePath := filepath.Join(l.logDir, filepath.Base(fileName))
	if err := os.Truncate(filePath, 0); err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}

	l.Info("File %s has been cleared.", fileName)
	return nil
}

// Directory returns the directory holding the log files.
func (l *Logger) Directory() string {
	return l.logDir
}
