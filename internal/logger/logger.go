/**
 * @description
 * Structured logger for the GroceryScout backend.
 * Keeps the printf-style helpers used across the codebase, backed by logrus.
 * Info messages go to stdout and errors to stderr so log shippers classify them correctly.
 *
 * @dependencies
 * - github.com/sirupsen/logrus
 */

package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	// InfoLogger writes to stdout
	InfoLogger = logrus.New()
	// ErrorLogger writes to stderr (for actual errors)
	ErrorLogger = logrus.New()
)

func init() {
	InfoLogger.SetOutput(os.Stdout)
	ErrorLogger.SetOutput(os.Stderr)
	Configure(os.Getenv("GO_ENV"))
}

// Configure switches formatters for the environment: readable text in development,
// JSON everywhere else.
func Configure(env string) {
	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if env == "" || env == "development" {
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	InfoLogger.SetFormatter(formatter)
	ErrorLogger.SetFormatter(formatter)
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	InfoLogger.Info(fmt.Sprintf(format, v...))
}

// Warn logs a degraded-but-working condition to stdout
func Warn(format string, v ...interface{}) {
	InfoLogger.Warn(fmt.Sprintf(format, v...))
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	ErrorLogger.Error(fmt.Sprintf(format, v...))
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	ErrorLogger.Fatal(fmt.Sprintf(format, v...))
}

// WithFields returns an entry carrying structured context, logged to stdout.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return InfoLogger.WithFields(logrus.Fields(fields))
}

// New creates a new logger that writes to the specified writer
func New(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}
