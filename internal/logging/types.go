package logging

import (
	"fmt"
	"strings"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal messages
	FATAL
)

const (
	strError   = "ERROR"
	levelFatal = "FATAL"
)

// LogField represents a structured logging field
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging throughout the application
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

// packageLogLevels stores per-package log level overrides.
// Key format: "package.name" or "pattern.*" for wildcard matching.
var (
	packageLogLevels = make(map[string]LogLevel)
	packageLogMutex  sync.RWMutex
)

// SetPackageLogLevels configures per-package log levels.
// Supports patterns like "detect.*" to match "detect.ewma", "detect.geo", etc.
// Returns error if level names are invalid.
func SetPackageLogLevels(levels map[string]string) error {
	if levels == nil {
		return nil
	}

	packageLogMutex.Lock()
	defer packageLogMutex.Unlock()

	packageLogLevels = make(map[string]LogLevel)

	for pkg, levelStr := range levels {
		level, err := parseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("invalid log level for package %q: %w", pkg, err)
		}
		packageLogLevels[pkg] = level
	}

	return nil
}

// GetPackageLogLevel returns the effective log level for a package name.
// Searches in order: exact match, wildcard patterns (most specific first).
// Returns -1 if no override is configured.
func GetPackageLogLevel(packageName string) LogLevel {
	packageLogMutex.RLock()
	defer packageLogMutex.RUnlock()

	if level, exists := packageLogLevels[packageName]; exists {
		return level
	}

	// Longest matching pattern is the most specific one
	bestPattern := ""
	for pattern := range packageLogLevels {
		if matchesPattern(packageName, pattern) && len(pattern) > len(bestPattern) {
			bestPattern = pattern
		}
	}

	if bestPattern != "" {
		return packageLogLevels[bestPattern]
	}

	return LogLevel(-1)
}

// matchesPattern returns true if packageName matches the pattern.
// Supports wildcard patterns like "detect.*".
func matchesPattern(packageName, pattern string) bool {
	if packageName == pattern {
		return true
	}

	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(packageName, prefix+".")
	}

	return false
}

func newInvalidLevelError(levelStr string) error {
	return fmt.Errorf("invalid level: %s (must be DEBUG, INFO, WARN, ERROR, or FATAL)", levelStr)
}
