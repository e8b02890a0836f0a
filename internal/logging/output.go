package logging

import (
	"fmt"
	"log"
	"os"
	"time"
)

// writeLog is the unified internal logging function that handles all output.
// DEBUG/INFO/WARN go to stdout, ERROR/FATAL go to stderr.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	timestamp := fmt.Sprintf("[%s]", GetTimestamp())
	logMsg := fmt.Sprintf("%s [%s] %s: %s", timestamp, level, l.name, msg)

	if len(fields) > 0 {
		logMsg += " |"
		for k, v := range fields {
			logMsg += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	if level == strError || level == levelFatal {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}
}

// logf is the internal logging function for formatted messages
func (l *Logger) logf(level, msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)

	var fields map[string]interface{}
	if len(l.fields) > 0 {
		fields = cloneFields(l.fields)
	}

	l.writeLog(level, formattedMsg, fields)
}

// GetTimestamp returns a formatted timestamp.
// Uses RFC3339 for sortability and timezone awareness.
// Can be overridden via LOG_TIMESTAMP env var for deterministic test output.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
