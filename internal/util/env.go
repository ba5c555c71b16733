// Package util provides identifier generation and environment parsing
// helpers shared across the chase engine.
package util

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupEnv returns the trimmed value of key and whether it was non-empty.
func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

// ParseBoolEnv reads a boolean environment variable. It accepts true/1/yes/on
// and false/0/no/off, case-insensitive; empty or unrecognized values return
// the default.
func ParseBoolEnv(key string, defaultValue bool) bool {
	val, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: invalid boolean value, using default", "key", key, "value", val, "default", defaultValue)
	return defaultValue
}

// ParseIntEnv reads an integer environment variable; empty or unparseable
// values return the default.
func ParseIntEnv(key string, defaultValue int) int {
	val, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("ParseIntEnv: invalid integer value, using default", "key", key, "value", val, "default", defaultValue)
		return defaultValue
	}
	return n
}

// ParseDurationEnv reads a duration environment variable in Go duration
// syntax ("30s", "5m"); empty or unparseable values return the default.
func ParseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	val, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("ParseDurationEnv: invalid duration value, using default", "key", key, "value", val, "default", defaultValue)
		return defaultValue
	}
	return d
}
