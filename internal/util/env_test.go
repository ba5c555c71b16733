package util

import (
	"os"
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric true", "1", false, true},
		{"yes", "yes", false, true},
		{"on with whitespace", " on ", false, true},
		{"false", "false", true, false},
		{"numeric false", "0", true, false},
		{"no uppercase", "NO", true, false},
		{"off", "off", true, false},
		{"garbage uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CHASEFLOW_TEST_BOOL"
			if tt.value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, tt.value)
				defer os.Unsetenv(key)
			}

			if got := ParseBoolEnv(key, tt.def); got != tt.expected {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{"unset uses default", "", 50, 50},
		{"plain integer", "25", 50, 25},
		{"whitespace trimmed", " 7 ", 50, 7},
		{"negative", "-3", 50, -3},
		{"garbage uses default", "many", 50, 50},
		{"float uses default", "1.5", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CHASEFLOW_TEST_INT"
			if tt.value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, tt.value)
				defer os.Unsetenv(key)
			}

			if got := ParseIntEnv(key, tt.def); got != tt.expected {
				t.Errorf("ParseIntEnv(%q, %d) = %d, want %d", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"unset uses default", "", 30 * time.Second, 30 * time.Second},
		{"seconds", "45s", 30 * time.Second, 45 * time.Second},
		{"minutes", "2m", 30 * time.Second, 2 * time.Minute},
		{"compound", "1h30m", 30 * time.Second, 90 * time.Minute},
		{"bare number uses default", "30", time.Minute, time.Minute},
		{"garbage uses default", "soon", time.Minute, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "CHASEFLOW_TEST_DURATION"
			if tt.value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, tt.value)
				defer os.Unsetenv(key)
			}

			if got := ParseDurationEnv(key, tt.def); got != tt.expected {
				t.Errorf("ParseDurationEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}
