// Package config provides configuration helpers for go-aria commands.
package config

import (
	"fmt"
	"os"
)

// Env returns the value of an environment variable.
// Falls back to the provided default if not set.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvRequired returns the value of an environment variable.
// Exits with a usage hint if not set.
func EnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		fmt.Fprintf(os.Stderr, "Usage: %s=... go run ./cmd/aria\n", key)
		os.Exit(1)
	}
	return v
}

// EnvBool returns true when an environment variable is set to a truthy value.
func EnvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
