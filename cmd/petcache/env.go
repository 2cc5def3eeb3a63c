package main

import "strings"

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the environment variable as a boolean or a default.
// Accepts "true", "1", "yes", "on" (case-insensitive) as true values.
func getEnvBool(getenv func(string) string, key string, defaultValue bool) bool {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
