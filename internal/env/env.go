// Package env loads process environment variables for Stocker programs.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// LoadEnvironmentVariables loads the .env file if there is one.
//
// A missing file is not an error, as the variables may come from the
// process environment instead. A malformed file crashes the program.
func LoadEnvironmentVariables() {
	if err := godotenv.Load(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(".env file not found, using the process environment")

			return
		}

		log.Fatalf(".env error: %s", err)
	}
}

// Get returns the value of an environment variable or a default value.
func Get(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	return defaultValue
}

// GetInt returns an environment variable as an int or a default value.
func GetInt(key string, defaultValue int) int {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)

	if err != nil {
		log.Warnf("Error converting environment variable %s to int: %v", key, err)

		return defaultValue
	}

	return intValue
}

// GetBool returns an environment variable as a bool or a default value.
func GetBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)

	if err != nil {
		log.Warnf("Error converting environment variable %s to bool: %v", key, err)

		return defaultValue
	}

	return boolValue
}

// GetDuration returns an environment variable as a time.Duration or a default value.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)

	if err != nil {
		log.Warnf("Error converting environment variable %s to duration: %v", key, err)

		return defaultValue
	}

	return duration
}
