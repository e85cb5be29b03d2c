package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relloyd/salespipe/constants"
)

// ReadValueFromEnvWithDefault will read the value of name from the environment.
// If it's not set then it will return the supplied defaultValue.
func ReadValueFromEnvWithDefault(name string, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

// ReadIntFromEnvWithDefault is ReadValueFromEnvWithDefault for integers.
// An error is returned if the variable is set but is not a number.
func ReadIntFromEnvWithDefault(name string, defaultValue int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %v must be a number: %w", name, err)
	}
	return i, nil
}

// GetEnvVarName converts name into an environment variable using EnvVarPrefix and the name converted to upper
// with dashes converted to underscores all separated by underscores.
func GetEnvVarName(name string) string {
	n := strings.ReplaceAll(strings.TrimSpace(strings.ToUpper(name)), "-", "_")
	return fmt.Sprintf("%v_%v", constants.EnvVarPrefix, n)
}

func GetDsnEnvVarName(connectionName string) string {
	return GetEnvVarName(connectionName + "_DSN")
}
