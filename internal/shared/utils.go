// Package shared
package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

func SafeEnv(env string) (string, error) {
	res, present := os.LookupEnv(env)
	if !present {
		return "", fmt.Errorf("missing environment variable %s", env)
	}
	return res, nil
}

func GetEnv(env, fallback string) string {
	if value, ok := os.LookupEnv(env); ok && value != "" {
		return value
	}
	return fallback
}

func ExtractAPIKey(c echo.Context) (string, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuth
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidFormat
	}
	return parts[1], nil
}

// TrimEndpoint strips trailing slashes so paths can be appended directly
func TrimEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}
