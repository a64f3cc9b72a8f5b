package testdb

import (
	"net/url"
	"os"
	"strings"
)

// Environment variables consulted for a test database, in priority order.
const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvTestDatabaseURL   = "WORDCLAIM_TEST_DB_URL"
	EnvUseTestContainers = "WORDCLAIM_TEST_CONTAINERS"
)

// GetTestDatabaseURL returns the first configured test database URL, or ""
// if none is set.
func GetTestDatabaseURL() string {
	for _, key := range []string{EnvDatabaseURL, EnvTestDatabaseURL} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// ContainersEnabled reports whether tests may start a postgres container
// when no database URL is configured.
func ContainersEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvUseTestContainers)))
	return v == "1" || v == "true" || v == "yes"
}

// IsIntegrationTestEnvironment reports whether a database can be provided
// to integration tests.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != "" || ContainersEnabled()
}

// maskDatabaseURL hides the password of a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil || parsed.User == nil {
		return dbURL
	}
	if _, ok := parsed.User.Password(); !ok {
		return dbURL
	}

	parsed.User = url.UserPassword(parsed.User.Username(), "****")
	// url.String escapes '*' in the userinfo.
	return strings.Replace(parsed.String(), "%2A%2A%2A%2A", "****", 1)
}
