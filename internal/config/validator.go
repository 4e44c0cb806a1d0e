package config

import (
	"fmt"
	"os"
	"strings"
)

// ExpectedEnvSchemaVersion is the .env layout this build understands
const ExpectedEnvSchemaVersion = "1.0"

// RequiredEnvVars must always be set
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"API_KEY",
}

// RequiredPostgresEnvVars must also be set unless STORAGE_BACKEND=memory
var RequiredPostgresEnvVars = []string{
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// exampleValues are placeholders shipped in .env.example that must not reach
// a real deployment
var exampleValues = map[string]string{
	"DB_PASSWORD": "change_this_secure_password",
	"API_KEY":     "generate_with_openssl_rand_hex_32",
}

// ValidateEnv checks the schema version and that every required variable is set
func ValidateEnv() error {
	switch v := os.Getenv("ENV_SCHEMA_VERSION"); v {
	case ExpectedEnvSchemaVersion:
	case "":
		return fmt.Errorf("ENV_SCHEMA_VERSION is not set (expected %s)", ExpectedEnvSchemaVersion)
	default:
		return fmt.Errorf("ENV_SCHEMA_VERSION mismatch: expected %s, got %s", ExpectedEnvSchemaVersion, v)
	}

	if missing := missingVars(requiredVars()); len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func requiredVars() []string {
	if strings.EqualFold(os.Getenv("STORAGE_BACKEND"), StorageBackendMemory) {
		return RequiredEnvVars
	}
	return append(append([]string{}, RequiredEnvVars...), RequiredPostgresEnvVars...)
}

func missingVars(names []string) []string {
	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// ValidateEnvWithWarnings runs ValidateEnv and reports settings that work but
// look like a mistake
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string
	for _, name := range []string{"DB_PASSWORD", "API_KEY"} {
		if os.Getenv(name) == exampleValues[name] {
			warnings = append(warnings, name+" is still the example value from .env.example")
		}
	}
	if os.Getenv("ADMIN_USER_IDS") == "" {
		warnings = append(warnings, "ADMIN_USER_IDS is empty, admin endpoints will reject every user")
	}
	return warnings, nil
}
