package env

import "os"

// Get reads an environment variable, falling back when it is unset.
// An empty value counts as unset.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
