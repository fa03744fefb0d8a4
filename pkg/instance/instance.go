package instance

import "os"

// GetID identifies this process in publisher logs. It prefers an explicit
// WORKER_ID, then the container hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
