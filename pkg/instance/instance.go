package instance

import (
	"os"
	"strings"
)

// GetID identifies this process in lock values and logs: LIVEBUYNOW_INSTANCE_ID,
// then the hostname, then a fixed default.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("LIVEBUYNOW_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}
