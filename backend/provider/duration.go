package provider

import (
	"strconv"
	"time"
)

// parseSeconds parses an HTTP Retry-After header value given in seconds.
func parseSeconds(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
