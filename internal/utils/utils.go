package utils

import (
	"encoding/json"
	"os"
	"sync"
)

var (
	hostInstance string
	hostOnce     sync.Once
)

// GetHost returns the machine hostname, resolved once per process.
func GetHost() string {
	hostOnce.Do(func() {
		h, err := os.Hostname()
		if err != nil || h == "" {
			hostInstance = "unknown"
			return
		}
		hostInstance = h
	})

	return hostInstance
}

func ToJSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<marshal error>"
	}
	return string(b)
}
