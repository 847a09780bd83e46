package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type remoteSink struct {
	mu     sync.RWMutex
	uri    string
	job    string
	client *http.Client
	wg     sync.WaitGroup
}

var remote = &remoteSink{
	job:    "inventory-api",
	client: &http.Client{Timeout: 5 * time.Second},
}

// SetRemote points log shipping at a Loki-compatible push endpoint. An empty
// uri disables shipping.
func SetRemote(uri, job string) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.uri = uri
	if job != "" {
		remote.job = job
	}
}

// Flush waits for in-flight shipments or until ctx is done.
func Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		remote.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ship sends one record in the background.
func ship(level, message string, attrs []slog.Attr) {
	remote.mu.RLock()
	uri, job := remote.uri, remote.job
	remote.mu.RUnlock()
	if uri == "" {
		return
	}

	remote.wg.Add(1)
	go func() {
		defer remote.wg.Done()

		payload, err := json.Marshal(buildPushRequest(job, level, message, attrs, time.Now()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal remote log entry: %v\n", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create remote log request: %v\n", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := remote.client.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to send remote log: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			fmt.Fprintf(os.Stderr, "Remote log returned error status: %d\n", resp.StatusCode)
		}
	}()
}
