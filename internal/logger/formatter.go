package logger

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"
)

type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// buildPushRequest wraps one record in the Loki push API envelope.
func buildPushRequest(job, level, message string, attrs []slog.Attr, now time.Time) pushRequest {
	return pushRequest{
		Streams: []pushStream{{
			Stream: map[string]string{
				"level": level,
				"job":   job,
			},
			Values: [][2]string{{
				strconv.FormatInt(now.UnixNano(), 10),
				buildLogLine(level, message, attrs, now),
			}},
		}},
	}
}

func buildLogLine(level, message string, attrs []slog.Attr, now time.Time) string {
	line := map[string]any{
		"level":   level,
		"message": message,
		"time":    now.Format(time.RFC3339),
	}
	for _, attr := range attrs {
		line[attr.Key] = attr.Value.Any()
	}

	b, err := json.Marshal(line)
	if err != nil {
		return message
	}
	return string(b)
}
