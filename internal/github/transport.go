package github

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs every request the client makes. It never logs
// headers, so the Authorization header added above it stays out of the logs.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	if err != nil {
		t.logger.Warn("github request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	t.logger.Debug("github request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("rateLimitRemaining", resp.Header.Get("X-RateLimit-Remaining")),
	)
	return resp, nil
}
