// Package connectivity answers one question: can we reach the network right now?
//
// The users view-model asks a Checker before every fetch. When the answer is
// no, it skips the GitHub call entirely and shows "Network is not available".
package connectivity

import (
	"context"
	"log/slog"
	"net"
	"time"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

// Checker reports whether a network path is currently usable.
// Implementations must return promptly and honour ctx cancellation.
type Checker interface {
	Available(ctx context.Context) bool
}

// Func adapts a plain function to the Checker interface.
type Func func(ctx context.Context) bool

func (f Func) Available(ctx context.Context) bool { return f(ctx) }

// Static is a Checker with a fixed answer. Static(false) is what the
// --offline flag installs.
type Static bool

func (s Static) Available(context.Context) bool { return bool(s) }

// CurrentState maps a Checker's answer to a State.
func CurrentState(ctx context.Context, c Checker) State {
	if c.Available(ctx) {
		return Online
	}
	return Offline
}

const (
	DefaultDialAddr    = "api.github.com:443"
	DefaultDialTimeout = 3 * time.Second
)

// DialChecker checks connectivity by opening (and immediately closing) a TCP
// connection to a well-known address.
type DialChecker struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
	logger  *slog.Logger
}

// NewDialChecker creates a DialChecker for addr ("host:port"). Empty addr and non-positive
// timeout fall back to DefaultDialAddr and DefaultDialTimeout.
func NewDialChecker(addr string, timeout time.Duration, logger *slog.Logger) *DialChecker {
	if addr == "" {
		addr = DefaultDialAddr
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &DialChecker{
		addr:    addr,
		timeout: timeout,
		logger:  logger,
	}
}

// Available dials the configured address. Any dial error (DNS, refused, timeout,
// cancelled ctx) counts as unavailable.
func (p *DialChecker) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		p.logger.Debug("connectivity check failed",
			slog.String("addr", p.addr),
			slog.String("error", err.Error()),
		)
		return false
	}
	conn.Close()
	return true
}
