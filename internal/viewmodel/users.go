// Package viewmodel owns the presentation state of the users screen and the
// single action that changes it: Fetch.
//
// THE FETCH STATE MACHINE:
//
//	Fetch() ──► Loading ──► offline?          ──► Failure("Network is not available")
//	                    └─► source error?     ──► Failure("An error occurred: <cause>")
//	                    └─► zero users?       ──► Empty
//	                    └─► otherwise         ──► Success(users)
//
// The view-model is the failure-containment point: nothing returned by the
// connectivity checker or the data source ever escapes as an error. Consumers
// (the HTTP handlers, the terminal UI) only ever observe states.
//
// OVERLAPPING FETCHES (CANCEL AND REPLACE):
// Calling Fetch while a previous attempt is still running cancels that
// attempt's context and starts a new one. Every attempt carries a generation
// number; an attempt may only publish while it is still the latest
// generation. A superseded (or closed-over) attempt therefore publishes
// nothing, and an old result can never overwrite a newer one.
package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/github-users/internal/connectivity"
	"github.com/sakif/github-users/internal/metrics"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/uistate"
)

const (
	// MsgNetworkUnavailable is the Failure message when the connectivity
	// check says no.
	MsgNetworkUnavailable = "Network is not available"

	// msgErrorPrefix is prepended, unmodified, to the data source's error text.
	msgErrorPrefix = "An error occurred: "
)

// UserSource performs the remote user-list retrieval.
// service.UserService is the production implementation.
type UserSource interface {
	FetchUsers(ctx context.Context) ([]model.GitHubUser, error)
}

// UsersState is the presentation state of the users screen.
type UsersState = uistate.State[[]model.GitHubUser]

// Shorthands for the four cases, so callers don't repeat the type argument.
type (
	Empty   = uistate.Empty[[]model.GitHubUser]
	Loading = uistate.Loading[[]model.GitHubUser]
	Success = uistate.Success[[]model.GitHubUser]
	Failure = uistate.Failure[[]model.GitHubUser]
)

// UsersView is the wire form of a UsersState.
type UsersView = uistate.View[[]model.GitHubUser]

// ToView converts s to its wire form.
func ToView(s UsersState) UsersView {
	return uistate.ToView[[]model.GitHubUser](s)
}

// Option configures a UsersViewModel.
type Option func(*UsersViewModel)

// WithMetrics records every fetch outcome in rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(vm *UsersViewModel) { vm.metrics = rec }
}

// WithAttemptTimeout bounds a whole fetch attempt. Zero (the default) leaves
// timeouts to the HTTP client underneath; an expired attempt ends as a normal
// Failure.
func WithAttemptTimeout(d time.Duration) Option {
	return func(vm *UsersViewModel) { vm.attemptTimeout = d }
}

// UsersViewModel is the fetch coordinator for the users list.
//
// It is the only writer of its state cell. Readers get a Subscription via
// Users(); any number of them may read concurrently.
type UsersViewModel struct {
	checker        connectivity.Checker
	source         UserSource
	logger         *slog.Logger
	metrics        *metrics.Recorder
	attemptTimeout time.Duration

	users *uistate.Cell[[]model.GitHubUser]

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc // cancels the in-flight attempt, if any
	closed     bool
	activated  bool
	wg         sync.WaitGroup
}

// New creates a view-model in the Empty state. Dependencies are explicit:
// nothing is looked up globally.
func New(checker connectivity.Checker, source UserSource, logger *slog.Logger, opts ...Option) *UsersViewModel {
	vm := &UsersViewModel{
		checker: checker,
		source:  source,
		logger:  logger,
		users:   uistate.NewCell[[]model.GitHubUser](Empty{}),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Users returns a live, read-only view of the users state. The first value
// is the current state, followed by every later state in order. Close the
// subscription when done with it.
func (vm *UsersViewModel) Users() *uistate.Subscription[[]model.GitHubUser] {
	return vm.users.Subscribe()
}

// Current returns the current users state.
func (vm *UsersViewModel) Current() UsersState {
	return vm.users.Value()
}

// Fetch starts one fetch attempt. Loading is published before Fetch returns;
// the rest of the attempt runs on its own goroutine so callers (UI event
// loops, HTTP handlers) never block on the network.
//
// Fetch after Close does nothing.
func (vm *UsersViewModel) Fetch() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}

	// Any explicit fetch counts as the screen's initial load.
	vm.activated = true

	// Cancel and replace whatever is still running.
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.generation++
	gen := vm.generation

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if vm.attemptTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), vm.attemptTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	vm.cancel = cancel

	// Published under vm.mu so no older attempt can slip a state in between.
	vm.users.Set(Loading{})
	vm.wg.Add(1)
	vm.mu.Unlock()

	attemptID := xid.New().String()
	vm.logger.Debug("fetch started",
		slog.String("attempt", attemptID),
		slog.Uint64("generation", gen),
	)

	go vm.run(ctx, cancel, gen, attemptID)
}

// Activate is called when a screen showing the users becomes visible. It
// starts a fetch only if none has ever been started (by Activate or Fetch);
// otherwise it does nothing and reports false, since reloading is an explicit
// Fetch.
func (vm *UsersViewModel) Activate() bool {
	vm.mu.Lock()
	if vm.activated || vm.closed {
		vm.mu.Unlock()
		return false
	}
	vm.activated = true
	vm.mu.Unlock()

	vm.Fetch()
	return true
}

// Close cancels any in-flight attempt, waits for it to finish and ends every
// subscription. No state is published after Close returns.
func (vm *UsersViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.mu.Unlock()

	vm.wg.Wait()
	vm.users.Close()
}

// run is one fetch attempt.
func (vm *UsersViewModel) run(ctx context.Context, cancel context.CancelFunc, gen uint64, attemptID string) {
	defer vm.wg.Done()
	defer cancel()

	start := time.Now()
	logger := vm.logger.With(slog.String("attempt", attemptID))

	if connectivity.CurrentState(ctx, vm.checker) == connectivity.Offline {
		logger.Debug("network state", slog.String("state", connectivity.Offline.String()))
		vm.finish(gen, Failure{Message: MsgNetworkUnavailable}, metrics.OutcomeOffline, start, 0, logger)
		return
	}

	users, err := vm.source.FetchUsers(ctx)
	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) && !vm.isLatest(gen) {
			// Superseded or closed: finish() drops the state, this only
			// keeps the log quiet.
			logger.Debug("fetch cancelled", slog.Uint64("generation", gen))
		} else {
			logger.Warn("fetch failed", slog.String("error", err.Error()))
		}
		vm.finish(gen, Failure{Message: msgErrorPrefix + err.Error()}, metrics.OutcomeError, start, 0, logger)
	case len(users) == 0:
		vm.finish(gen, Empty{}, metrics.OutcomeEmpty, start, 0, logger)
	default:
		// Observers share this slice; detach it from whatever the source
		// might still hold on to.
		vm.finish(gen, Success{Data: slices.Clone(users)}, metrics.OutcomeSuccess, start, len(users), logger)
	}
}

// finish publishes the terminal state of attempt gen, unless it has been
// superseded or the view-model was closed in the meantime.
func (vm *UsersViewModel) finish(gen uint64, s UsersState, outcome string, start time.Time, n int, logger *slog.Logger) {
	vm.mu.Lock()
	published := !vm.closed && gen == vm.generation
	if published {
		vm.users.Set(s)
	}
	vm.mu.Unlock()

	if !published {
		vm.metrics.ObserveFetch(metrics.OutcomeSuperseded, time.Since(start), 0)
		return
	}

	vm.metrics.ObserveFetch(outcome, time.Since(start), n)
	logger.Info("fetch finished",
		slog.String("state", s.Kind().String()),
		slog.Int("users", n),
		slog.Duration("duration", time.Since(start)),
	)
}

func (vm *UsersViewModel) isLatest(gen uint64) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return !vm.closed && gen == vm.generation
}
