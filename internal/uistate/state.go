// Package uistate holds the presentation state of a screen and the broadcast
// cell that publishes it.
//
// A screen is always in exactly one of four states:
//
//	Empty    → nothing to show yet, or the fetch returned zero items
//	Loading  → a fetch is in flight
//	Success  → the fetch returned at least one item (carried in Data)
//	Failure  → the fetch could not complete (human-readable Message)
//
// CLOSED VARIANT:
// State is an interface with an unexported method, so only the four types in
// this file can implement it. Consumers switch on the concrete type:
//
//	switch s := state.(type) {
//	case uistate.Success[[]model.GitHubUser]:
//	    render(s.Data)
//	case uistate.Failure[[]model.GitHubUser]:
//	    showError(s.Message)
//	...
//	}
//
// The type parameter T is the payload of the Success case. Every case carries
// it so that a State[[]User] can never be confused with a State[User].
package uistate

// Kind identifies which of the four cases a State is.
type Kind int

const (
	KindEmpty Kind = iota
	KindLoading
	KindSuccess
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is one presentation state. See the package docs for the four cases.
type State[T any] interface {
	Kind() Kind
	sealed()
}

// Empty means there is nothing to show and nothing went wrong.
type Empty[T any] struct{}

// Loading means a fetch is in flight.
type Loading[T any] struct{}

// Success carries the fetched payload.
type Success[T any] struct {
	Data T
}

// Failure carries a human-readable cause.
type Failure[T any] struct {
	Message string
}

func (Empty[T]) Kind() Kind   { return KindEmpty }
func (Loading[T]) Kind() Kind { return KindLoading }
func (Success[T]) Kind() Kind { return KindSuccess }
func (Failure[T]) Kind() Kind { return KindFailure }

func (Empty[T]) sealed()   {}
func (Loading[T]) sealed() {}
func (Success[T]) sealed() {}
func (Failure[T]) sealed() {}

// View is the wire form of a State, used by JSON and SSE consumers:
//
//	{"status":"loading"}
//	{"status":"success","data":[...]}
//	{"status":"failure","message":"Network is not available"}
type View[T any] struct {
	Status  string `json:"status"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToView converts a State to its wire form. A nil state reads as Empty.
func ToView[T any](s State[T]) View[T] {
	switch s := s.(type) {
	case Success[T]:
		data := s.Data
		return View[T]{Status: KindSuccess.String(), Data: &data}
	case Failure[T]:
		return View[T]{Status: KindFailure.String(), Message: s.Message}
	case Loading[T]:
		return View[T]{Status: KindLoading.String()}
	default:
		return View[T]{Status: KindEmpty.String()}
	}
}
