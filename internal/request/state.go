// Package request holds the lyrics request lifecycle: validation, the busy
// interval, response classification, and stale-response suppression.
package request

import (
	"errors"

	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/query"
)

// TransportMessage is shown when no usable response arrived.
const TransportMessage = "Something went wrong during fetch"

// Phase is the active variant of State.
type Phase int

const (
	Idle Phase = iota
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "success"
	case Failed:
		return "error"
	}
	return "unknown"
}

// State is an immutable snapshot of the request lifecycle. Lyrics is set only
// in Succeeded, Message only in Failed. Token identifies the latest request
// issued; responses carrying any other token are ignored.
type State struct {
	Phase   Phase
	Lyrics  string
	Message string
	Token   uint64
}

// Busy mirrors whether a request is in flight.
func (s State) Busy() bool {
	return s.Phase == InFlight
}

// Begin validates q and, if it has a title, moves to InFlight under a new
// token. On a ValidationError the returned state is s unchanged.
func (s State) Begin(q query.SearchQuery) (State, error) {
	if q.Title == "" {
		return s, &query.ValidationError{Field: "title"}
	}
	return State{Phase: InFlight, Token: s.Token + 1}, nil
}

// Resolve applies the outcome of the request identified by token. It reports
// false and leaves s untouched when token is stale or nothing is in flight.
func (s State) Resolve(token uint64, r Result) (State, bool) {
	if s.Phase != InFlight || token != s.Token {
		return s, false
	}
	if r.Kind == KindSuccess {
		return State{Phase: Succeeded, Lyrics: r.Lyrics, Token: s.Token}, true
	}
	return State{Phase: Failed, Message: r.Message, Token: s.Token}, true
}

// Kind classifies a finished request.
type Kind int

const (
	KindSuccess Kind = iota
	KindServer
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindServer:
		return "server_error"
	case KindTransport:
		return "transport_error"
	}
	return "unknown"
}

// Result is a classified response.
type Result struct {
	Kind    Kind
	Lyrics  string
	Message string
}

// TransportFailure is the result used when no response was received.
func TransportFailure() Result {
	return Result{Kind: KindTransport, Message: TransportMessage}
}

// Classify maps the endpoint reply onto a Result: 200 is a success, any other
// status is a server error carrying its message, and a failed call is a
// transport error with the fixed generic message.
func Classify(resp lyrics.Response, err error) Result {
	if err != nil {
		return TransportFailure()
	}
	if resp.OK() {
		return Result{Kind: KindSuccess, Lyrics: resp.Lyrics}
	}
	return Result{Kind: KindServer, Message: resp.Message}
}

// IsValidation reports whether err is a missing-title error.
func IsValidation(err error) bool {
	var verr *query.ValidationError
	return errors.As(err, &verr)
}
