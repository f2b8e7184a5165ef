package tui

import "lyricfetch/internal/request"

// responseMsg carries the classified outcome of the request with Token.
type responseMsg struct {
	Token  uint64
	Result request.Result
}

// copyDoneMsg reports a finished clipboard write. Epoch is the reset count
// when the write started.
type copyDoneMsg struct {
	Epoch uint64
	Err   error
}

// revertMsg fires when the copied look of Generation expires.
type revertMsg struct {
	Generation uint64
}
