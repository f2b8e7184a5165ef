// Package render maps request and clipboard state onto what the user sees.
package render

import (
	"lyricfetch/internal/clipboard"
	"lyricfetch/internal/request"
)

const (
	SubmitLabel    = "Get Lyrics"
	SearchingLabel = "Searching..."
)

// Pane selects which content area of the result section is shown.
type Pane string

const (
	PaneNone   Pane = "none"
	PaneLyrics Pane = "lyrics"
	PaneError  Pane = "error"
)

// View describes the result section and the controls around it. At most one
// pane is shown; Text holds its content verbatim.
type View struct {
	ResultVisible  bool                 `json:"result_visible"`
	Pane           Pane                 `json:"pane"`
	Text           string               `json:"text"`
	CopyVisible    bool                 `json:"copy_visible"`
	Copy           clipboard.Affordance `json:"copy"`
	Busy           bool                 `json:"busy"`
	SubmitLabel    string               `json:"submit_label"`
	SubmitDisabled bool                 `json:"submit_disabled"`
	Preview        string               `json:"preview,omitempty"`
}

// Render is total over every request phase.
func Render(s request.State) View {
	v := View{Pane: PaneNone, SubmitLabel: SubmitLabel, Copy: clipboard.DefaultAffordance}

	switch s.Phase {
	case request.InFlight:
		v.Busy = true
		v.SubmitLabel = SearchingLabel
		v.SubmitDisabled = true
	case request.Succeeded:
		v.ResultVisible = true
		v.Pane = PaneLyrics
		v.Text = s.Lyrics
		v.CopyVisible = true
	case request.Failed:
		v.ResultVisible = true
		v.Pane = PaneError
		v.Text = s.Message
	}
	return v
}

// WithClipboard overlays the live copy-control look. It has no effect while
// the control is hidden.
func (v View) WithClipboard(c clipboard.State) View {
	if v.CopyVisible {
		v.Copy = c.Current()
	}
	return v
}

// WithPreview attaches the request preview line.
func (v View) WithPreview(preview string) View {
	v.Preview = preview
	return v
}
