package metadata

import (
	"strconv"
	"time"
)

// Track is what an audio file's tags say about the song it holds.
type Track struct {
	Path     string
	Title    string
	Artist   string
	Duration time.Duration

	// HasLyrics is set when the file already carries a LYRICS tag.
	HasLyrics bool
}

// DurationField renders the duration as whole seconds for the form, or "" when
// the length is unknown.
func (t Track) DurationField() string {
	if t.Duration <= 0 {
		return ""
	}
	return strconv.Itoa(int(t.Duration.Round(time.Second) / time.Second))
}
