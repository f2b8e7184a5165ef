// Package query turns raw form fields into the lyrics request and its preview.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Path is the lyrics endpoint path, relative to the service base URL.
const Path = "/api/lyrics"

// TitlePlaceholder stands in for an empty title in the preview.
const TitlePlaceholder = "{title}"

// ValidationNotice is shown to the user when a submit has no title.
const ValidationNotice = "Please enter a song title"

// ValidationError reports a submit attempted without a title.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// Notice is the user-facing text for the error.
func (e *ValidationError) Notice() string {
	return ValidationNotice
}

// SearchQuery is one normalized lyrics request. Build a fresh one per submit.
type SearchQuery struct {
	Title    string
	Artist   string
	Duration string
}

// Build trims the fields and checks that a title is present.
func Build(title, artist, duration string) (SearchQuery, error) {
	q := normalize(title, artist, duration)
	if q.Title == "" {
		return q, &ValidationError{Field: "title"}
	}
	return q, nil
}

func normalize(title, artist, duration string) SearchQuery {
	return SearchQuery{
		Title:    strings.TrimSpace(title),
		Artist:   strings.TrimSpace(artist),
		Duration: strings.TrimSpace(duration),
	}
}

// Encode renders the query string in a fixed title, artist, duration order.
// Empty optional fields are left out.
func (q SearchQuery) Encode() string {
	return encode(q.Title, q)
}

// Path returns the endpoint path with the encoded query attached.
func (q SearchQuery) Path() string {
	return Path + "?" + q.Encode()
}

// URL joins the query onto a service base URL such as "http://localhost:8080".
func (q SearchQuery) URL(base string) string {
	return strings.TrimRight(base, "/") + q.Path()
}

// Seconds parses the duration as whole seconds.
func (q SearchQuery) Seconds() (int, bool) {
	if q.Duration == "" {
		return 0, false
	}
	n, err := strconv.Atoi(q.Duration)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// BuildPreview renders the request path for the current field values.
// It never validates: an empty title shows TitlePlaceholder instead.
func BuildPreview(title, artist, duration string) string {
	q := normalize(title, artist, duration)
	if q.Title == "" {
		return Path + "?" + encode(TitlePlaceholder, q)
	}
	return q.Path()
}

func encode(title string, q SearchQuery) string {
	var b strings.Builder
	b.WriteString("title=")
	if title == TitlePlaceholder && q.Title == "" {
		b.WriteString(title)
	} else {
		b.WriteString(Escape(title))
	}
	if q.Artist != "" {
		b.WriteString("&artist=")
		b.WriteString(Escape(q.Artist))
	}
	if q.Duration != "" {
		b.WriteString("&duration=")
		b.WriteString(Escape(q.Duration))
	}
	return b.String()
}

// Escape percent-encodes a query value with spaces as %20.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
