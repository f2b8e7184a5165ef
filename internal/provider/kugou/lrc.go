package kugou

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// creditScanLimit bounds how far from either end credit lines are looked for.
const creditScanLimit = 30

var (
	timedLine = regexp.MustCompile(`^\[(\d{1,2}):(\d{1,2})\.(\d{2,3})\].*`)
	// Lines like "[00:01.00]作词：someone" carry credits rather than lyrics.
	creditLine = regexp.MustCompile(`^.+\].+[:：].+`)
)

// DecodeContent turns a base64 LRC download into cleaned lyrics. Undecodable
// content yields "".
func DecodeContent(content string) string {
	if content == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return ""
	}
	text := strings.ToValidUTF8(string(raw), "")
	text = strings.ReplaceAll(text, "&apos;", "'")
	return CleanLRC(text)
}

// CleanLRC keeps timestamped lines and cuts the credit blocks at the start
// and end of the song. The timestamps are kept.
func CleanLRC(text string) string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if timedLine.MatchString(line) {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	// The last credit line near the top ends the head block.
	head := 0
	for i := min(creditScanLimit, len(lines)-1); i >= 0; i-- {
		if creditLine.MatchString(lines[i]) {
			head = i + 1
			break
		}
	}
	lines = lines[head:]

	// The first credit line near the bottom starts the tail block.
	tail := len(lines)
	for i := max(0, len(lines)-creditScanLimit); i < len(lines); i++ {
		if creditLine.MatchString(lines[i]) {
			tail = i
			break
		}
	}
	return strings.Join(lines[:tail], "\n")
}
