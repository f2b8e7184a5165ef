package metadata

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.senan.xyz/taglib"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".aac":  true,
	".wma":  true,
}

// IsAudioFile reports whether path has a known audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindAudioFiles recursively finds all audio files under dir, in walk order.
func FindAudioFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path cannot be empty")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	return files, nil
}

// ReadTrack reads title, artist and length from an audio file's tags.
// The first artist of a comma separated list is kept.
func ReadTrack(path string) (Track, error) {
	if !IsAudioFile(path) {
		return Track{}, fmt.Errorf("%s: not an audio file", path)
	}

	tags, err := taglib.ReadTags(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	track := Track{
		Path:   path,
		Title:  firstTag(tags, taglib.Title),
		Artist: firstTag(tags, taglib.Artist),
	}
	track.HasLyrics = firstTag(tags, taglib.Lyrics) != ""
	if track.Artist == "" {
		track.Artist = firstTag(tags, taglib.AlbumArtist)
	}
	if i := strings.Index(track.Artist, ","); i > 0 {
		track.Artist = strings.TrimSpace(track.Artist[:i])
	}
	if track.Title == "" {
		track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	props, err := taglib.ReadProperties(path)
	if err == nil {
		track.Duration = props.Length
	}
	return track, nil
}

// WriteLyrics embeds lyrics into the file's LYRICS tag, leaving other tags alone.
func WriteLyrics(path, lyrics string) error {
	if strings.TrimSpace(lyrics) == "" {
		return nil
	}
	tags := map[string][]string{taglib.Lyrics: {lyrics}}
	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return fmt.Errorf("failed to write lyrics to %s: %w", path, err)
	}
	return nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}
