// Package oggtags extracts Vorbis comment tags from Ogg/Vorbis streams.
package oggtags

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/jfreymuth/oggvorbis"
)

// Read decodes the Vorbis headers of r and returns its comment tags keyed by
// upper-cased field name. When a field repeats, the first value wins.
func Read(r io.Reader) (map[string]string, error) {
	or, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("oggtags: %w", err)
	}
	return fromComments(or.CommentHeader().Comments), nil
}

// ReadFile is Read on a file opened from fsys.
func ReadFile(fsys fs.FS, name string) (map[string]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tags, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tags, nil
}

func fromComments(comments []string) map[string]string {
	tags := make(map[string]string, len(comments))
	for _, c := range comments {
		k, v, ok := strings.Cut(c, "=")
		if !ok || k == "" {
			continue
		}
		k = strings.ToUpper(k)
		if _, dup := tags[k]; dup {
			continue
		}
		tags[k] = v
	}
	return tags
}
