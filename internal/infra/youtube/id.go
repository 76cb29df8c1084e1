package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalidVideoURL = errors.New("not a youtube video url or id")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID accepts watch URLs, youtu.be short links, shorts/embed/live
// paths, and bare 11-character IDs.
func ParseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		if id := firstPathSegment(u.Path); videoIDPattern.MatchString(id) {
			return id, nil
		}
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := firstPathSegment(strings.TrimPrefix(u.Path, prefix)); videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidVideoURL, raw)
}

func firstPathSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}
