package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoID(t *testing.T) {
	cases := map[string]string{
		"bare id":        "dQw4w9WgXcQ",
		"watch url":      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"watch no www":   "https://youtube.com/watch?v=dQw4w9WgXcQ",
		"mobile":         "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
		"short link":     "https://youtu.be/dQw4w9WgXcQ",
		"short with ts":  "https://youtu.be/dQw4w9WgXcQ?t=10",
		"shorts path":    "https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"embed path":     "https://www.youtube.com/embed/dQw4w9WgXcQ",
		"live path":      "https://www.youtube.com/live/dQw4w9WgXcQ",
		"extra segments": "https://youtu.be/dQw4w9WgXcQ/whatever",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := ParseVideoID(input)
			require.NoError(t, err)
			assert.Equal(t, "dQw4w9WgXcQ", id)
		})
	}
}

func TestParseVideoIDRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"random text":   "not a url at all",
		"wrong host":    "https://vimeo.com/123456",
		"short id":      "abc123",
		"long id":       "dQw4w9WgXcQdQw4w9WgXcQ",
		"no v param":    "https://www.youtube.com/watch?list=PLx",
		"bad id chars":  "https://www.youtube.com/watch?v=dQw4w9WgXc!",
		"channel page":  "https://www.youtube.com/@somechannel",
		"playlist only": "https://www.youtube.com/playlist?list=PLabc",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVideoID(input)
			assert.ErrorIs(t, err, ErrInvalidVideoURL)
		})
	}
}
