package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridSpec = "https://img.example.com/sb/low/M$M.jpg|80|45|1|1|1|4000|sig0#" +
	"https://img.example.com/sb/hq/M$M.jpg|320|180|4|2|2|1000|sigAB"

func TestDecodeGrid(t *testing.T) {
	tiles := Decode(gridSpec)
	require.Len(t, tiles, 4)

	for _, tile := range tiles {
		assert.Equal(t, "https://img.example.com/sb/hq/M0.jpg?sigh=sigAB", tile.URL)
		assert.Equal(t, 320, tile.Rect.W)
		assert.Equal(t, 180, tile.Rect.H)
	}

	assert.Equal(t, 0, tiles[0].Rect.X)
	assert.Equal(t, 0, tiles[0].Rect.Y)
	assert.Equal(t, 320, tiles[1].Rect.X)
	assert.Equal(t, 0, tiles[1].Rect.Y)
	assert.Equal(t, 0, tiles[2].Rect.X)
	assert.Equal(t, 180, tiles[2].Rect.Y)
	assert.Equal(t, 320, tiles[3].Rect.X)
	assert.Equal(t, 180, tiles[3].Rect.Y)

	for i, tile := range tiles {
		assert.Equal(t, i*1000, tile.TimestampMs)
	}
}

func TestDecodeSheetRollover(t *testing.T) {
	spec := "https://img.example.com/sb/low/M$M.jpg|80|45|1|1|1|4000|sig0#" +
		"https://img.example.com/sb/hq/M$M.jpg|320|180|5|2|2|1000|sigAB"

	tiles := Decode(spec)
	require.Len(t, tiles, 5)

	assert.Contains(t, tiles[3].URL, "/M0.jpg")
	assert.Contains(t, tiles[4].URL, "/M1.jpg")
	// Fifth tile restarts the grid on the second sheet.
	assert.Equal(t, 0, tiles[4].Rect.X)
	assert.Equal(t, 0, tiles[4].Rect.Y)
	assert.Equal(t, 4000, tiles[4].TimestampMs)
}

func TestDecodeEmptyURLFallsBack(t *testing.T) {
	spec := "https://img.example.com/sb/base/M$M.jpg|80|45|1|1|1|4000|sig0#" +
		"|320|180|1|1|1|1000|sigAB"

	tiles := Decode(spec)
	require.Len(t, tiles, 1)
	assert.Equal(t, "https://img.example.com/sb/base/M0.jpg?sigh=sigAB", tiles[0].URL)
}

func TestDecodeSignatureNotDuplicated(t *testing.T) {
	spec := "low|80|45|1|1|1|4000|sig0#" +
		"https://img.example.com/sb/hq/M$M.jpg?sigh=already|320|180|1|1|1|1000|sigAB"

	tiles := Decode(spec)
	require.Len(t, tiles, 1)
	assert.Equal(t, "https://img.example.com/sb/hq/M0.jpg?sigh=already", tiles[0].URL)
}

func TestDecodeSignatureAppendedWithAmpersand(t *testing.T) {
	spec := "low|80|45|1|1|1|4000|sig0#" +
		"https://img.example.com/sb/hq/M$M.jpg?v=3|320|180|1|1|1|1000|sigAB"

	tiles := Decode(spec)
	require.Len(t, tiles, 1)
	assert.Equal(t, "https://img.example.com/sb/hq/M0.jpg?v=3&sigh=sigAB", tiles[0].URL)
}

func TestDecodeRejectsMalformedSpecs(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"single level":     "https://img.example.com/sb/hq/M$M.jpg|320|180|4|2|2|1000|sigAB",
		"too few fields":   "low#https://img.example.com/M$M.jpg|320|180|4|2|2|1000",
		"zero tile count":  "low#u|320|180|0|2|2|1000|sig",
		"negative columns": "low#u|320|180|4|-2|2|1000|sig",
		"garbage numeric":  "low#u|320|abc|4|2|2|1000|sig",
	}

	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, Decode(spec))
		})
	}
}

func TestNearest(t *testing.T) {
	tiles := Decode(gridSpec)
	require.Len(t, tiles, 4)

	got, ok := Nearest(tiles, 2.2)
	require.True(t, ok)
	assert.Equal(t, 2000, got.TimestampMs)

	got, ok = Nearest(tiles, 0)
	require.True(t, ok)
	assert.Equal(t, 0, got.TimestampMs)

	// Equidistant between the 1000ms and 2000ms tiles: the earlier one wins.
	got, ok = Nearest(tiles, 1.5)
	require.True(t, ok)
	assert.Equal(t, 1000, got.TimestampMs)

	// Far past the last tile still resolves to the last tile.
	got, ok = Nearest(tiles, 500)
	require.True(t, ok)
	assert.Equal(t, 3000, got.TimestampMs)

	_, ok = Nearest(nil, 1)
	assert.False(t, ok)
}
