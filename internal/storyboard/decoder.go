package storyboard

import (
	"math"
	"strconv"
	"strings"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

// A storyboard spec is a `#`-separated list of quality levels; each level is
// a pipe-delimited record of
//
//	baseUrl|tileWidth|tileHeight|tileCount|columns|rows|intervalMs|signature|...
//
// Only the last (highest-quality) level is decoded. A level's base URL may be
// partial: when its URL field is empty, the first level's URL field is the
// template root. The `$M` token in the template stands for the sheet index.
const (
	levelDelimiter  = "#"
	fieldDelimiter  = "|"
	sheetIndexToken = "$M"
	signatureParam  = "sigh"

	minLevels      = 2
	minLevelFields = 8
)

// Tile is one time-indexed thumbnail region within a sheet.
type Tile struct {
	URL         string
	Rect        entity.TileRect
	TimestampMs int
}

// Decode turns a raw storyboard spec into the ordered tile list for its
// highest-quality level. It is total: malformed input of any kind yields nil,
// never an error, because callers must tolerate a video with no storyboard.
func Decode(spec string) []Tile {
	levels := strings.Split(spec, levelDelimiter)
	if len(levels) < minLevels {
		return nil
	}

	fields := strings.Split(levels[len(levels)-1], fieldDelimiter)
	if len(fields) < minLevelFields {
		return nil
	}

	tileWidth, okW := positiveInt(fields[1])
	tileHeight, okH := positiveInt(fields[2])
	tileCount, okC := positiveInt(fields[3])
	columns, okCols := positiveInt(fields[4])
	rows, okRows := positiveInt(fields[5])
	intervalMs, okI := positiveInt(fields[6])
	if !okW || !okH || !okC || !okCols || !okRows || !okI {
		return nil
	}

	template := fields[0]
	if template == "" {
		template = strings.SplitN(levels[0], fieldDelimiter, 2)[0]
	}
	signature := fields[7]

	perSheet := columns * rows
	tiles := make([]Tile, 0, tileCount)
	for i := 0; i < tileCount; i++ {
		sheet := i / perSheet
		pos := i % perSheet
		col := pos % columns
		row := pos / columns

		url := strings.ReplaceAll(template, sheetIndexToken, strconv.Itoa(sheet))
		if signature != "" && !strings.Contains(url, signatureParam+"=") {
			sep := "?"
			if strings.Contains(url, "?") {
				sep = "&"
			}
			url += sep + signatureParam + "=" + signature
		}

		tiles = append(tiles, Tile{
			URL: url,
			Rect: entity.TileRect{
				X: col * tileWidth,
				Y: row * tileHeight,
				W: tileWidth,
				H: tileHeight,
			},
			TimestampMs: i * intervalMs,
		})
	}
	return tiles
}

// Nearest returns the tile whose nominal timestamp has minimum absolute
// distance to the given position, first occurrence winning ties.
func Nearest(tiles []Tile, seconds float64) (Tile, bool) {
	if len(tiles) == 0 {
		return Tile{}, false
	}
	targetMs := seconds * 1000
	best := tiles[0]
	bestDist := math.Abs(float64(best.TimestampMs) - targetMs)
	for _, t := range tiles[1:] {
		dist := math.Abs(float64(t.TimestampMs) - targetMs)
		if dist < bestDist {
			best = t
			bestDist = dist
		}
	}
	return best, true
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
