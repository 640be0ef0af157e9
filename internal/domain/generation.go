package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Game enumerates supported game variants. The variant decides which
// generation stages the engine runs.
type Game string

const (
	GameFS22 Game = "FS22"
	GameFS25 Game = "FS25"
)

// GameFromCode normalizes a game code sent by a client.
func GameFromCode(code string) (Game, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case string(GameFS22):
		return GameFS22, nil
	case string(GameFS25):
		return GameFS25, nil
	default:
		return "", NewInputError("game", fmt.Sprintf("unsupported game code %q", code))
	}
}

// Coordinates is the latitude/longitude of the map center point.
type Coordinates struct {
	Lat float64
	Lon float64
}

// ParseCoordinates parses a "lat, lon" pair and checks the geographic range.
func ParseCoordinates(input string) (Coordinates, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return Coordinates{}, NewInputError("coordinates", "expected \"latitude, longitude\"")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, NewInputError("coordinates", "invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, NewInputError("coordinates", "invalid longitude")
	}
	return NewCoordinates(lat, lon)
}

// NewCoordinates validates a latitude/longitude pair.
func NewCoordinates(lat, lon float64) (Coordinates, error) {
	if lat < -90 || lat > 90 {
		return Coordinates{}, NewInputError("coordinates", "latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return Coordinates{}, NewInputError("coordinates", "longitude must be between -180 and 180")
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

// MapSize is the side length of the square map in meters.
type MapSize int

// ParseMapSize parses a "HxW" size string. Maps must be square, positive and
// even-sided; odd sizes break the in-game tiling.
func ParseMapSize(input string) (MapSize, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(input)), "x")
	if len(parts) != 2 {
		return 0, NewInputError("size", "expected \"HEIGHTxWIDTH\"")
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, NewInputError("size", "invalid height")
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, NewInputError("size", "invalid width")
	}
	if height != width {
		return 0, NewInputError("size", "map size must be square (height == width)")
	}
	return NewMapSize(height)
}

// NewMapSize validates a square map side length.
func NewMapSize(side int) (MapSize, error) {
	if side <= 0 {
		return 0, NewInputError("size", "map size must be positive")
	}
	if side%2 != 0 {
		return 0, NewInputError("size", "map size must be even, e.g. 2048, 4096")
	}
	return MapSize(side), nil
}

// SessionName builds the unique identifier for one generation request from
// the game variant, the shortened coordinates and a timestamp. It doubles as
// the map directory and archive base name.
func SessionName(game Game, coords Coordinates, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		game,
		shortenCoordinate(coords.Lat),
		shortenCoordinate(coords.Lon),
		now.Format("2006-01-02_15-04-05"),
	)
}

func shortenCoordinate(coordinate float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.5f", coordinate), ".", "_")
}
