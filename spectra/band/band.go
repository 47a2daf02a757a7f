package band

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownBand indicates a band name outside the enumerated set.
var ErrUnknownBand = errors.New("band: unknown band")

// Band identifies one spectrograph arm. The zero value is invalid.
type Band int

const (
	// Blue is the bluest arm ("b").
	Blue Band = iota + 1
	// Red is the middle arm ("r").
	Red
	// InfraredZ is the reddest arm ("z").
	InfraredZ
)

// Coverage is the nominal wavelength range of a band in Angstrom.
type Coverage struct {
	Min float64
	Max float64
}

type info struct {
	name     string
	coverage Coverage
}

var table = [...]info{
	Blue:      {name: "b", coverage: Coverage{Min: 3600, Max: 5930}},
	Red:       {name: "r", coverage: Coverage{Min: 5660, Max: 7720}},
	InfraredZ: {name: "z", coverage: Coverage{Min: 7470, Max: 9824}},
}

// All returns every band in wavelength order.
func All() []Band {
	return []Band{Blue, Red, InfraredZ}
}

// Valid reports whether b is one of the enumerated bands.
func (b Band) Valid() bool {
	return b >= Blue && b <= InfraredZ
}

// String returns the short camera name of the band ("b", "r", "z").
func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return table[b].name
}

// Coverage returns the nominal wavelength coverage of the band.
func (b Band) Coverage() Coverage {
	if !b.Valid() {
		return Coverage{}
	}
	return table[b].coverage
}

// Parse converts a camera name to a Band. Matching is case-insensitive and
// accepts a trailing spectrograph index ("b0", "R3").
func Parse(name string) (Band, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownBand)
	}
	for _, b := range All() {
		if s == table[b].name || (len(s) > 1 && s[:1] == table[b].name && isDigits(s[1:])) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBand, name)
}

// ParseList parses a list of camera names, rejecting duplicates.
func ParseList(names []string) ([]Band, error) {
	out := make([]Band, 0, len(names))
	seen := make(map[Band]bool, len(names))
	for _, n := range names {
		b, err := Parse(n)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			return nil, fmt.Errorf("band: duplicate band %q", n)
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// Sort orders bands from blue to red in place.
func Sort(bands []Band) {
	sort.Slice(bands, func(i, j int) bool { return bands[i] < bands[j] })
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBand, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
