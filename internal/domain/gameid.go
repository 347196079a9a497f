package domain

import (
	"errors"
	"fmt"
)

// GameIDLength is the fixed length of a display game id.
const GameIDLength = 10

// ErrInvalidGameID is returned when a game id does not have the fixed
// display layout required to derive its sortable form.
var ErrInvalidGameID = errors.New("invalid game id")

// SortableGameID is a display game id split into its parts.
//
// Display layout: PPPSSNNNNN where PPP is the season-type/league prefix,
// SS the season year and NNNNN the game sequence. Display ids do not sort
// chronologically across seasons; the sortable form SSPPPNNNNN does.
type SortableGameID struct {
	Prefix   string // id[0:3], season type and league
	Season   string // id[3:5], two-digit season start year
	Sequence string // id[5:10], game number within the season
}

// ParseGameID parses a display game id. The id must be exactly
// GameIDLength ASCII digits.
func ParseGameID(display string) (SortableGameID, error) {
	if len(display) != GameIDLength {
		return SortableGameID{}, fmt.Errorf("%w: %q has length %d, want %d",
			ErrInvalidGameID, display, len(display), GameIDLength)
	}
	for i := 0; i < len(display); i++ {
		if display[i] < '0' || display[i] > '9' {
			return SortableGameID{}, fmt.Errorf("%w: %q has non-digit at position %d",
				ErrInvalidGameID, display, i)
		}
	}
	return SortableGameID{
		Prefix:   display[0:3],
		Season:   display[3:5],
		Sequence: display[5:GameIDLength],
	}, nil
}

// SortableKey converts a display game id into its sortable form.
func SortableKey(display string) (string, error) {
	id, err := ParseGameID(display)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// String returns the sortable form: season, prefix, sequence.
func (id SortableGameID) String() string {
	return id.Season + id.Prefix + id.Sequence
}

// Display returns the original display form.
func (id SortableGameID) Display() string {
	return id.Prefix + id.Season + id.Sequence
}

// Compare returns -1, 0 or +1 as id sorts before, equal to or after other.
func (id SortableGameID) Compare(other SortableGameID) int {
	a, b := id.String(), other.String()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less reports whether id is chronologically before other.
func (id SortableGameID) Less(other SortableGameID) bool {
	return id.Compare(other) < 0
}
