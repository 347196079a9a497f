package domain

// Location is the side a team plays on in a game.
type Location string

const (
	LocationHome Location = "HOME"
	LocationAway Location = "AWAY"
)

// String returns the string representation of Location.
func (l Location) String() string {
	return string(l)
}

// IsValid checks if the location is a valid value.
func (l Location) IsValid() bool {
	return l == LocationHome || l == LocationAway
}
