package domain

// PlayerDirectoryEntry represents a player in the current-season directory.
// Corresponds to the player_directory table.
type PlayerDirectoryEntry struct {
	PersonID         int64  // player id
	TeamID           int64  // current team id
	DisplayFirstLast string // e.g. "LeBron James"
	TeamAbbreviation string // e.g. "LAL"
}
