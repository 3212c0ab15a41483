package testutil

import "sleeper-players-service/internal/domain/players"

// SamplePlayer returns a populated player suitable for tests.
func SamplePlayer(id, fullName, position string) players.Player {
	return players.Player{
		ID:               id,
		FullName:         fullName,
		Position:         position,
		FantasyPositions: []string{position},
		Team:             "BUF",
		Status:           "Active",
	}
}

// SampleDictionary returns three quarterbacks deliberately out of name order.
func SampleDictionary() players.Dictionary {
	return players.Dictionary{
		"3": SamplePlayer("3", "Zach Wilson", "QB"),
		"1": SamplePlayer("1", "Aaron Rodgers", "QB"),
		"2": SamplePlayer("2", "Josh Allen", "QB"),
	}
}
