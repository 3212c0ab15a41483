package fixture

import (
	"context"
	"strings"

	"sleeper-players-service/internal/domain/players"
)

// Provider returns a static player dictionary useful for local testing and bootstrapping.
type Provider struct{}

// New creates a fixture provider.
func New() *Provider {
	return &Provider{}
}

// FetchPlayers returns a deterministic dictionary. Only nfl has data; other sports are empty.
func (p *Provider) FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sport = strings.ToLower(strings.TrimSpace(sport)); sport != "" && sport != "nfl" {
		return players.Dictionary{}, nil
	}
	return players.Dictionary{
		"4046": {
			ID:               "4046",
			FirstName:        "Patrick",
			LastName:         "Mahomes",
			FullName:         "Patrick Mahomes",
			Position:         "QB",
			FantasyPositions: []string{"QB"},
			Team:             "KC",
			Age:              29,
			YearsExp:         7,
			College:          "Texas Tech",
			Number:           15,
			Status:           "Active",
		},
		"4984": {
			ID:               "4984",
			FirstName:        "Josh",
			LastName:         "Allen",
			FullName:         "Josh Allen",
			Position:         "QB",
			FantasyPositions: []string{"QB"},
			Team:             "BUF",
			Age:              28,
			YearsExp:         6,
			College:          "Wyoming",
			Number:           17,
			Status:           "Active",
		},
		"6794": {
			ID:               "6794",
			FirstName:        "Justin",
			LastName:         "Jefferson",
			FullName:         "Justin Jefferson",
			Position:         "WR",
			FantasyPositions: []string{"WR"},
			Team:             "MIN",
			Age:              25,
			YearsExp:         4,
			College:          "LSU",
			Number:           18,
			Status:           "Active",
		},
		"4034": {
			ID:               "4034",
			FirstName:        "Christian",
			LastName:         "McCaffrey",
			FullName:         "Christian McCaffrey",
			Position:         "RB",
			FantasyPositions: []string{"RB"},
			Team:             "SF",
			Age:              28,
			YearsExp:         7,
			College:          "Stanford",
			Number:           23,
			Status:           "Active",
			InjuryStatus:     "Questionable",
		},
		"KC": {
			ID:               "KC",
			FirstName:        "Kansas City",
			LastName:         "Chiefs",
			Position:         "DEF",
			FantasyPositions: []string{"DEF"},
			Team:             "KC",
		},
	}, nil
}
