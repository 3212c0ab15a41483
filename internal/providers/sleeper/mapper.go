package sleeper

import (
	"strings"

	"sleeper-players-service/internal/domain/players"
)

func mapPlayers(resp playersResponse) players.Dictionary {
	dict := make(players.Dictionary, len(resp))
	for key, raw := range resp {
		p := mapPlayer(key, raw)
		if p.ID == "" {
			continue
		}
		dict[p.ID] = p
	}
	return dict
}

func mapPlayer(key string, raw playerResponse) players.Player {
	id := strings.TrimSpace(key)
	if id == "" {
		id = clean(raw.PlayerID)
	}
	return players.Player{
		ID:               id,
		FirstName:        clean(raw.FirstName),
		LastName:         clean(raw.LastName),
		FullName:         clean(raw.FullName),
		Position:         clean(raw.Position),
		FantasyPositions: mapPositions(raw.FantasyPositions),
		Team:             clean(raw.Team),
		Age:              int(raw.Age),
		Height:           clean(raw.Height),
		Weight:           clean(raw.Weight),
		YearsExp:         int(raw.YearsExp),
		College:          clean(raw.College),
		Number:           int(raw.Number),
		Status:           clean(raw.Status),
		InjuryStatus:     clean(raw.InjuryStatus),
	}
}

func mapPositions(raw []flexString) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if v := clean(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clean(s flexString) string {
	return strings.TrimSpace(string(s))
}
