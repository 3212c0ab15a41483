package players

import (
	"sort"

	"sleeper-players-service/internal/domain/players"
)

// Player returns a copy of the player with id.
func (s *Service) Player(id string) (players.Player, bool) {
	return s.store.GetPlayer(id)
}

// PlayerName returns the display name for id, or "Player <id>" when unknown or nameless.
func (s *Service) PlayerName(id string) string {
	if p, ok := s.store.GetPlayer(id); ok {
		if name := players.DisplayName(p); name != "" {
			return name
		}
	}
	return placeholderName(id)
}

// PlayerPosition returns the normalized position for id, or "" when unknown.
func (s *Service) PlayerPosition(id string) string {
	p, ok := s.store.GetPlayer(id)
	if !ok {
		return ""
	}
	return players.NormalizePosition(p.Position)
}

// PlayersByPosition returns players whose normalized position matches pos,
// ordered by display name then id. The result is never nil.
func (s *Service) PlayersByPosition(pos string) []players.Player {
	want := players.NormalizePosition(pos)
	out := make([]players.Player, 0)
	if want == "" {
		return out
	}
	for _, p := range s.store.ListPlayers() {
		if players.NormalizePosition(p.Position) == want {
			out = append(out, p)
		}
	}
	sortPlayers(out)
	return out
}

// Players returns a copy of the whole dictionary, or nil when nothing is loaded.
func (s *Service) Players() players.Dictionary {
	return s.store.Dictionary()
}

// Len returns the number of held players.
func (s *Service) Len() int {
	return s.store.Len()
}

func placeholderName(id string) string {
	return "Player " + id
}

func sortPlayers(list []players.Player) {
	sort.SliceStable(list, func(i, j int) bool {
		ni, nj := players.DisplayName(list[i]), players.DisplayName(list[j])
		if ni != nj {
			return ni < nj
		}
		return list[i].ID < list[j].ID
	})
}
