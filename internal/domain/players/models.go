package players

import "strings"

// Player represents one normalized entry in the player dictionary (Sleeper-aligned).
// Only ID is guaranteed; every other field may be empty.
type Player struct {
	ID               string   `json:"id"`
	FirstName        string   `json:"firstName,omitempty"`
	LastName         string   `json:"lastName,omitempty"`
	FullName         string   `json:"fullName,omitempty"`
	Position         string   `json:"position,omitempty"`
	FantasyPositions []string `json:"fantasyPositions,omitempty"`
	Team             string   `json:"team,omitempty"`
	Age              int      `json:"age,omitempty"`
	Height           string   `json:"height,omitempty"`
	Weight           string   `json:"weight,omitempty"`
	YearsExp         int      `json:"yearsExp,omitempty"`
	College          string   `json:"college,omitempty"`
	Number           int      `json:"number,omitempty"`
	Status           string   `json:"status,omitempty"`
	InjuryStatus     string   `json:"injuryStatus,omitempty"`
}

// Clone returns a copy that shares no mutable state with p.
func (p Player) Clone() Player {
	if p.FantasyPositions != nil {
		p.FantasyPositions = append([]string(nil), p.FantasyPositions...)
	}
	return p
}

// DisplayName returns the full name when present, otherwise first and last joined.
func DisplayName(p Player) string {
	if full := strings.TrimSpace(p.FullName); full != "" {
		return full
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// NormalizePosition maps free-text position codes onto a canonical upper-case form.
func NormalizePosition(raw string) string {
	pos := strings.ToUpper(strings.TrimSpace(raw))
	switch pos {
	case "DST", "D/ST", "DEF":
		return "DEF"
	case "PK":
		return "K"
	default:
		return pos
	}
}
