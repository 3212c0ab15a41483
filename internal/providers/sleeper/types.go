package sleeper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// playersResponse is the upstream map of player id to record.
type playersResponse map[string]playerResponse

type playerResponse struct {
	PlayerID         flexString   `json:"player_id"`
	FirstName        flexString   `json:"first_name"`
	LastName         flexString   `json:"last_name"`
	FullName         flexString   `json:"full_name"`
	Position         flexString   `json:"position"`
	FantasyPositions []flexString `json:"fantasy_positions"`
	Team             flexString   `json:"team"`
	Age              flexInt      `json:"age"`
	Height           flexString   `json:"height"`
	Weight           flexString   `json:"weight"`
	YearsExp         flexInt      `json:"years_exp"`
	College          flexString   `json:"college"`
	Number           flexInt      `json:"number"`
	Status           flexString   `json:"status"`
	InjuryStatus     flexString   `json:"injury_status"`
}

// flexString decodes strings, numbers and booleans into a string. Null, objects and arrays become empty.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	switch data[0] {
	case '{', '[':
		*s = ""
	default:
		*s = flexString(data)
	}
	return nil
}

// flexInt decodes numbers, numeric strings and null into an int. Unparseable strings become zero.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	raw := strings.TrimSpace(string(s))
	if raw == "" {
		*i = 0
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*i = flexInt(n)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*i = flexInt(int(f))
		return nil
	}
	*i = 0
	return nil
}
