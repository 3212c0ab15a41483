package players

// Dictionary maps player id to Player for one partition snapshot.
type Dictionary map[string]Player

// Len returns the number of players, treating nil as empty.
func (d Dictionary) Len() int {
	return len(d)
}

// Clone returns a deep copy of the dictionary.
func (d Dictionary) Clone() Dictionary {
	if d == nil {
		return nil
	}
	out := make(Dictionary, len(d))
	for id, p := range d {
		out[id] = p.Clone()
	}
	return out
}
