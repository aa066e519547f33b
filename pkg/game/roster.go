package game

// PlayerID is a session-scoped handle for a player name. Two sightings of
// the same name within a session always resolve to the same PlayerID.
type PlayerID int

// roster interns player names in first-seen order.
type roster struct {
	names []string
	ids   map[string]PlayerID
}

func newRoster() roster {
	return roster{ids: make(map[string]PlayerID)}
}

func (r *roster) lookup(name string) (PlayerID, bool) {
	id, ok := r.ids[name]
	return id, ok
}

func (r *roster) intern(name string) PlayerID {
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := PlayerID(len(r.names))
	r.names = append(r.names, name)
	r.ids[name] = id
	return id
}

func (r *roster) name(id PlayerID) string {
	return r.names[id]
}

func (r *roster) len() int {
	return len(r.names)
}
