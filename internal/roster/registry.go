package roster

import "fmt"

// Registry is the canonical ordered list of players
type Registry struct {
	players []*Player
	index   map[*Player]int
}

// NewRegistry creates a registry holding the given players in order.
// Duplicate pointers are kept once.
func NewRegistry(players ...*Player) *Registry {
	r := &Registry{
		players: make([]*Player, 0, len(players)),
		index:   make(map[*Player]int, len(players)),
	}
	for _, p := range players {
		_ = r.Add(p)
	}
	return r
}

// FromRecords builds a registry of fresh players from record values
func FromRecords(records []Player) *Registry {
	r := NewRegistry()
	for i := range records {
		_ = r.Add(records[i].Copy())
	}
	return r
}

// Add appends a player to the end of the roster
func (r *Registry) Add(p *Player) error {
	if p == nil {
		return fmt.Errorf("%w: nil player", ErrInvalidPlayer)
	}
	if _, exists := r.index[p]; exists {
		return fmt.Errorf("player %s already registered", p)
	}
	r.index[p] = len(r.players)
	r.players = append(r.players, p)
	return nil
}

// Remove deletes a player, returning false if it was not registered
func (r *Registry) Remove(p *Player) bool {
	i, exists := r.index[p]
	if !exists {
		return false
	}
	r.players = append(r.players[:i], r.players[i+1:]...)
	delete(r.index, p)
	for j := i; j < len(r.players); j++ {
		r.index[r.players[j]] = j
	}
	return true
}

// Contains reports whether the pointer is a registered player
func (r *Registry) Contains(p *Player) bool {
	_, exists := r.index[p]
	return exists
}

// IndexOf returns the roster position of a player or -1
func (r *Registry) IndexOf(p *Player) int {
	if i, exists := r.index[p]; exists {
		return i
	}
	return -1
}

// At returns the player at a roster position
func (r *Registry) At(i int) (*Player, bool) {
	if i < 0 || i >= len(r.players) {
		return nil, false
	}
	return r.players[i], true
}

// Len returns the number of registered players
func (r *Registry) Len() int {
	return len(r.players)
}

// All returns the players in roster order. The slice is a copy; the players
// are the live entries.
func (r *Registry) All() []*Player {
	return append([]*Player(nil), r.players...)
}

// Records returns value copies of every player, suitable for persistence
func (r *Registry) Records() []Player {
	records := make([]Player, len(r.players))
	for i, p := range r.players {
		records[i] = *p
	}
	return records
}

// Clone deep-copies the registry. The returned map translates each original
// player to its copy so box memberships can be rebuilt against the clone.
func (r *Registry) Clone() (*Registry, map[*Player]*Player) {
	mapping := make(map[*Player]*Player, len(r.players))
	clone := &Registry{
		players: make([]*Player, len(r.players)),
		index:   make(map[*Player]int, len(r.players)),
	}
	for i, p := range r.players {
		cp := p.Copy()
		mapping[p] = cp
		clone.players[i] = cp
		clone.index[cp] = i
	}
	return clone, mapping
}
