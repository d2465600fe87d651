package draft

// TurnFor returns which owner makes pick p (0-based) of a serpentine
// draft: order runs forward on even rounds and backward on odd ones.
func TurnFor(p, ownerCount int) int {
	round := p / ownerCount
	slot := p % ownerCount
	if round%2 == 1 {
		return ownerCount - 1 - slot
	}
	return slot
}

// Snake assigns one player per pick in serpentine order until every
// roster holds RosterSize players. Owner ids are never draftable.
type Snake struct {
	owners     []*Owner
	rosterSize int
	taken      map[string]bool
	picks      int
}

func NewSnake(owners []Owner, rosterSize int) (*Snake, error) {
	if len(owners) == 0 {
		return nil, ErrNoOwners
	}
	if rosterSize <= 0 {
		return nil, ErrBadRosterSize
	}
	d := &Snake{rosterSize: rosterSize, taken: make(map[string]bool)}
	for i := range owners {
		o := owners[i]
		d.owners = append(d.owners, &o)
		d.taken[o.PlayerID] = true
		for _, id := range o.Roster {
			d.taken[id] = true
		}
	}
	return d, nil
}

// CurrentOwner is whoever is on the clock; nil once all rosters are full.
func (d *Snake) CurrentOwner() *Owner {
	if d.Complete() {
		return nil
	}
	return d.owners[TurnFor(d.picks, len(d.owners))]
}

func (d *Snake) Complete() bool {
	for _, o := range d.owners {
		if len(o.Roster) < d.rosterSize {
			return false
		}
	}
	return true
}

// Pick assigns playerID to the owner on the clock. A failed pick leaves
// every roster untouched.
func (d *Snake) Pick(playerID string) error {
	if d.Complete() {
		return ErrDraftComplete
	}
	if d.taken[playerID] {
		return ErrPlayerTaken
	}
	owner := d.owners[TurnFor(d.picks, len(d.owners))]
	if len(owner.Roster) >= d.rosterSize {
		return ErrRosterFull
	}
	owner.Roster = append(owner.Roster, playerID)
	d.taken[playerID] = true
	d.picks++
	return nil
}

func (d *Snake) Owners() []Owner {
	out := make([]Owner, len(d.owners))
	for i, o := range d.owners {
		out[i] = *o
	}
	return out
}

// Assignments finalizes the draft into a team -> ordered picks map.
func (d *Snake) Assignments() map[string][]string {
	out := make(map[string][]string, len(d.owners))
	for _, o := range d.owners {
		roster := make([]string, len(o.Roster))
		copy(roster, o.Roster)
		out[o.TeamName] = roster
	}
	return out
}
