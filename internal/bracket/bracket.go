package bracket

import (
	"errors"
)

var ErrTooFewTeams = errors.New("bracket: need at least two teams")
var ErrUnknownNode = errors.New("bracket: no such node")
var ErrInputsUnresolved = errors.New("bracket: node inputs not resolved yet")
var ErrBadWinner = errors.New("bracket: winner is not one of the node's teams")

// Bye fills out the field to a power of two. A team paired against a
// bye advances automatically.
const Bye = "bye"

type Result struct {
	Winner string `json:"winner"`
	Score  string `json:"score"`
}

// Node is one match slot. Home/Away are team names, Bye, or empty when
// the feeding matches have not resolved. Winner is empty while pending.
type Node struct {
	ID     int    `json:"id"`
	Round  int    `json:"round"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Winner string `json:"winner"`
	Score  string `json:"score"`
}

func (n Node) inputsResolved() bool { return n.Home != "" && n.Away != "" }

// Derive rebuilds the whole tree from the team list and the accumulated
// results. Nothing is cached: changing any result re-derives every
// dependent round, so stale downstream winners can never survive. A
// recorded result is honored only while its winner is still one of the
// node's current inputs.
func Derive(teams []string, results map[int]Result) []Node {
	size := 2
	for size < len(teams) {
		size *= 2
	}

	slots := make([]string, size)
	copy(slots, teams)
	for i := len(teams); i < size; i++ {
		slots[i] = Bye
	}

	var nodes []Node
	id := 0

	// round 1 pairs slots sequentially
	prev := make([]Node, 0, size/2)
	for i := 0; i < size/2; i++ {
		n := Node{ID: id, Round: 1, Home: slots[2*i], Away: slots[2*i+1]}
		resolve(&n, results)
		prev = append(prev, n)
		nodes = append(nodes, n)
		id++
	}

	round := 2
	for len(prev) > 1 {
		next := make([]Node, 0, len(prev)/2)
		for i := 0; i < len(prev)/2; i++ {
			n := Node{ID: id, Round: round, Home: prev[2*i].Winner, Away: prev[2*i+1].Winner}
			resolve(&n, results)
			next = append(next, n)
			nodes = append(nodes, n)
			id++
		}
		prev = next
		round++
	}
	return nodes
}

func resolve(n *Node, results map[int]Result) {
	if !n.inputsResolved() {
		return
	}
	switch {
	case n.Home == Bye && n.Away == Bye:
		// both feeders were padding; the bye keeps advancing
		n.Winner = Bye
	case n.Away == Bye:
		n.Winner = n.Home
	case n.Home == Bye:
		n.Winner = n.Away
	default:
		if res, ok := results[n.ID]; ok && (res.Winner == n.Home || res.Winner == n.Away) {
			n.Winner = res.Winner
			n.Score = res.Score
		}
	}
}

// Bracket accumulates results over a fixed team list and answers reads
// by re-deriving. It also dedups champion announcements so re-renders
// never repeat one.
type Bracket struct {
	teams     []string
	results   map[int]Result
	announced string
}

func New(teams []string) (*Bracket, error) {
	if len(teams) < 2 {
		return nil, ErrTooFewTeams
	}
	cp := make([]string, len(teams))
	copy(cp, teams)
	return &Bracket{teams: cp, results: make(map[int]Result)}, nil
}

func (b *Bracket) Nodes() []Node {
	return Derive(b.teams, b.results)
}

// Record stores a winner for a node. Both inputs must already be
// resolved real teams; bye matches resolve themselves and cannot be
// overridden. Re-recording a node is allowed and invalidates every
// round derived from it.
func (b *Bracket) Record(nodeID int, winner, score string) error {
	nodes := b.Nodes()
	if nodeID < 0 || nodeID >= len(nodes) {
		return ErrUnknownNode
	}
	n := nodes[nodeID]
	if !n.inputsResolved() {
		return ErrInputsUnresolved
	}
	if n.Home == Bye || n.Away == Bye {
		return ErrBadWinner
	}
	if winner != n.Home && winner != n.Away {
		return ErrBadWinner
	}
	b.results[nodeID] = Result{Winner: winner, Score: score}
	return nil
}

// Champion returns the winner of the terminal node, if known.
func (b *Bracket) Champion() (string, bool) {
	nodes := b.Nodes()
	final := nodes[len(nodes)-1]
	if final.Winner == "" || final.Winner == Bye {
		return "", false
	}
	return final.Winner, true
}

// NewChampion reports the champion once per distinct value. Repeated
// calls with an unchanged bracket return false.
func (b *Bracket) NewChampion() (string, bool) {
	champ, ok := b.Champion()
	if !ok || champ == b.announced {
		return "", false
	}
	b.announced = champ
	return champ, true
}
