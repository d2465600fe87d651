package lobby

import (
	"errors"
	"sort"
)

var ErrWrongMode = errors.New("command not valid for this lobby mode")
var ErrLobbyLive = errors.New("lobby is live")
var ErrNotLive = errors.New("lobby is not live")
var ErrNotCounting = errors.New("no countdown in progress")
var ErrNotDrafting = errors.New("lobby is not drafting")
var ErrNotInPool = errors.New("player is not in the pool")
var ErrAlreadyAssigned = errors.New("player already on a team")
var ErrRosterUneven = errors.New("locked rosters are not four a side")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Mode string

const (
	ModePublic Mode = "public"
	ModePro    Mode = "pro"
)

type Phase string

const (
	PhaseForming   Phase = "forming"
	PhaseCountdown Phase = "countdown"
	PhaseDrafting  Phase = "drafting"
	PhaseLive      Phase = "live"
)

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

const (
	QueueTarget      = 8
	ProPoolTarget    = 9
	ProVoteTarget    = 5
	TeamSize         = 4
	CountdownSeconds = 5
)

// Ratings resolves a player id to a rating; unseen ids resolve to 1000.
type Ratings func(id string) int

// State is one lobby's full state. Queue keeps insertion order for
// display; selection ranks by rating.
type State struct {
	Mode      Mode              `json:"mode"`
	Phase     Phase             `json:"phase"`
	Queue     []string          `json:"queue"`
	Votes     map[string]bool   `json:"votes,omitempty"`
	Countdown *int              `json:"countdown,omitempty"`
	Teams     map[Side][]string `json:"teams,omitempty"`
	Turn      Side              `json:"turn,omitempty"`
}

func NewState(mode Mode) State {
	s := State{Mode: mode, Phase: PhaseForming}
	if mode == ModePro {
		s.Votes = map[string]bool{}
	}
	return s
}

func (s State) queued(id string) bool {
	for _, q := range s.Queue {
		if q == id {
			return true
		}
	}
	return false
}

func (s State) assigned(id string) bool {
	for _, roster := range s.Teams {
		for _, p := range roster {
			if p == id {
				return true
			}
		}
	}
	return false
}

// clone deep-copies the mutable collections so Apply never aliases the
// caller's state.
func (s State) clone() State {
	out := s
	out.Queue = append([]string(nil), s.Queue...)
	if s.Votes != nil {
		out.Votes = make(map[string]bool, len(s.Votes))
		for k, v := range s.Votes {
			out.Votes[k] = v
		}
	}
	if s.Countdown != nil {
		cd := *s.Countdown
		out.Countdown = &cd
	}
	if s.Teams != nil {
		out.Teams = make(map[Side][]string, len(s.Teams))
		for side, roster := range s.Teams {
			out.Teams[side] = append([]string(nil), roster...)
		}
	}
	return out
}

type CommandType string

const (
	CmdToggleQueue   CommandType = "ToggleQueue"
	CmdVote          CommandType = "Vote"
	CmdCountdownTick CommandType = "CountdownTick"
	CmdDraftPick     CommandType = "DraftPick"
	CmdReportResult  CommandType = "ReportResult"
	CmdReset         CommandType = "Reset"
)

type Command struct {
	Type      CommandType
	Player    string
	GoalsHome int
	GoalsAway int
}

type EventType string

const (
	EvtCountdownStarted   EventType = "CountdownStarted"
	EvtCountdownCancelled EventType = "CountdownCancelled"
	EvtTeamsLocked        EventType = "TeamsLocked"
	EvtDraftStarted       EventType = "DraftStarted"
	EvtWentLive           EventType = "WentLive"
	EvtResultReported     EventType = "ResultReported"
)

type Event struct {
	Type   EventType
	Player string
	Side   Side
	// Winner is empty on a tie. Teams carries the rosters the result
	// applies to, since the state resets in the same step.
	Winner Side
	Teams  map[Side][]string
}

// Apply advances a lobby state machine by one command. It never mutates
// its input; rejected commands return the original state unchanged.
func Apply(s State, cmd Command, ratings Ratings) ([]Event, State, error) {
	switch cmd.Type {
	case CmdToggleQueue:
		return applyToggle(s, cmd)
	case CmdVote:
		return applyVote(s, cmd)
	case CmdCountdownTick:
		return applyTick(s, ratings)
	case CmdDraftPick:
		return applyDraftPick(s, cmd)
	case CmdReportResult:
		return applyReport(s, cmd)
	case CmdReset:
		return []Event{}, NewState(s.Mode), nil
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyToggle(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseLive || s.Phase == PhaseDrafting {
		return nil, s, ErrLobbyLive
	}

	next := s.clone()
	if next.queued(cmd.Player) {
		kept := next.Queue[:0]
		for _, id := range next.Queue {
			if id != cmd.Player {
				kept = append(kept, id)
			}
		}
		next.Queue = kept
		if next.Votes != nil {
			// leaving the pool withdraws the vote too
			delete(next.Votes, cmd.Player)
		}
	} else {
		next.Queue = append(next.Queue, cmd.Player)
	}
	return reconcileCountdown(next)
}

func applyVote(s State, cmd Command) ([]Event, State, error) {
	if s.Mode != ModePro {
		return nil, s, ErrWrongMode
	}
	if s.Phase == PhaseLive || s.Phase == PhaseDrafting {
		return nil, s, ErrLobbyLive
	}
	if !s.queued(cmd.Player) {
		return nil, s, ErrNotInPool
	}

	next := s.clone()
	if next.Votes[cmd.Player] {
		delete(next.Votes, cmd.Player)
	} else {
		next.Votes[cmd.Player] = true
	}
	return reconcileCountdown(next)
}

func (s State) countdownReady() bool {
	if s.Mode == ModePro {
		return len(s.Queue) >= ProPoolTarget && len(s.Votes) >= ProVoteTarget
	}
	return len(s.Queue) >= QueueTarget
}

// reconcileCountdown starts or cancels the countdown after any queue or
// vote change. A restarted countdown begins again at the full duration,
// it never resumes.
func reconcileCountdown(next State) ([]Event, State, error) {
	switch {
	case next.Phase == PhaseForming && next.countdownReady():
		cd := CountdownSeconds
		next.Phase = PhaseCountdown
		next.Countdown = &cd
		return []Event{{Type: EvtCountdownStarted}}, next, nil
	case next.Phase == PhaseCountdown && !next.countdownReady():
		next.Phase = PhaseForming
		next.Countdown = nil
		return []Event{{Type: EvtCountdownCancelled}}, next, nil
	}
	return []Event{}, next, nil
}

func applyTick(s State, ratings Ratings) ([]Event, State, error) {
	if s.Phase != PhaseCountdown || s.Countdown == nil {
		return nil, s, ErrNotCounting
	}

	next := s.clone()
	*next.Countdown--
	if *next.Countdown > 0 {
		return []Event{}, next, nil
	}
	next.Countdown = nil

	if next.Mode == ModePro {
		return startProDraft(next, ratings)
	}
	return lockPublicTeams(next, ratings)
}

// lockPublicTeams takes the top eight queued players by rating and
// splits them by alternating rank so the sides stay balanced: ranks
// 0,2,4,6 go home, ranks 1,3,5,7 go away.
func lockPublicTeams(next State, ratings Ratings) ([]Event, State, error) {
	ranked := rankByRating(next.Queue, ratings)
	next.Teams = map[Side][]string{SideHome: {}, SideAway: {}}
	for i, id := range ranked[:QueueTarget] {
		if i%2 == 0 {
			next.Teams[SideHome] = append(next.Teams[SideHome], id)
		} else {
			next.Teams[SideAway] = append(next.Teams[SideAway], id)
		}
	}
	next.Phase = PhaseLive
	return []Event{{Type: EvtTeamsLocked}, {Type: EvtWentLive}}, next, nil
}

// startProDraft promotes the two highest-rated pool members to captains
// and opens the alternating captain draft, each roster seeded with its
// captain.
func startProDraft(next State, ratings Ratings) ([]Event, State, error) {
	ranked := rankByRating(next.Queue, ratings)
	next.Teams = map[Side][]string{
		SideHome: {ranked[0]},
		SideAway: {ranked[1]},
	}
	next.Turn = SideHome
	next.Phase = PhaseDrafting
	return []Event{
		{Type: EvtDraftStarted, Player: ranked[0], Side: SideHome},
		{Type: EvtDraftStarted, Player: ranked[1], Side: SideAway},
	}, next, nil
}

func applyDraftPick(s State, cmd Command) ([]Event, State, error) {
	if s.Mode != ModePro {
		return nil, s, ErrWrongMode
	}
	if s.Phase != PhaseDrafting {
		return nil, s, ErrNotDrafting
	}
	if !s.queued(cmd.Player) {
		return nil, s, ErrNotInPool
	}
	if s.assigned(cmd.Player) {
		return nil, s, ErrAlreadyAssigned
	}

	next := s.clone()
	next.Teams[next.Turn] = append(next.Teams[next.Turn], cmd.Player)
	if next.Turn == SideHome {
		next.Turn = SideAway
	} else {
		next.Turn = SideHome
	}

	if len(next.Teams[SideHome]) == TeamSize && len(next.Teams[SideAway]) == TeamSize {
		next.Phase = PhaseLive
		next.Turn = ""
		return []Event{{Type: EvtWentLive}}, next, nil
	}
	return []Event{}, next, nil
}

func applyReport(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseLive {
		return nil, s, ErrNotLive
	}
	if len(s.Teams[SideHome]) != TeamSize || len(s.Teams[SideAway]) != TeamSize {
		return nil, s, ErrRosterUneven
	}

	var winner Side
	switch {
	case cmd.GoalsHome > cmd.GoalsAway:
		winner = SideHome
	case cmd.GoalsAway > cmd.GoalsHome:
		winner = SideAway
	}

	evt := Event{Type: EvtResultReported, Winner: winner, Teams: s.clone().Teams}
	return []Event{evt}, NewState(s.Mode), nil
}

// rankByRating sorts descending by rating; the stable sort keeps queue
// insertion order for equal ratings.
func rankByRating(ids []string, ratings Ratings) []string {
	ranked := append([]string(nil), ids...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ratings(ranked[i]) > ratings(ranked[j])
	})
	return ranked
}
