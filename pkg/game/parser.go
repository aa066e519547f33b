// Package game turns a stream of Quake III Arena log lines into one Report
// per game.
//
// A Parser holds the state of the game in progress. Kill lines update the
// kill count, the per-player scores and the cause of death histogram. A
// ShutdownGame line closes the game: the Parser renders its Report and
// starts over with an empty game and the next game index.
package game

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/q3a-report/pkg/causeofdeath"
	"github.com/jwebster45206/q3a-report/pkg/checked"
	"github.com/jwebster45206/q3a-report/pkg/grammar"
)

// ErrMalformedLine is returned for a kill line with content left over after
// the cause of death.
var ErrMalformedLine = errors.New("malformed line")

// LineError wraps the reason a single line could not be processed. The
// Parser state is unchanged when a LineError is returned.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	var mm *grammar.MismatchError
	if errors.As(e.Err, &mm) {
		if col := mm.Column(e.Line); col >= 0 {
			return fmt.Sprintf("column %d: %v", col+1, e.Err)
		}
	}
	return e.Err.Error()
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// session is the state of one game.
type session struct {
	totalKills uint32
	byCause    [causeofdeath.Count]uint32
	players    roster
	// scores only holds players that killed someone or died to the world.
	scores map[PlayerID]int32
}

func newSession() *session {
	return &session{
		players: newRoster(),
		scores:  make(map[PlayerID]int32),
	}
}

// Parser consumes log lines one at a time. It is not safe for concurrent
// use.
type Parser struct {
	gameIndex int
	current   *session
}

// NewParser returns a Parser positioned at game 0.
func NewParser() *Parser {
	return &Parser{current: newSession()}
}

// ProcessLine interprets one log line without its trailing newline. It
// returns the finished game's Report when line is a ShutdownGame line and
// nil otherwise. Lines other than Kill and ShutdownGame are classified and
// ignored.
func (p *Parser) ProcessLine(line string) (*Report, error) {
	rest, header, err := grammar.ClassifyHeader(line)
	if err != nil {
		return nil, &LineError{Line: line, Err: err}
	}

	switch header {
	case grammar.Kill:
		if err := p.handleKill(rest); err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
	case grammar.ShutdownGame:
		report := p.Snapshot()
		p.reset()
		return report, nil
	default:
		// InitGame, client, item, score, exit and spacer lines carry nothing
		// the report needs.
	}

	return nil, nil
}

// GameIndex is the index of the game in progress.
func (p *Parser) GameIndex() int {
	return p.gameIndex
}

// TotalKills is the number of kill lines seen in the game in progress.
func (p *Parser) TotalKills() uint32 {
	return p.current.totalKills
}

// Players returns the names seen in the game in progress, first-seen order.
func (p *Parser) Players() []string {
	return append([]string(nil), p.current.players.names...)
}

// Score returns a player's score in the game in progress. The second result
// is false for players who have not scored yet, including unknown names.
func (p *Parser) Score(name string) (int32, bool) {
	id, ok := p.current.players.lookup(name)
	if !ok {
		return 0, false
	}
	score, ok := p.current.scores[id]
	return score, ok
}

// Snapshot renders the game in progress without closing it.
func (p *Parser) Snapshot() *Report {
	return p.current.render(p.gameIndex)
}

func (p *Parser) reset() {
	p.gameIndex++
	p.current = newSession()
}

func (p *Parser) handleKill(input string) error {
	rest, ev, err := grammar.ParseKill(input)
	if err != nil {
		return err
	}
	if !grammar.IsBlank(rest) {
		return fmt.Errorf("%w: unexpected trailing content %q", ErrMalformedLine, rest)
	}
	return p.current.recordKill(ev)
}

// recordKill applies a kill to the session. Every new counter value is
// computed before anything is written, so a failed kill leaves no trace.
func (s *session) recordKill(ev grammar.KillEvent) error {
	if !ev.Cause.Valid() {
		return fmt.Errorf("cause of death %d: %w", ev.Cause, causeofdeath.ErrUnknown)
	}

	total, err := checked.Increment(s.totalKills)
	if err != nil {
		return fmt.Errorf("total kills: %w", err)
	}

	bucket, err := checked.Increment(s.byCause[ev.Cause])
	if err != nil {
		return fmt.Errorf("%s kills: %w", ev.Cause, err)
	}

	if ev.IsWorldKill() {
		score, err := checked.Decrement(s.scoreOf(ev.Victim))
		if err != nil {
			return fmt.Errorf("score of %q: %w", ev.Victim, err)
		}
		victim := s.players.intern(ev.Victim)
		s.scores[victim] = score
	} else {
		score, err := checked.Increment(s.scoreOf(ev.Attacker))
		if err != nil {
			return fmt.Errorf("score of %q: %w", ev.Attacker, err)
		}
		s.players.intern(ev.Victim)
		attacker := s.players.intern(ev.Attacker)
		s.scores[attacker] = score
	}

	s.totalKills = total
	s.byCause[ev.Cause] = bucket
	return nil
}

func (s *session) scoreOf(name string) int32 {
	id, ok := s.players.lookup(name)
	if !ok {
		return 0
	}
	return s.scores[id]
}
