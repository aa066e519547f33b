package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/q3a-report/pkg/causeofdeath"
)

// PlayerScore is one entry of a report's "kills" object.
type PlayerScore struct {
	Name  string
	Score int32
}

// Report summarizes one game. It marshals to
//
//	{"game<N>": {"total_kills": ..., "players": [...], "kills": {...}, "kills_by_means": {...}}}
//
// with players and kills in first-seen order and kills_by_means in cause
// code order.
type Report struct {
	Game       int
	TotalKills uint32
	Players    []string
	// Kills has one entry per player, in Players order. Players who never
	// scored are listed with 0.
	Kills        []PlayerScore
	KillsByMeans [causeofdeath.Count]uint32
}

// Key is the report's top-level JSON key, e.g. "game3".
func (r *Report) Key() string {
	return "game" + strconv.Itoa(r.Game)
}

// Score looks up a player's score.
func (r *Report) Score(name string) (int32, bool) {
	for _, k := range r.Kills {
		if k.Name == name {
			return k.Score, true
		}
	}
	return 0, false
}

// KillsBy returns the number of kills with the given cause.
func (r *Report) KillsBy(c causeofdeath.CauseOfDeath) uint32 {
	if !c.Valid() {
		return 0
	}
	return r.KillsByMeans[c]
}

func (s *session) render(gameIndex int) *Report {
	r := &Report{
		Game:         gameIndex,
		TotalKills:   s.totalKills,
		Players:      make([]string, 0, s.players.len()),
		Kills:        make([]PlayerScore, 0, s.players.len()),
		KillsByMeans: s.byCause,
	}
	for i := range s.players.len() {
		id := PlayerID(i)
		name := s.players.name(id)
		r.Players = append(r.Players, name)
		// Missing scores are players who only died to other players.
		r.Kills = append(r.Kills, PlayerScore{Name: name, Score: s.scores[id]})
	}
	return r
}

func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	writeJSONString(&buf, r.Key())
	buf.WriteString(`:{"total_kills":`)
	buf.WriteString(strconv.FormatUint(uint64(r.TotalKills), 10))

	buf.WriteString(`,"players":[`)
	for i, name := range r.Players {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, name)
	}

	buf.WriteString(`],"kills":{`)
	for i, k := range r.Kills {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, k.Name)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(int64(k.Score), 10))
	}

	buf.WriteString(`},"kills_by_means":{`)
	for i, c := range causeofdeath.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, c.WireName())
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatUint(uint64(r.KillsByMeans[c]), 10))
	}
	buf.WriteString("}}}")

	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// Marshal of a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var out Report

	err := readObject(dec, func(key string) error {
		index, ok := strings.CutPrefix(key, "game")
		if !ok {
			return fmt.Errorf("unexpected report key %q", key)
		}
		n, err := strconv.Atoi(index)
		if err != nil {
			return fmt.Errorf("invalid game index in %q: %w", key, err)
		}
		out.Game = n
		return readObject(dec, out.readField(dec))
	})
	if err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}

	if out.Players == nil {
		out.Players = []string{}
	}
	if out.Kills == nil {
		out.Kills = []PlayerScore{}
	}
	*r = out
	return nil
}

func (r *Report) readField(dec *json.Decoder) func(string) error {
	return func(key string) error {
		switch key {
		case "total_kills":
			return dec.Decode(&r.TotalKills)
		case "players":
			return dec.Decode(&r.Players)
		case "kills":
			return readObject(dec, func(name string) error {
				var score int32
				if err := dec.Decode(&score); err != nil {
					return err
				}
				r.Kills = append(r.Kills, PlayerScore{Name: name, Score: score})
				return nil
			})
		case "kills_by_means":
			return readObject(dec, func(wireName string) error {
				c, err := causeofdeath.Parse(wireName)
				if err != nil {
					return err
				}
				return dec.Decode(&r.KillsByMeans[c])
			})
		default:
			var skip json.RawMessage
			return dec.Decode(&skip)
		}
	}
}

// readObject walks a JSON object in document order, calling field for each
// key with the decoder positioned at the value.
func readObject(dec *json.Decoder, field func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := field(key); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
