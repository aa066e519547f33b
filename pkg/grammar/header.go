package grammar

import (
	"fmt"
	"strings"
)

// Header is the class of a log line, determined by the keyword after the
// timestamp.
type Header int

const (
	InitGame Header = iota
	Kill
	ClientBegin
	ClientUserinfoChanged
	ClientConnect
	ShutdownGame
	Score
	Item
	Exit
	// Spacer is the line of 60 hyphens written between games:
	//
	//	981:39 ShutdownGame:
	//	981:39 ------------------------------------------------------------
	//	  0:00 ------------------------------------------------------------
	Spacer
)

// headerTags is in match priority order. Spacer is tried after all of them.
var headerTags = []struct {
	header Header
	tag    string
}{
	{InitGame, "InitGame"},
	{Kill, "Kill"},
	{ClientBegin, "ClientBegin"},
	{ClientUserinfoChanged, "ClientUserinfoChanged"},
	{ClientConnect, "ClientConnect"},
	{ShutdownGame, "ShutdownGame"},
	{Score, "score"},
	{Item, "Item"},
	{Exit, "Exit"},
}

var expectedHeaders = func() string {
	tags := make([]string, 0, len(headerTags)+1)
	for _, h := range headerTags {
		tags = append(tags, h.tag)
	}
	tags = append(tags, "spacer line")
	return "one of " + strings.Join(tags, ", ")
}()

var headerNames = [...]string{
	InitGame:              "InitGame",
	Kill:                  "Kill",
	ClientBegin:           "ClientBegin",
	ClientUserinfoChanged: "ClientUserinfoChanged",
	ClientConnect:         "ClientConnect",
	ShutdownGame:          "ShutdownGame",
	Score:                 "Score",
	Item:                  "Item",
	Exit:                  "Exit",
	Spacer:                "Spacer",
}

func (h Header) String() string {
	if h < 0 || int(h) >= len(headerNames) {
		return fmt.Sprintf("Header(%d)", int(h))
	}
	return headerNames[h]
}

// ClassifyHeader strips the timestamp and returns the line class. The
// remainder keeps everything after the keyword, including its colon:
//
//	"  1:47 ClientBegin: 3" -> (": 3", ClientBegin)
func ClassifyHeader(input string) (string, Header, error) {
	rest, _, err := ParseTimestamp(input)
	if err != nil {
		return input, 0, err
	}
	rest, _ = ParseWhitespace(rest)

	for _, t := range headerTags {
		if strings.HasPrefix(rest, t.tag) {
			return rest[len(t.tag):], t.header, nil
		}
	}

	if after, _, err := ParseSpacerLine(rest); err == nil {
		return after, Spacer, nil
	}

	return input, 0, mismatch(rest, expectedHeaders)
}
