// Package keywordrouter classifies an inbound SMS body into an intent
// without touching the database or network.
package keywordrouter

import (
	"strings"

	"github.com/google/uuid"
)

// Intent is the classification KeywordRouter assigns to an inbound body.
type Intent int

const (
	Conversational Intent = iota
	OptIn
	OptOut
)

var optOutTokens = map[string]bool{
	"STOP":        true,
	"UNSUBSCRIBE": true,
}

// Keyword is the minimal shape KeywordRouter needs from a signup keyword.
// Fields beyond Text are carried through untouched for InboundProcessor's
// use; KeywordRouter itself only inspects Text.
type Keyword struct {
	Text         string
	AutoResponse string
	ListID       *uuid.UUID
}

// Lookup resolves a normalized keyword token to an active signup keyword,
// or reports found=false.
type Lookup func(normalized string) (Keyword, bool)

// Decision is the result of routing one inbound body.
type Decision struct {
	Intent  Intent
	Keyword Keyword // set only when Intent == OptIn
	RawBody string  // preserved verbatim for Conversational
}

// Route classifies raw against the opt-out tokens and lookup, in that
// order — opt-out always wins, even over a keyword literally named STOP.
func Route(raw string, lookup Lookup) Decision {
	normalized := strings.ToUpper(strings.TrimSpace(raw))

	if optOutTokens[normalized] {
		return Decision{Intent: OptOut, RawBody: raw}
	}

	if kw, ok := lookup(normalized); ok {
		return Decision{Intent: OptIn, Keyword: kw, RawBody: raw}
	}

	return Decision{Intent: Conversational, RawBody: raw}
}
