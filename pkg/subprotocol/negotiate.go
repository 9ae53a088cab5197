package subprotocol

import (
	"net/http"
	"strings"
)

// HeaderName is the handshake header carrying offered sub-protocols.
const HeaderName = "Sec-WebSocket-Protocol"

// Result is the outcome of a negotiation.
type Result struct {
	Family Family
	Token  string
}

// Negotiate classifies candidates and selects the accepted token from the
// family's table in reg.
func Negotiate(reg *Registry, candidates []string) Result {
	family := Classify(candidates)
	return Result{
		Family: family,
		Token:  Select(candidates, reg.Lookup(family), family.DefaultToken()),
	}
}

// ParseHeader returns the sub-protocols offered in h, in the order the client
// sent them. Repeated header lines are concatenated, values are split on
// commas, and blank tokens are dropped. A missing or unusable header yields
// nil.
func ParseHeader(h http.Header) []string {
	var tokens []string
	for _, line := range h.Values(HeaderName) {
		for _, tok := range strings.Split(line, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
