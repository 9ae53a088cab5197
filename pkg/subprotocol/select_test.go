package subprotocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	stomp := DefaultRegistry().Lookup(FamilySTOMP)
	mqtt := DefaultRegistry().Lookup(FamilyMQTT)

	tests := []struct {
		name       string
		candidates []string
		table      Table
		def        string
		want       string
	}{
		{"highest stomp version wins", []string{"v12.stomp", "v10.stomp"}, stomp, "stomp", "v12.stomp"},
		{"client order is irrelevant", []string{"v10.stomp", "v11.stomp", "v12.stomp"}, stomp, "stomp", "v12.stomp"},
		{"unregistered tokens ignored", []string{"foo", "v11.stomp", "bar"}, stomp, "stomp", "v11.stomp"},
		{"registered bare stomp", []string{"stomp"}, stomp, "stomp", "stomp"},
		{"mqtt 3.1", []string{"mqttv3.1"}, mqtt, "mqtt", "mqttv3.1"},
		{"mqtt over bare mqtt", []string{"mqtt", "mqttv3.1"}, mqtt, "mqtt", "mqttv3.1"},
		{"empty falls back to default", nil, stomp, "stomp", "stomp"},
		{"no match falls back to default", []string{"graphql-ws", "wamp"}, stomp, "stomp", "stomp"},
		{"other family's tokens do not match", []string{"mqtt"}, stomp, "stomp", "stomp"},
		{"default returned literally", []string{"x"}, Table{}, "not-registered", "not-registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.candidates, tt.table, tt.def))
		})
	}
}

func TestSelect_EqualPrioritiesPreferFirstOffered(t *testing.T) {
	table := NewTable(map[string]int{"a": 1, "b": 1, "c": 0})

	assert.Equal(t, "b", Select([]string{"c", "b", "a"}, table, "z"))
	assert.Equal(t, "a", Select([]string{"a", "b"}, table, "z"))
}

func TestSelect_AlwaysReturnsHighestRegistered(t *testing.T) {
	table := DefaultRegistry().Lookup(FamilySTOMP)
	tokens := table.Tokens()

	// Every non-empty subset of registered tokens, in both orders.
	for mask := 1; mask < 1<<len(tokens); mask++ {
		var subset []string
		best, bestPriority := "", -1
		for i, tok := range tokens {
			if mask&(1<<i) == 0 {
				continue
			}
			subset = append(subset, tok)
			if p, _ := table.Priority(tok); p > bestPriority {
				best, bestPriority = tok, p
			}
		}
		reversed := make([]string, len(subset))
		for i := range subset {
			reversed[len(subset)-1-i] = subset[i]
		}

		assert.Equal(t, best, Select(subset, table, "stomp"), "subset %v", subset)
		assert.Equal(t, best, Select(reversed, table, "stomp"), "subset %v", reversed)
	}
}
