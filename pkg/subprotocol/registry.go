package subprotocol

import (
	"fmt"
	"sort"
)

// Table maps the tokens of one family to their priority. Higher priority
// wins. A Table is read-only; the zero value is an empty table.
type Table struct {
	priorities map[string]int
}

// NewTable copies priorities into a new Table.
func NewTable(priorities map[string]int) Table {
	t := Table{priorities: make(map[string]int, len(priorities))}
	for token, p := range priorities {
		t.priorities[token] = p
	}
	return t
}

// Priority returns the priority of token and whether it is registered.
func (t Table) Priority(token string) (int, bool) {
	p, ok := t.priorities[token]
	return p, ok
}

// Len returns the number of registered tokens.
func (t Table) Len() int {
	return len(t.priorities)
}

// Tokens returns the registered tokens ordered by descending priority, ties
// broken alphabetically.
func (t Table) Tokens() []string {
	tokens := make([]string, 0, len(t.priorities))
	for token := range t.priorities {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		pi, pj := t.priorities[tokens[i]], t.priorities[tokens[j]]
		if pi != pj {
			return pi > pj
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}

// Registry holds the priority table of every family. It is built once at
// startup and never mutated, so lookups need no synchronization.
type Registry struct {
	tables map[Family]Table
	owner  map[string]Family
}

// NewRegistry builds a Registry from per-family priority maps. Every token
// must be non-empty and belong to exactly one family.
func NewRegistry(tables map[Family]map[string]int) (*Registry, error) {
	r := &Registry{
		tables: make(map[Family]Table, len(tables)),
		owner:  make(map[string]Family),
	}

	for family := range tables {
		if !family.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(family))
		}
	}

	// Declaration order keeps duplicate errors deterministic.
	for _, family := range Families {
		priorities, ok := tables[family]
		if !ok {
			continue
		}
		for token := range priorities {
			if token == "" {
				return nil, fmt.Errorf("%w in %s table", ErrEmptyToken, family)
			}
			if prev, dup := r.owner[token]; dup {
				return nil, fmt.Errorf("%w: %q claimed by %s and %s", ErrDuplicateToken, token, prev, family)
			}
			r.owner[token] = family
		}
		r.tables[family] = NewTable(priorities)
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is intended for
// tables compiled into the binary.
func MustRegistry(tables map[Family]map[string]int) *Registry {
	r, err := NewRegistry(tables)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultTables returns the built-in priority tables.
func DefaultTables() map[Family]map[string]int {
	return map[Family]map[string]int{
		FamilySTOMP: {
			"v12.stomp": 3,
			"v11.stomp": 2,
			"v10.stomp": 1,
			"stomp":     0,
		},
		FamilyMQTT: {
			"mqttv3.1": 1,
			"mqtt":     0,
		},
	}
}

var defaultRegistry = MustRegistry(DefaultTables())

// DefaultRegistry returns the shared registry built from DefaultTables.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Lookup returns the table for family. Unknown families yield an empty table.
func (r *Registry) Lookup(family Family) Table {
	if r == nil {
		return Table{}
	}
	return r.tables[family]
}
