package subprotocol

// Select returns the offered candidate with the highest priority in table.
// Candidates not registered in table are ignored. When no candidate is
// registered, def is returned as is, even if table does not contain it.
// Among candidates of equal priority the one offered first wins.
func Select(candidates []string, table Table, def string) string {
	best := ""
	bestPriority := 0
	found := false

	for _, c := range candidates {
		p, ok := table.Priority(c)
		if !ok {
			continue
		}
		if !found || p > bestPriority {
			best, bestPriority, found = c, p, true
		}
	}

	if !found {
		return def
	}
	return best
}
