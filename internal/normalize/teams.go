package normalize

import (
	"strings"
)

// TeamMap resolves provider team spellings to canonical team IDs.
type TeamMap struct {
	exact  map[string]string
	folded map[string]string
}

// NewTeamMap builds a TeamMap from a display name -> team_id table.
func NewTeamMap(names map[string]string) *TeamMap {
	tm := &TeamMap{
		exact:  make(map[string]string, len(names)),
		folded: make(map[string]string, len(names)),
	}
	for name, id := range names {
		name = strings.TrimSpace(name)
		id = strings.TrimSpace(id)
		if name == "" || id == "" {
			continue
		}
		tm.exact[name] = id
		key := foldTeam(name)
		if _, dup := tm.folded[key]; !dup {
			tm.folded[key] = id
		}
	}
	return tm
}

// Lookup returns the team ID for name. An exact match on the trimmed name
// wins; otherwise a case- and accent-insensitive match is tried.
func (m *TeamMap) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if id, ok := m.exact[name]; ok {
		return id, true
	}
	id, ok := m.folded[foldTeam(name)]
	return id, ok
}

// Len returns the number of display names in the map.
func (m *TeamMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.exact)
}

func foldTeam(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(foldDiacritics(name)), " "))
}
