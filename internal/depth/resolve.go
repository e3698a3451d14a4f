// Package depth resolves provider conflicts, builds the canonical depth chart
// and derives usage priors from it.
package depth

import (
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// Resolver collapses normalized entries to one per (team, position, player).
type Resolver struct {
	precedence map[model.Provider]int
}

// NewResolver creates a Resolver with the given provider precedence.
// Providers missing from the table rank 0.
func NewResolver(precedence map[model.Provider]int) *Resolver {
	return &Resolver{precedence: precedence}
}

// Resolution is the resolver output. Order lists keys by first appearance in
// the input, which is the order ties keep in the depth chart.
type Resolution struct {
	Winners   map[model.DepthKey]model.CanonicalDepthEntry
	Order     []model.DepthKey
	Conflicts int // keys that saw more than one record
}

// Entries returns the winning entries in first-appearance order.
func (r Resolution) Entries() []model.CanonicalDepthEntry {
	out := make([]model.CanonicalDepthEntry, 0, len(r.Order))
	for _, k := range r.Order {
		out = append(out, r.Winners[k])
	}
	return out
}

// Resolve keeps, for each key, the entry from the highest-precedence provider,
// then the latest file mtime. The winner per key does not depend on input order.
func (r *Resolver) Resolve(entries []model.CanonicalDepthEntry) Resolution {
	res := Resolution{Winners: make(map[model.DepthKey]model.CanonicalDepthEntry, len(entries))}
	seen := make(map[model.DepthKey]int, len(entries))

	for _, e := range entries {
		k := e.Key()
		seen[k]++
		cur, ok := res.Winners[k]
		if !ok {
			res.Winners[k] = e
			res.Order = append(res.Order, k)
			continue
		}
		if r.beats(e, cur) {
			res.Winners[k] = e
		}
	}

	for _, n := range seen {
		if n > 1 {
			res.Conflicts++
		}
	}

	zap.L().Debug("depth conflicts resolved",
		zap.Int("entries", len(entries)),
		zap.Int("keys", len(res.Order)),
		zap.Int("conflicts", res.Conflicts),
	)
	return res
}

// beats reports whether a should replace b.
func (r *Resolver) beats(a, b model.CanonicalDepthEntry) bool {
	pa, pb := r.precedence[a.Source], r.precedence[b.Source]
	if pa != pb {
		return pa > pb
	}
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	// Equal precedence and mtime: a total order on the payload keeps the
	// result independent of input order.
	if a.PosRank != b.PosRank {
		return a.PosRank < b.PosRank
	}
	if a.Status != b.Status {
		return a.Status < b.Status
	}
	if a.Notes != b.Notes {
		return a.Notes < b.Notes
	}
	if a.TeamName != b.TeamName {
		return a.TeamName < b.TeamName
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.PlayerName < b.PlayerName
}
