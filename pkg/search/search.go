// Package search finds entities of an analysis by name.
//
// A query is either a case-insensitive substring or, when it contains glob
// metacharacters (* ? [ {), a case-insensitive glob matched against the
// entity name and, failing that, the full id:
//
//	search.Run(scope, "order", search.Options{})           // substring
//	search.Run(scope, "*Service", search.Options{})        // glob on names
//	search.Run(scope, "mod:shop.*", search.Options{})      // glob on ids
//
// Hits are ranked exact name match, name prefix, name substring, id match;
// ties keep input order.
package search

import (
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/pyview/hiergraph/pkg/entity"
	"github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/view"
)

// DefaultLimit caps the number of hits when Options.Limit is zero.
const DefaultLimit = 50

// MaxQueryLength bounds query strings.
const MaxQueryLength = 256

// Options narrows a search.
type Options struct {
	// Kinds restricts hits to these entity kinds. Empty means all.
	Kinds []entity.Kind
	// CycleOnly keeps only entities that are part of a cycle.
	CycleOnly bool
	// Limit caps the number of hits. Zero means DefaultLimit, negative
	// means unlimited.
	Limit int
}

// Hit is one matching entity.
type Hit struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	LevelName     string `json:"levelName"`
	ParentID      string `json:"parentId,omitempty"`
	IsInCycle     bool   `json:"isInCycle"`
	CycleSeverity string `json:"cycleSeverity,omitempty"`

	rank int
}

// Match ranks.
const (
	rankExact = iota
	rankPrefix
	rankName
	rankID
	noMatch
)

// Result is the outcome of a search.
type Result struct {
	Query     string `json:"query"`
	Glob      bool   `json:"glob"`
	Total     int    `json:"total"`
	Truncated bool   `json:"truncated"`
	Hits      []Hit  `json:"hits"`
}

// IsGlob reports whether q is treated as a glob pattern.
func IsGlob(q string) bool {
	return strings.ContainsAny(q, "*?[{")
}

type matcher func(name, id string) int

func compile(q string) (matcher, bool, error) {
	lower := strings.ToLower(q)
	if !IsGlob(q) {
		return func(name, id string) int {
			name = strings.ToLower(name)
			switch {
			case name == lower:
				return rankExact
			case strings.HasPrefix(name, lower):
				return rankPrefix
			case strings.Contains(name, lower):
				return rankName
			case strings.Contains(strings.ToLower(id), lower):
				return rankID
			}
			return noMatch
		}, false, nil
	}

	g, err := glob.Compile(lower)
	if err != nil {
		return nil, true, errors.Wrap(errors.ErrCodeInvalidPattern, err, "invalid search pattern %q", q)
	}
	return func(name, id string) int {
		switch {
		case g.Match(strings.ToLower(name)):
			return rankName
		case g.Match(strings.ToLower(id)):
			return rankID
		}
		return noMatch
	}, true, nil
}

// Run searches the entities of s.
func Run(s *view.Scope, query string, opts Options) (Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "empty search query")
	}
	if len(q) > MaxQueryLength {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "search query exceeds %d characters", MaxQueryLength)
	}
	match, isGlob, err := compile(q)
	if err != nil {
		return Result{}, err
	}

	res := Result{Query: q, Glob: isGlob, Hits: []Hit{}}
	for _, e := range s.Graph.Entities() {
		if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, e.Kind) {
			continue
		}
		inCycle := s.Cycles.HasNode(e.ID)
		if opts.CycleOnly && !inCycle {
			continue
		}
		rank := match(e.Name, e.ID)
		if rank == noMatch {
			continue
		}
		h := Hit{
			ID:        e.ID,
			Name:      e.Name,
			Kind:      e.Kind.String(),
			LevelName: entity.LevelName(e.Level()),
			ParentID:  e.ParentID,
			IsInCycle: inCycle,
			rank:      rank,
		}
		if inCycle {
			h.CycleSeverity = string(s.Memberships.Severity(e.ID))
		}
		res.Hits = append(res.Hits, h)
	}

	slices.SortStableFunc(res.Hits, func(a, b Hit) int { return a.rank - b.rank })
	res.Total = len(res.Hits)

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > 0 && len(res.Hits) > limit {
		res.Hits = res.Hits[:limit]
		res.Truncated = true
	}
	return res, nil
}
