// Package session holds transient per-UI-session state for one instance:
// search, display mode and expansion, plus the lazily computed
// modified-name set and search matches the visibility filters read.
package session

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
)

// SearchMode selects which properties a search can match.
type SearchMode string

const (
	SearchAll      SearchMode = "all"
	SearchModified SearchMode = "modified"
)

// ParseSearchMode normalizes a search mode name. Empty means SearchAll.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return SearchAll, nil
	case "modified", "modifiedonly", "modified-only":
		return SearchModified, nil
	}
	return "", fmt.Errorf("invalid search mode %q: valid values are all, modified", s)
}

// DisplayMode toggles the session-wide filters.
type DisplayMode struct {
	ShowAdvanced           bool `json:"showAdvanced" yaml:"showAdvanced"`
	ShowHidden             bool `json:"showHidden" yaml:"showHidden"`
	ShowOnlyModified       bool `json:"showOnlyModified" yaml:"showOnlyModified"`
	ShowOnlyModifiedGroups bool `json:"showOnlyModifiedGroups" yaml:"showOnlyModifiedGroups"`
}

// State is one open session on one instance.
type State struct {
	ID         string
	InstanceID string
	SchemaID   string

	searchText string
	searchMode SearchMode
	display    DisplayMode
	expanded   map[string]bool

	modified     map[string]struct{}
	modifiedFrom *instance.Data

	matches      map[string]bool
	matchesFrom  *instance.Data
	matchesStale bool

	recomputes int
}

// New opens a session. Group expansion starts from each main's declared
// default; advanced headers start collapsed.
func New(id, instanceID string, s *schema.Data) *State {
	st := &State{
		ID:           id,
		InstanceID:   instanceID,
		SchemaID:     s.ID,
		searchMode:   SearchAll,
		expanded:     make(map[string]bool),
		matchesStale: true,
	}
	for i := 0; i < s.Len(); i++ {
		if n := s.Node(i); n.IsMain && n.DefaultExpanded {
			st.expanded[n.Name] = true
		}
	}
	return st
}

// SearchText returns the current query.
func (s *State) SearchText() string { return s.searchText }

// SearchMode returns the current search mode.
func (s *State) SearchMode() SearchMode { return s.searchMode }

// DisplayMode returns the current display mode.
func (s *State) DisplayMode() DisplayMode { return s.display }

// Recomputes counts how often a session-level cache was rebuilt.
func (s *State) Recomputes() int { return s.recomputes }

// SetDisplayMode replaces the display mode. It reports whether anything
// changed; a change drops the cached modified-name set.
func (s *State) SetDisplayMode(m DisplayMode) bool {
	if m == s.display {
		return false
	}
	s.display = m
	s.modifiedFrom = nil
	return true
}

// SetSearch replaces the query and mode, dropping cached matches on change.
func (s *State) SetSearch(text string, mode SearchMode) bool {
	if mode == "" {
		mode = SearchAll
	}
	if text == s.searchText && mode == s.searchMode {
		return false
	}
	s.searchText, s.searchMode = text, mode
	s.matchesStale = true
	return true
}

// IsExpanded reports whether the named group is expanded.
func (s *State) IsExpanded(name string) bool { return s.expanded[name] }

// ToggleExpand flips the named group and returns the new state.
func (s *State) ToggleExpand(name string) bool {
	s.expanded[name] = !s.expanded[name]
	return s.expanded[name]
}

// SetExpanded sets the named group's expansion.
func (s *State) SetExpanded(name string, expanded bool) {
	s.expanded[name] = expanded
}

// ModifiedSet returns the names of properties that are modified or have
// modified children. It is recomputed only when d is a different build or
// the display mode changed since the last call.
func (s *State) ModifiedSet(sc *schema.Data, d *instance.Data) map[string]struct{} {
	if s.modifiedFrom == d && s.modified != nil {
		return s.modified
	}
	set := make(map[string]struct{})
	for i := 0; i < sc.Len(); i++ {
		p := d.Prop(i)
		if p.HasModified || p.HasChildrenModified {
			set[sc.Node(i).Name] = struct{}{}
		}
	}
	s.modified, s.modifiedFrom = set, d
	s.recomputes++
	return set
}

// SearchMatches returns the per-property search result for the current
// query, recomputed only when the query or the instance build changed.
func (s *State) SearchMatches(sc *schema.Data, d *instance.Data) map[string]bool {
	if !s.matchesStale && s.matchesFrom == d && s.matches != nil {
		return s.matches
	}
	s.matches = ComputeSearchMatches(sc, d, s.searchText, s.searchMode)
	s.matchesFrom, s.matchesStale = d, false
	s.recomputes++
	return s.matches
}
