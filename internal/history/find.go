package history

import (
	"sort"
	"strings"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// Match is a scored search hit.
type Match struct {
	Entry     model.HistoryEntry `json:"entry"`
	Score     int                `json:"score"`
	MatchType string             `json:"match_type"` // "id", "description"
}

// Find returns entries matching query, best first, newest first on ties.
func (m *Manager) Find(query string, maxResults int) []Match {
	queryLower := strings.ToLower(query)
	entries := m.Entries()

	var matches []Match
	for i := len(entries) - 1; i >= 0; i-- {
		score, matchType := scoreMatch(entries[i], query, queryLower)
		if score > 0 {
			matches = append(matches, Match{Entry: entries[i], Score: score, MatchType: matchType})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// Resolve maps a full id or a unique id prefix to an entry id.
func (m *Manager) Resolve(query string) (string, error) {
	if query == "" {
		return "", errclass.ErrEntryNotFound.WithMessage("empty history id")
	}
	if _, ok := m.Get(query); ok {
		return query, nil
	}
	var hit string
	for _, e := range m.Entries() {
		if strings.HasPrefix(e.ID, query) {
			if hit != "" {
				return "", errclass.ErrEntryNotFound.WithMessagef("history id %s is ambiguous", query)
			}
			hit = e.ID
		}
	}
	if hit == "" {
		return "", errclass.ErrEntryNotFound.WithMessagef("history entry %s not found", query)
	}
	return hit, nil
}

func scoreMatch(e model.HistoryEntry, query, queryLower string) (int, string) {
	if query == "" {
		return 0, ""
	}
	descLower := strings.ToLower(e.ActionDescription)
	switch {
	case e.ID == query:
		return 1000, "id"
	case strings.HasPrefix(e.ID, query):
		return 900, "id"
	case descLower == queryLower:
		return 600, "description"
	case strings.HasPrefix(descLower, queryLower):
		return 500, "description"
	case strings.Contains(descLower, queryLower):
		return 100, "description"
	}
	return 0, ""
}
