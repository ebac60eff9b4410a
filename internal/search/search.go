// Package search filters notes by message text.
package search

import (
	"strings"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// Notes returns the notes whose message contains term, ignoring case.
// Input order is preserved. A blank term matches every note.
func Notes(term string, notes []*models.Note) []*models.Note {
	needle := strings.ToLower(strings.TrimSpace(term))
	matches := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if needle == "" || strings.Contains(strings.ToLower(n.Message), needle) {
			matches = append(matches, n)
		}
	}
	return matches
}
