package page

import (
	"strings"

	"github.com/Chqrety/reservation/internal/models"
)

// MatchLocations keeps the locations whose name or address contains query,
// case-insensitively. An empty query keeps everything.
func MatchLocations(items []models.Location, query string) []models.Location {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]models.Location, 0, len(items))
	for i := range items {
		if strings.Contains(strings.ToLower(items[i].DisplayName()), q) ||
			strings.Contains(strings.ToLower(items[i].Address), q) {
			out = append(out, items[i])
		}
	}
	return out
}
