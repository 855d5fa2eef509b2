package standings

import "github.com/Dosada05/esports-tournament-engine/models"

// placementTable holds points for positions 1..8; index 0 is unused.
var placementTable = [...]int{0, 10, 6, 5, 4, 3, 2, 1, 1}

// PlacementPoints returns the points for a final position. Unranked (nil),
// non-positive and positions below 8th score nothing.
func PlacementPoints(position *int) int {
	if position == nil {
		return 0
	}
	p := *position
	if p < 1 || p >= len(placementTable) {
		return 0
	}
	return placementTable[p]
}

// MatchPoints is placement points plus one point per kill.
func MatchPoints(position *int, kills int) int {
	return PlacementPoints(position) + kills
}

// HasResult reports whether a row carries data. Rows with no position and
// no kills exist structurally but were never reported.
func HasResult(r models.TeamResult) bool {
	return r.Position != nil || r.Kills > 0
}

func isChickenDinner(position *int) bool {
	return position != nil && *position == 1
}
