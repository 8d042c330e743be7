package league

import (
	"strconv"
	"strings"
)

// Vendor payloads use wildly different field names for the same columns.
// Each canonical field resolves through an ordered candidate list; the first
// present key wins. Keep this table centralized and data-driven.
var (
	positionAliases = []string{"position", "pos", "rank", "rank_sort", "place"}
	teamAliases     = []string{"team", "team_name", "entry_name", "club", "squad", "name"}
	ownerAliases    = []string{"owner", "manager", "player_name", "owner_name", "manager_name", "user"}
	totalAliases    = []string{"total", "total_score", "total_points", "overall", "points_for", "score"}
	h2hAliases      = []string{"h2h", "h2h_points", "league_points", "points", "h2h_total", "matches_points"}
	valueAliases    = []string{"value", "team_value", "squad_value", "worth"}
	recentAliases   = []string{"recent", "form", "recent_form", "last5", "streak"}

	fixtureAOwnerAliases  = []string{"a_owner", "home_owner", "owner_a", "home_manager", "home"}
	fixtureBOwnerAliases  = []string{"b_owner", "away_owner", "owner_b", "away_manager", "away"}
	fixtureATeamAliases   = []string{"a_team", "home_team", "team_a", "home_entry"}
	fixtureBTeamAliases   = []string{"b_team", "away_team", "team_b", "away_entry"}
	fixtureAPointsAliases = []string{"a_points", "home_points", "points_a", "home_score"}
	fixtureBPointsAliases = []string{"b_points", "away_points", "points_b", "away_score"}

	priceNameAliases = []string{"name", "player", "player_name", "web_name"}
	priceTeamAliases = []string{"team", "club", "team_name", "team_short"}
	priceOldAliases  = []string{"old_price", "old", "was", "price_old", "from"}
	priceNewAliases  = []string{"new_price", "new", "now", "price_new", "to", "price"}

	// envelopeKeys are the wrapper keys a row array may hide behind.
	envelopeKeys = []string{"rows", "fixtures", "matches", "teams", "table", "standings", "results", "data"}
)

// lowerKeys copies a row with all keys lowercased for alias resolution.
func lowerKeys(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[strings.ToLower(k)] = v
	}
	return out
}

// lookupString resolves the first present alias to a trimmed string.
func lookupString(row map[string]any, aliases []string, fallback string) string {
	for _, key := range aliases {
		v, ok := row[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return fallback
}

// lookupNumber resolves the first present alias to a float64. JSON numbers,
// integers, and numeric strings all count; anything else falls through.
func lookupNumber(row map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := row[key]
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
