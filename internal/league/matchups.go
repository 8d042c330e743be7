package league

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Rehan-24/fpl-digest/internal/config"
	"github.com/Rehan-24/fpl-digest/internal/types"
)

// minTeamsForPicks is the floor below which no matchups are selected at all.
const minTeamsForPicks = 6

// Canned reason phrases by table zone.
const (
	reasonTopZone    = "Top-of-the-table clash with title implications"
	reasonBottomZone = "Basement battle with pride on the line"
	reasonGeneric    = "Two sides building momentum"
	reasonRivalry    = "Old rivals renew hostilities"
)

// Selector picks the most dramatic matchups of a gameweek.
type Selector struct {
	scoring   config.ScoringConfig
	rivalries []types.Rivalry
	logger    *slog.Logger
}

// NewSelector creates a matchup selector.
func NewSelector(cfg *config.LeagueConfig, logger *slog.Logger) *Selector {
	return &Selector{
		scoring:   cfg.Scoring,
		rivalries: cfg.Rivalries,
		logger:    logger.With("component", "matchup_selector"),
	}
}

// Select returns up to MaxPicks highlighted matchups. With fixtures present
// each fixture is joined to its two standings and drama-scored; without
// fixtures a standings-only heuristic builds the picks. Fewer than six teams
// always yields an empty result.
func (s *Selector) Select(teams []types.TeamStanding, fixtures []types.Fixture, league string) []types.MatchupPick {
	if len(teams) < minTeamsForPicks {
		s.logger.Debug("too few teams for matchups", "teams", len(teams), "league", league)
		return nil
	}

	if len(fixtures) > 0 {
		return s.fromFixtures(teams, fixtures, league)
	}
	return s.heuristic(teams, league)
}

// scoredPair is a candidate matchup with its drama score.
type scoredPair struct {
	a, b    types.TeamStanding
	score   float64
	rivalry *types.Rivalry
}

// fromFixtures joins fixtures to standings and ranks them by drama score:
// 100 minus the capped H2H gap, plus combined total score over the divisor,
// plus zone and rivalry bonuses.
func (s *Selector) fromFixtures(teams []types.TeamStanding, fixtures []types.Fixture, league string) []types.MatchupPick {
	index := buildNameIndex(teams)

	var pairs []scoredPair
	for _, f := range fixtures {
		a, okA := joinSide(index, f.AOwner, f.ATeam)
		b, okB := joinSide(index, f.BOwner, f.BTeam)
		if !okA || !okB {
			continue
		}

		score := 100 - math.Min(100, math.Abs(a.H2HPoints-b.H2HPoints))
		score += (a.TotalScore + b.TotalScore) / s.scoring.ScoreDivisor
		score += s.zoneBonus(a, b, len(teams))

		rivalry := s.matchRivalry(a, b, league)
		if rivalry != nil {
			score += s.scoring.RivalryBonus
		}

		pairs = append(pairs, scoredPair{a: a, b: b, score: score, rivalry: rivalry})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	return s.collect(pairs, len(teams))
}

// heuristic builds picks without fixtures: the best title-race pair in the
// top six, the closest total-score pair mid-table, and the closest H2H pair
// in the bottom five, backfilled by position neighbors when short.
func (s *Selector) heuristic(teams []types.TeamStanding, league string) []types.MatchupPick {
	byPos := make([]types.TeamStanding, len(teams))
	copy(byPos, teams)
	sort.SliceStable(byPos, func(i, j int) bool { return byPos[i].Position < byPos[j].Position })

	var pairs []scoredPair

	// Title race: best combination of H2H closeness and raw scoring among
	// the top six.
	top := byPos[:min(6, len(byPos))]
	if p, ok := bestPair(top, func(a, b types.TeamStanding) float64 {
		return (100 - math.Abs(a.H2HPoints-b.H2HPoints)) + (a.TotalScore+b.TotalScore)/s.scoring.ScoreDivisor
	}); ok {
		p.score = 3
		pairs = append(pairs, p)
	}

	// Mid-table: closest total scores in the middle window.
	if len(byPos) > 8 {
		mid := byPos[4 : len(byPos)-4]
		if p, ok := bestPair(mid, func(a, b types.TeamStanding) float64 {
			return -math.Abs(a.TotalScore - b.TotalScore)
		}); ok {
			p.score = 2
			pairs = append(pairs, p)
		}
	}

	// Bottom five: closest H2H points.
	bottom := byPos[max(0, len(byPos)-5):]
	if p, ok := bestPair(bottom, func(a, b types.TeamStanding) float64 {
		return -math.Abs(a.H2HPoints - b.H2HPoints)
	}); ok {
		p.score = 1
		pairs = append(pairs, p)
	}

	// Backfill from neighbor-by-position pairs ranked by H2H closeness.
	var neighbors []scoredPair
	for i := 0; i+1 < len(byPos); i++ {
		neighbors = append(neighbors, scoredPair{
			a:     byPos[i],
			b:     byPos[i+1],
			score: -math.Abs(byPos[i].H2HPoints - byPos[i+1].H2HPoints),
		})
	}
	sort.SliceStable(neighbors, func(i, j int) bool { return neighbors[i].score > neighbors[j].score })
	for i := range neighbors {
		neighbors[i].score = 0
	}
	pairs = append(pairs, neighbors...)

	for i := range pairs {
		pairs[i].rivalry = s.matchRivalry(pairs[i].a, pairs[i].b, league)
	}
	return s.collect(pairs, len(teams))
}

// collect greedily selects distinct pairs (by unordered team names) and
// assigns reasons.
func (s *Selector) collect(pairs []scoredPair, totalTeams int) []types.MatchupPick {
	maxPicks := s.scoring.MaxPicks
	seen := make(map[string]struct{})
	var picks []types.MatchupPick

	for _, p := range pairs {
		if len(picks) >= maxPicks {
			break
		}
		key := pairKey(p.a.Team, p.b.Team)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		picks = append(picks, types.MatchupPick{
			A:              p.a,
			B:              p.b,
			Label:          fmt.Sprintf("%s vs %s", p.a.Team, p.b.Team),
			Reason:         s.reason(p, totalTeams),
			RivalryApplied: p.rivalry != nil,
		})
	}
	return picks
}

// reason picks the flavor text: rivalry first, then table zone, then the
// generic phrase.
func (s *Selector) reason(p scoredPair, totalTeams int) string {
	if p.rivalry != nil {
		if p.rivalry.Reason != "" {
			return p.rivalry.Reason
		}
		return reasonRivalry
	}
	if s.inTopZone(p.a, p.b) {
		return reasonTopZone
	}
	if s.inBottomZone(p.a, p.b, totalTeams) {
		return reasonBottomZone
	}
	return reasonGeneric
}

func (s *Selector) zoneBonus(a, b types.TeamStanding, totalTeams int) float64 {
	if s.inTopZone(a, b) {
		return s.scoring.TopZoneBonus
	}
	if s.inBottomZone(a, b, totalTeams) {
		return s.scoring.BottomZoneBonus
	}
	return 0
}

func (s *Selector) inTopZone(a, b types.TeamStanding) bool {
	return a.Position <= s.scoring.TopZoneSize && b.Position <= s.scoring.TopZoneSize
}

func (s *Selector) inBottomZone(a, b types.TeamStanding, totalTeams int) bool {
	floor := totalTeams - s.scoring.BottomZoneSize
	return a.Position > floor && b.Position > floor
}

// matchRivalry finds a configured rivalry matching the pair by owner or team
// name, in either assignment order.
func (s *Selector) matchRivalry(a, b types.TeamStanding, league string) *types.Rivalry {
	for i := range s.rivalries {
		r := &s.rivalries[i]
		if r.League != "" && !strings.EqualFold(r.League, league) {
			continue
		}
		if sideMatches(a, r.A) && sideMatches(b, r.B) {
			return r
		}
		if sideMatches(a, r.B) && sideMatches(b, r.A) {
			return r
		}
	}
	return nil
}

func sideMatches(t types.TeamStanding, name string) bool {
	n := NormalizeName(name)
	return n != "" && (NormalizeName(t.Owner) == n || NormalizeName(t.Team) == n)
}

// bestPair returns the highest-scoring pair in a window.
func bestPair(window []types.TeamStanding, score func(a, b types.TeamStanding) float64) (scoredPair, bool) {
	best := scoredPair{score: math.Inf(-1)}
	found := false
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			if v := score(window[i], window[j]); v > best.score {
				best = scoredPair{a: window[i], b: window[j], score: v}
				found = true
			}
		}
	}
	return best, found
}

// buildNameIndex maps normalized owner and team names to standings.
func buildNameIndex(teams []types.TeamStanding) map[string]types.TeamStanding {
	index := make(map[string]types.TeamStanding, len(teams)*2)
	for _, t := range teams {
		if k := NormalizeName(t.Owner); k != "" {
			index[k] = t
		}
		if k := NormalizeName(t.Team); k != "" {
			index[k] = t
		}
	}
	return index
}

// joinSide resolves one fixture side by owner name first, then team name.
func joinSide(index map[string]types.TeamStanding, owner, team string) (types.TeamStanding, bool) {
	if t, ok := index[NormalizeName(owner)]; ok && owner != "" {
		return t, true
	}
	if t, ok := index[NormalizeName(team)]; ok && team != "" {
		return t, true
	}
	return types.TeamStanding{}, false
}

// pairKey builds an order-independent dedup key for a team pair.
func pairKey(a, b string) string {
	x, y := NormalizeName(a), NormalizeName(b)
	if x > y {
		x, y = y, x
	}
	return x + "|" + y
}

// NormalizeName lowercases, strips diacritics, and collapses whitespace so
// joins tolerate vendor spelling differences.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
