package league

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// ExtractRows pulls the row array out of a decoded payload. Endpoints return
// either a bare array or an object wrapping one under a known envelope key.
// Non-object elements are skipped.
func ExtractRows(payload any) ([]map[string]any, error) {
	arr, ok := payload.([]any)
	if !ok {
		obj, isObj := payload.(map[string]any)
		if !isObj {
			return nil, &types.ValidationError{Source: "rows", Err: fmt.Errorf("payload is neither array nor object")}
		}
		for _, key := range envelopeKeys {
			if inner, found := obj[key].([]any); found {
				arr = inner
				break
			}
		}
		if arr == nil {
			return nil, &types.ValidationError{Source: "rows", Err: types.ErrNoUsableRows}
		}
	}

	rows := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if row, isMap := el.(map[string]any); isMap {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, &types.ValidationError{Source: "rows", Err: types.ErrNoUsableRows}
	}
	return rows, nil
}

// DecodeRows unmarshals a JSON body and extracts its row array.
func DecodeRows(body []byte) ([]map[string]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &types.ValidationError{Source: "rows", Err: err}
	}
	return ExtractRows(payload)
}

// NormalizeStandings maps heterogeneous table rows onto the canonical shape.
// Missing numerics default to 0, missing strings to "Unknown"/"Unknown Team".
// The result is sorted by position and positions are reassigned contiguously
// from 1, making the operation idempotent on its own output.
func NormalizeStandings(rows []map[string]any) []types.TeamStanding {
	standings := make([]types.TeamStanding, 0, len(rows))

	for _, raw := range rows {
		row := lowerKeys(raw)

		pos, _ := lookupNumber(row, positionAliases)
		total, _ := lookupNumber(row, totalAliases)
		h2h, _ := lookupNumber(row, h2hAliases)
		value, _ := lookupNumber(row, valueAliases)

		standings = append(standings, types.TeamStanding{
			Position:   int(pos),
			Team:       lookupString(row, teamAliases, "Unknown Team"),
			Owner:      lookupString(row, ownerAliases, "Unknown"),
			TotalScore: total,
			H2HPoints:  h2h,
			Value:      value,
			Recent:     lookupString(row, recentAliases, ""),
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Position < standings[j].Position
	})
	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}

// NormalizeFixtures maps fixture rows onto the canonical pairing shape.
// A row missing both the owner and team name on either side is malformed and
// skipped; the pipeline continues with the remaining rows.
func NormalizeFixtures(rows []map[string]any) []types.Fixture {
	fixtures := make([]types.Fixture, 0, len(rows))

	for _, raw := range rows {
		row := lowerKeys(raw)

		f := types.Fixture{
			AOwner: lookupString(row, fixtureAOwnerAliases, ""),
			BOwner: lookupString(row, fixtureBOwnerAliases, ""),
			ATeam:  lookupString(row, fixtureATeamAliases, ""),
			BTeam:  lookupString(row, fixtureBTeamAliases, ""),
		}
		if (f.AOwner == "" && f.ATeam == "") || (f.BOwner == "" && f.BTeam == "") {
			continue
		}

		if pts, ok := lookupNumber(row, fixtureAPointsAliases); ok {
			f.APoints = &pts
		}
		if pts, ok := lookupNumber(row, fixtureBPointsAliases); ok {
			f.BPoints = &pts
		}
		fixtures = append(fixtures, f)
	}
	return fixtures
}

// PriceRow is one raw price-change entry before classification.
type PriceRow struct {
	Name string
	Team string
	Old  float64
	New  float64
}

// NormalizePriceRows maps price-change rows onto PriceRow, skipping rows
// without a player name or without both prices.
func NormalizePriceRows(rows []map[string]any) []PriceRow {
	out := make([]PriceRow, 0, len(rows))
	for _, raw := range rows {
		row := lowerKeys(raw)

		name := lookupString(row, priceNameAliases, "")
		if name == "" {
			continue
		}
		oldPrice, okOld := lookupNumber(row, priceOldAliases)
		newPrice, okNew := lookupNumber(row, priceNewAliases)
		if !okOld || !okNew {
			continue
		}

		out = append(out, PriceRow{
			Name: name,
			Team: lookupString(row, priceTeamAliases, "Unknown Team"),
			Old:  oldPrice,
			New:  newPrice,
		})
	}
	return out
}
