package league

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

func TestDecodeRowsBareArray(t *testing.T) {
	rows, err := DecodeRows([]byte(`[{"team":"Alpha"},{"team":"Beta"}]`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestDecodeRowsEnvelope(t *testing.T) {
	for _, key := range []string{"rows", "standings", "results", "data"} {
		rows, err := DecodeRows([]byte(`{"` + key + `":[{"team":"Alpha"}]}`))
		if err != nil {
			t.Fatalf("envelope %q: %v", key, err)
		}
		if len(rows) != 1 {
			t.Errorf("envelope %q: got %d rows", key, len(rows))
		}
	}
}

func TestDecodeRowsNoUsableRows(t *testing.T) {
	_, err := DecodeRows([]byte(`{"meta":"nothing here"}`))
	if !errors.Is(err, types.ErrNoUsableRows) {
		t.Fatalf("expected ErrNoUsableRows, got %v", err)
	}
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestNormalizeStandingsAliases(t *testing.T) {
	rows := []map[string]any{
		{"Rank": 2, "entry_name": "Beta FC", "manager": "Bea", "total_points": "1402", "league_points": 30},
		{"pos": 1, "club": "Alpha FC", "owner": "Al", "score": 1500.0, "h2h": 33.0, "form": "WWDLW"},
	}

	got := NormalizeStandings(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(got))
	}
	if got[0].Team != "Alpha FC" || got[0].Position != 1 || got[0].TotalScore != 1500 || got[0].H2HPoints != 33 {
		t.Errorf("first standing wrong: %+v", got[0])
	}
	if got[1].Team != "Beta FC" || got[1].Position != 2 || got[1].TotalScore != 1402 {
		t.Errorf("second standing wrong: %+v", got[1])
	}
	if got[0].Recent != "WWDLW" {
		t.Errorf("form alias not resolved: %q", got[0].Recent)
	}
}

func TestNormalizeStandingsDefaults(t *testing.T) {
	got := NormalizeStandings([]map[string]any{{}})
	if got[0].Team != "Unknown Team" || got[0].Owner != "Unknown" {
		t.Errorf("defaults wrong: %+v", got[0])
	}
	if got[0].TotalScore != 0 || got[0].H2HPoints != 0 {
		t.Errorf("numeric defaults wrong: %+v", got[0])
	}
	if got[0].Position != 1 {
		t.Errorf("position not reassigned: %d", got[0].Position)
	}
}

func TestNormalizeStandingsIdempotent(t *testing.T) {
	rows := []map[string]any{
		{"pos": 7, "team": "Gamma", "manager": "G", "total": 900.0, "h2h": 12.0},
		{"pos": 3, "team": "Alpha", "manager": "A", "total": 1100.0, "h2h": 20.0},
		{"pos": 5, "team": "Beta", "manager": "B", "total": 1000.0, "h2h": 15.0},
	}

	once := NormalizeStandings(rows)

	// Feed the normalized output back through as rows.
	again := make([]map[string]any, len(once))
	for i, s := range once {
		again[i] = map[string]any{
			"position": s.Position, "team": s.Team, "owner": s.Owner,
			"total": s.TotalScore, "h2h": s.H2HPoints, "value": s.Value, "recent": s.Recent,
		}
	}
	twice := NormalizeStandings(again)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	for i, s := range once {
		if s.Position != i+1 {
			t.Errorf("positions not contiguous: %+v", once)
		}
	}
}

func TestNormalizeFixturesSkipsMalformed(t *testing.T) {
	rows := []map[string]any{
		{"home_owner": "Al", "away_owner": "Bea", "home_points": 42.0, "away_points": 40.0},
		{"home_owner": "", "home_team": "", "away_owner": "Cy"},
		{"away_team": "Delta FC", "home_team": "Echo FC"},
	}

	got := NormalizeFixtures(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(got))
	}
	if got[0].AOwner != "Al" || got[0].BOwner != "Bea" {
		t.Errorf("first fixture wrong: %+v", got[0])
	}
	if got[0].APoints == nil || *got[0].APoints != 42 {
		t.Errorf("points not carried: %+v", got[0])
	}
	if got[1].APoints != nil {
		t.Errorf("absent points should stay nil: %+v", got[1])
	}
}

func TestNormalizePriceRows(t *testing.T) {
	rows := []map[string]any{
		{"player": "Haaland", "club": "MCI", "old": 151.0, "new": 152.0},
		{"old": 50.0, "new": 49.0}, // no name
		{"player": "Saka", "club": "ARS"}, // no prices
	}

	got := NormalizePriceRows(rows)
	if len(got) != 1 {
		t.Fatalf("expected 1 price row, got %d", len(got))
	}
	if got[0].Name != "Haaland" || got[0].Old != 151 || got[0].New != 152 {
		t.Errorf("price row wrong: %+v", got[0])
	}
}
