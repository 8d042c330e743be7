package league

import (
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/Rehan-24/fpl-digest/internal/types"
)

// ParseStandingsTable extracts rows from the first HTML table in a standings
// page. The header row supplies the keys; field names are resolved through
// the alias table downstream, so vendor column captions pass straight
// through. Used when a standings endpoint serves HTML instead of JSON.
func ParseStandingsTable(htmlSrc string) ([]map[string]any, error) {
	doc, err := htmlquery.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, &types.ValidationError{Source: "standings-table", Err: err}
	}

	table := htmlquery.FindOne(doc, "//table")
	if table == nil {
		return nil, &types.ValidationError{Source: "standings-table", Err: types.ErrNoUsableRows}
	}

	trs := htmlquery.Find(table, ".//tr")
	if len(trs) < 2 {
		return nil, &types.ValidationError{Source: "standings-table", Err: types.ErrNoUsableRows}
	}

	var headers []string
	for _, cell := range htmlquery.Find(trs[0], "./th|./td") {
		headers = append(headers, headerKey(htmlquery.InnerText(cell)))
	}
	if len(headers) == 0 {
		return nil, &types.ValidationError{Source: "standings-table", Err: types.ErrNoUsableRows}
	}

	var rows []map[string]any
	for _, tr := range trs[1:] {
		cells := htmlquery.Find(tr, "./td|./th")
		if len(cells) == 0 {
			continue
		}
		row := make(map[string]any, len(cells))
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(htmlquery.InnerText(cell))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, &types.ValidationError{Source: "standings-table", Err: types.ErrNoUsableRows}
	}
	return rows, nil
}

// headerKey turns a column caption into a lookup key: lowercased with
// whitespace collapsed to underscores ("Total Score" -> "total_score").
func headerKey(caption string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(caption)))
	return strings.Join(fields, "_")
}
