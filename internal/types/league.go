package types

// TeamStanding is one row of a normalized mini-league table. After
// normalization, positions within one table are unique and contiguous from 1.
type TeamStanding struct {
	Position   int     `json:"position"`
	Team       string  `json:"team"`
	Owner      string  `json:"owner"`
	TotalScore float64 `json:"total_score"`
	H2HPoints  float64 `json:"h2h_points"`
	Value      float64 `json:"value"`
	Recent     string  `json:"recent"`
}

// Fixture pairs two managers for a gameweek. Owner and team names reference
// TeamStandings by a best-effort, case- and diacritic-insensitive join.
type Fixture struct {
	AOwner  string   `json:"a_owner"`
	BOwner  string   `json:"b_owner"`
	ATeam   string   `json:"a_team"`
	BTeam   string   `json:"b_team"`
	APoints *float64 `json:"a_points,omitempty"`
	BPoints *float64 `json:"b_points,omitempty"`
}

// MatchupPick is a ranked highlight selected by drama scoring. At most three
// are produced per league per gameweek.
type MatchupPick struct {
	A              TeamStanding `json:"a"`
	B              TeamStanding `json:"b"`
	Label          string       `json:"label"`
	Reason         string       `json:"reason"`
	RivalryApplied bool         `json:"rivalry_applied"`
}

// PriceDirection marks whether a player price moved up or down.
type PriceDirection string

const (
	PriceRiser  PriceDirection = "riser"
	PriceFaller PriceDirection = "faller"
)

// PriceSignal is one confirmed player price movement. Prices are in pounds
// after tenths normalization (FPL encodes 10.5 as the integer 105).
type PriceSignal struct {
	Name      string         `json:"name"`
	Team      string         `json:"team"`
	Price     float64        `json:"price"`
	Direction PriceDirection `json:"direction"`
}

// Rivalry is a configured grudge match. A rivalry matches a pair in either
// assignment order, by owner or team name, optionally scoped to one league.
type Rivalry struct {
	A      string `mapstructure:"a"      yaml:"a"      json:"a"`
	B      string `mapstructure:"b"      yaml:"b"      json:"b"`
	Label  string `mapstructure:"label"  yaml:"label"  json:"label"`
	Reason string `mapstructure:"reason" yaml:"reason" json:"reason"`
	League string `mapstructure:"league" yaml:"league" json:"league"`
}
