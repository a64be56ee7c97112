package stratz

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// OptBool is a JSON boolean that tolerates null, absent and non-boolean values.
// Valid is false unless the source held a real true/false literal.
type OptBool struct {
	Value bool
	Valid bool
}

// UnmarshalJSON never fails; anything other than true/false leaves Valid unset.
func (b *OptBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*b = OptBool{Value: true, Valid: true}
	case "false":
		*b = OptBool{Value: false, Valid: true}
	default:
		*b = OptBool{}
	}
	return nil
}

// MarshalJSON writes null for an invalid value.
func (b OptBool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(b.Value)
}

// Bool returns a valid OptBool.
func Bool(v bool) OptBool {
	return OptBool{Value: v, Valid: true}
}

// OptInt is a JSON integer that tolerates null, absent and non-numeric values.
type OptInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON never fails; a value that is not an integer leaves Valid unset.
func (i *OptInt) UnmarshalJSON(data []byte) error {
	*i = OptInt{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*i = OptInt{Value: n, Valid: true}
	return nil
}

// MarshalJSON writes null for an invalid value.
func (i OptInt) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(i.Value)
}

// Int returns a valid OptInt.
func Int(v int) OptInt {
	return OptInt{Value: v, Valid: true}
}

// PickBan is one entry of a match's draft sequence
type PickBan struct {
	Order     OptInt  `json:"order"`
	IsPick    OptBool `json:"isPick"`
	IsRadiant OptBool `json:"isRadiant"`
	HeroID    OptInt  `json:"heroId"`
}

// Match is a raw match as returned by the players.matches query
type Match struct {
	ID            int64     `json:"id"`
	DidRadiantWin bool      `json:"didRadiantWin"`
	PickBans      []PickBan `json:"pickBans"`
}

// PlayerMatches holds one player's recent matches
type PlayerMatches struct {
	SteamAccountID int64   `json:"steamAccountId,omitempty"`
	MatchCount     int     `json:"matchCount,omitempty"`
	WinCount       int     `json:"winCount,omitempty"`
	Matches        []Match `json:"matches"`
}

// BatchFile is the on-disk shape of one fetched batch (players_matches/<i>.json)
type BatchFile struct {
	Players []PlayerMatches `json:"players"`

	// Raw is the data payload exactly as the API returned it, including
	// fields the typed view leaves out. Empty for batches built in memory.
	Raw json.RawMessage `json:"-"`
}

// LeaderboardResponse is the data payload of the season leaderboard query
type LeaderboardResponse struct {
	Leaderboard struct {
		Season struct {
			PlayerCount int                 `json:"playerCount"`
			Players     []LeaderboardPlayer `json:"players"`
		} `json:"season"`
	} `json:"leaderboard"`
}

// LeaderboardPlayer is one ranked player on a division leaderboard
type LeaderboardPlayer struct {
	SteamAccountID int64 `json:"steamAccountId"`
	SteamAccount   struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		CountryCode string `json:"countryCode"`
		IsAnonymous bool   `json:"isAnonymous"`
	} `json:"steamAccount"`
	Rank     int    `json:"rank"`
	Position string `json:"position"`
}

// ConstantsResponse is the data payload of the hero constants query
type ConstantsResponse struct {
	Constants struct {
		Heroes []ConstantsHero `json:"heroes"`
	} `json:"constants"`
}

// ConstantsHero is a hero as described by the constants endpoint
type ConstantsHero struct {
	ID          int    `json:"id"`
	ShortName   string `json:"shortName"`
	DisplayName string `json:"displayName"`
}

// graphQLRequest is the POST body sent to the GraphQL endpoint
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLResponse wraps the data payload and any query errors
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}
