package models

// ChampionStats is the per-champion breakdown inside a player's aggregate.
type ChampionStats struct {
	ChampionName string  `json:"championName"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Winrate      float64 `json:"winrate"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	AvgKda       float64 `json:"avgKda"`
	AvgDamage    float64 `json:"avgDamage"`
}

// RoleStats is the per-role breakdown inside a player's aggregate.
type RoleStats struct {
	Position string  `json:"position"`
	Games    int     `json:"games"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Winrate  float64 `json:"winrate"`
}

// PlayerAggregatedStats is the full aggregate for one player, recomputed
// from scratch on every aggregation pass. Per-game averages are 0 when the
// relevant denominator is 0.
type PlayerAggregatedStats struct {
	TotalGames int     `json:"totalGames"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Winrate    float64 `json:"winrate"`

	AvgKills                float64 `json:"avgKills"`
	AvgDeaths               float64 `json:"avgDeaths"`
	AvgAssists              float64 `json:"avgAssists"`
	AvgKda                  float64 `json:"avgKda"`
	AvgCs                   float64 `json:"avgCs"`
	AvgCsPerMin             float64 `json:"avgCsPerMin"`
	AvgDamage               float64 `json:"avgDamage"`
	AvgDmgPerMin            float64 `json:"avgDmgPerMin"`
	AvgGoldPerMin           float64 `json:"avgGoldPerMin"`
	AvgVisionScore          float64 `json:"avgVisionScore"` // vision per minute
	AvgKillParticipation    float64 `json:"avgKillParticipation"`
	FirstBloodParticipation float64 `json:"firstBloodParticipation"`

	// Rate stats excluding games played as support; NonSuppGames is their
	// denominator.
	AvgDmgPerMinNoSupp  float64 `json:"avgDmgPerMinNoSupp"`
	AvgCsPerMinNoSupp   float64 `json:"avgCsPerMinNoSupp"`
	AvgGoldPerMinNoSupp float64 `json:"avgGoldPerMinNoSupp"`
	AvgDmgToBuildings   float64 `json:"avgDmgToBuildings"`
	AvgDmgToObjectives  float64 `json:"avgDmgToObjectives"`
	NonSuppGames        int     `json:"nonSuppGames"`

	// Lane-versus-lane deltas, averaged over games where a same-position
	// opponent existed; GoldLeadGames is their denominator.
	AvgGoldLead   float64 `json:"avgGoldLead"`
	AvgDmgLead    float64 `json:"avgDmgLead"`
	GoldLeadGames int     `json:"goldLeadGames"`

	ChampionStats []ChampionStats `json:"championStats"`
	RoleStats     []RoleStats     `json:"roleStats"`
	PrimaryRole   *string         `json:"primaryRole"`
}

// RankedEntry is one player's (or player-champion pair's) placement in a
// best-of category. Extra and Extra2 carry the champion name and win-loss
// record for the best-champion category.
type RankedEntry struct {
	GameName string  `json:"gameName"`
	Value    float64 `json:"value"`
	Games    int     `json:"games"`
	Extra    string  `json:"extra,omitempty"`
	Extra2   string  `json:"extra2,omitempty"`
}

// BestOfChallenge holds the top-3 podium per category, in both directions.
type BestOfChallenge struct {
	Best  map[string][]RankedEntry `json:"best"`
	Worst map[string][]RankedEntry `json:"worst"`
}

// FinalRanking is one player's composite standing: their rank within every
// category's full ordering, averaged. Lower is better.
type FinalRanking struct {
	GameName string         `json:"gameName"`
	AvgRank  float64        `json:"avgRank"`
	Ranks    map[string]int `json:"ranks"`
}

// GroupMatch is a match in which two or more roster members played.
type GroupMatch struct {
	Match   Match         `json:"match"`
	Players []GroupPlayer `json:"players"`
}

type GroupPlayer struct {
	Puuid        string `json:"puuid"`
	GameName     string `json:"gameName"`
	ChampionName string `json:"championName"`
	Win          bool   `json:"win"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
}

// MatchRecord is a single-game extreme across the whole roster.
type MatchRecord struct {
	Category     string  `json:"category"`
	GameName     string  `json:"gameName"`
	ChampionName string  `json:"championName"`
	MatchID      string  `json:"matchId"`
	Value        float64 `json:"value"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	DurationMin  float64 `json:"durationMin"`
	PlayedAt     int64   `json:"playedAt"`
}

// PentakillEvent records a game in which a roster member scored one or more
// pentakills.
type PentakillEvent struct {
	Puuid        string `json:"puuid"`
	GameName     string `json:"gameName"`
	ChampionName string `json:"championName"`
	MatchID      string `json:"matchId"`
	PentaKills   int    `json:"pentaKills"`
	PlayedAt     int64  `json:"playedAt"`
}
