package models

// Types mirroring the subset of the Riot API payloads this service consumes.
// Field names and JSON tags follow the upstream wire format so match blobs
// can be stored and re-decoded verbatim.

// Summoner is the summoner-v4 response.
type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	Puuid         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int    `json:"summonerLevel"`
}

// LeagueEntry is one queue's ranked standing from league-v4.
type LeagueEntry struct {
	LeagueID     string `json:"leagueId"`
	SummonerID   string `json:"summonerId"`
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
	Veteran      bool   `json:"veteran"`
	FreshBlood   bool   `json:"freshBlood"`
	Inactive     bool   `json:"inactive"`
}

// MatchParticipant is one player's record within one match (match-v5).
type MatchParticipant struct {
	Puuid          string `json:"puuid"`
	SummonerName   string `json:"summonerName"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`
	ChampionID     int    `json:"championId"`
	ChampionName   string `json:"championName"`
	ChampLevel     int    `json:"champLevel"`
	TeamID         int    `json:"teamId"`
	// TeamPosition is TOP, JUNGLE, MIDDLE, BOTTOM or UTILITY; empty for
	// non-standard game modes.
	TeamPosition                string `json:"teamPosition"`
	IndividualPosition          string `json:"individualPosition"`
	Win                         bool   `json:"win"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	DamageDealtToBuildings      int    `json:"damageDealtToBuildings"`
	DamageDealtToObjectives     int    `json:"damageDealtToObjectives"`
	TotalDamageTaken            int    `json:"totalDamageTaken"`
	GoldEarned                  int    `json:"goldEarned"`
	GoldSpent                   int    `json:"goldSpent"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	VisionScore                 int    `json:"visionScore"`
	WardsPlaced                 int    `json:"wardsPlaced"`
	WardsKilled                 int    `json:"wardsKilled"`
	FirstBloodKill              bool   `json:"firstBloodKill"`
	FirstBloodAssist            bool   `json:"firstBloodAssist"`
	DoubleKills                 int    `json:"doubleKills"`
	TripleKills                 int    `json:"tripleKills"`
	QuadraKills                 int    `json:"quadraKills"`
	PentaKills                  int    `json:"pentaKills"`
	TurretKills                 int    `json:"turretKills"`
	InhibitorKills              int    `json:"inhibitorKills"`
}

type MatchMetadata struct {
	DataVersion  string   `json:"dataVersion"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation       int64              `json:"gameCreation"`
	GameDuration       int64              `json:"gameDuration"` // seconds
	GameEndTimestamp   int64              `json:"gameEndTimestamp"`
	GameID             int64              `json:"gameId"`
	GameMode           string             `json:"gameMode"`
	GameStartTimestamp int64              `json:"gameStartTimestamp"` // epoch ms
	GameVersion        string             `json:"gameVersion"`
	MapID              int                `json:"mapId"`
	QueueID            int                `json:"queueId"`
	PlatformID         string             `json:"platformId"`
	Participants       []MatchParticipant `json:"participants"`
}

// Match is one completed game.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}
