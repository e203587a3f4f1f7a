// Package logic holds the pure computation core of the dashboard: per-player
// match aggregation, cross-player rankings, elo averaging and single-game
// records. Nothing in this package performs I/O; every function is total over
// well-typed input and degrades to zero values on empty or degenerate data.
package logic

import (
	"sort"

	"github.com/riftledger/stats-api/internal/models"
)

// RoleSupport is the teamPosition value excluded from no-supp rate stats.
const RoleSupport = "UTILITY"

// Aggregator reduces a player's match list into one aggregate. SeasonStart
// is the epoch-ms boundary before which matches are ignored.
type Aggregator struct {
	SeasonStart int64
}

// Participant returns the participant record for puuid, or nil.
func Participant(m *models.Match, puuid string) *models.MatchParticipant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].Puuid == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// CalcKda computes (kills+assists)/deaths, with deaths=0 treated as
// kills+assists.
func CalcKda(kills, deaths, assists int) float64 {
	if deaths == 0 {
		return float64(kills + assists)
	}
	return float64(kills+assists) / float64(deaths)
}

// CalcWinrate returns wins/total as a percentage, 0 when total is 0.
func CalcWinrate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// safeAvg is the single zero-division guard for every averaged field.
func safeAvg(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// perMin divides by the game duration in minutes, contributing 0 for
// zero-length games.
func perMin(v float64, durationMin float64) float64 {
	if durationMin == 0 {
		return 0
	}
	return v / durationMin
}

// laneOpponent finds the opposing-team participant sharing p's teamPosition,
// or nil when the position is empty or no opponent holds it.
func laneOpponent(m *models.Match, p *models.MatchParticipant) *models.MatchParticipant {
	if p.TeamPosition == "" {
		return nil
	}
	for i := range m.Info.Participants {
		o := &m.Info.Participants[i]
		if o.TeamID != p.TeamID && o.TeamPosition == p.TeamPosition {
			return o
		}
	}
	return nil
}

// teamKills sums kills over all participants on p's team.
func teamKills(m *models.Match, teamID int) int {
	total := 0
	for i := range m.Info.Participants {
		if m.Info.Participants[i].TeamID == teamID {
			total += m.Info.Participants[i].Kills
		}
	}
	return total
}

type champAccum struct {
	games, wins, losses            int
	kills, deaths, assists, damage int
}

type roleAccum struct {
	games, wins, losses int
}

// eligible reports whether the match counts toward puuid's aggregate:
// the player must appear among the participants and the game must have
// started at or after the season boundary.
func (a Aggregator) eligible(m *models.Match, puuid string) bool {
	return m.Info.GameStartTimestamp >= a.SeasonStart && Participant(m, puuid) != nil
}

// Aggregate reduces matches into a fresh PlayerAggregatedStats. Ineligible
// matches are silently skipped; zero eligible matches yield the all-zero
// aggregate with empty champion/role lists and a nil primary role.
func (a Aggregator) Aggregate(puuid string, matches []models.Match) models.PlayerAggregatedStats {
	stats := models.PlayerAggregatedStats{
		ChampionStats: []models.ChampionStats{},
		RoleStats:     []models.RoleStats{},
	}

	var (
		kills, deaths, assists, damage, cs int
		wins, firstBloods                  int
		csPerMin, dmgPerMin, goldPerMin    float64
		visionPerMin, killPart             float64

		nonSuppGames                          int
		dmgPerMinNS, csPerMinNS, goldPerMinNS float64
		dmgBuildings, dmgObjectives           float64

		leadGames         int
		goldLead, dmgLead float64
	)

	champs := map[string]*champAccum{}
	roles := map[string]*roleAccum{}
	total := 0

	for i := range matches {
		m := &matches[i]
		if !a.eligible(m, puuid) {
			continue
		}
		p := Participant(m, puuid)
		total++

		durationMin := float64(m.Info.GameDuration) / 60

		kills += p.Kills
		deaths += p.Deaths
		assists += p.Assists
		damage += p.TotalDamageDealtToChampions
		matchCs := p.TotalMinionsKilled + p.NeutralMinionsKilled
		cs += matchCs
		csPerMin += perMin(float64(matchCs), durationMin)
		dmgPerMin += perMin(float64(p.TotalDamageDealtToChampions), durationMin)
		goldPerMin += perMin(float64(p.GoldEarned), durationMin)
		visionPerMin += perMin(float64(p.VisionScore), durationMin)
		if p.Win {
			wins++
		}
		if p.FirstBloodKill || p.FirstBloodAssist {
			firstBloods++
		}

		if tk := teamKills(m, p.TeamID); tk > 0 {
			killPart += float64(p.Kills+p.Assists) / float64(tk)
		}

		if p.TeamPosition != RoleSupport {
			nonSuppGames++
			dmgPerMinNS += perMin(float64(p.TotalDamageDealtToChampions), durationMin)
			csPerMinNS += perMin(float64(matchCs), durationMin)
			goldPerMinNS += perMin(float64(p.GoldEarned), durationMin)
			dmgBuildings += float64(p.DamageDealtToBuildings)
			dmgObjectives += float64(p.DamageDealtToObjectives)
		}

		if opp := laneOpponent(m, p); opp != nil {
			leadGames++
			goldLead += float64(p.GoldEarned - opp.GoldEarned)
			dmgLead += float64(p.TotalDamageDealtToChampions - opp.TotalDamageDealtToChampions)
		}

		champ := champs[p.ChampionName]
		if champ == nil {
			champ = &champAccum{}
			champs[p.ChampionName] = champ
		}
		champ.games++
		if p.Win {
			champ.wins++
		} else {
			champ.losses++
		}
		champ.kills += p.Kills
		champ.deaths += p.Deaths
		champ.assists += p.Assists
		champ.damage += p.TotalDamageDealtToChampions

		if p.TeamPosition != "" {
			role := roles[p.TeamPosition]
			if role == nil {
				role = &roleAccum{}
				roles[p.TeamPosition] = role
			}
			role.games++
			if p.Win {
				role.wins++
			} else {
				role.losses++
			}
		}
	}

	if total == 0 {
		return stats
	}

	stats.TotalGames = total
	stats.Wins = wins
	stats.Losses = total - wins
	stats.Winrate = CalcWinrate(wins, total)
	stats.AvgKills = safeAvg(float64(kills), total)
	stats.AvgDeaths = safeAvg(float64(deaths), total)
	stats.AvgAssists = safeAvg(float64(assists), total)
	stats.AvgKda = CalcKda(kills, deaths, assists)
	stats.AvgCs = safeAvg(float64(cs), total)
	stats.AvgCsPerMin = safeAvg(csPerMin, total)
	stats.AvgDamage = safeAvg(float64(damage), total)
	stats.AvgDmgPerMin = safeAvg(dmgPerMin, total)
	stats.AvgGoldPerMin = safeAvg(goldPerMin, total)
	stats.AvgVisionScore = safeAvg(visionPerMin, total)
	stats.AvgKillParticipation = safeAvg(killPart, total) * 100
	stats.FirstBloodParticipation = safeAvg(float64(firstBloods), total) * 100

	stats.NonSuppGames = nonSuppGames
	stats.AvgDmgPerMinNoSupp = safeAvg(dmgPerMinNS, nonSuppGames)
	stats.AvgCsPerMinNoSupp = safeAvg(csPerMinNS, nonSuppGames)
	stats.AvgGoldPerMinNoSupp = safeAvg(goldPerMinNS, nonSuppGames)
	stats.AvgDmgToBuildings = safeAvg(dmgBuildings, nonSuppGames)
	stats.AvgDmgToObjectives = safeAvg(dmgObjectives, nonSuppGames)

	stats.GoldLeadGames = leadGames
	stats.AvgGoldLead = safeAvg(goldLead, leadGames)
	stats.AvgDmgLead = safeAvg(dmgLead, leadGames)

	for name, c := range champs {
		stats.ChampionStats = append(stats.ChampionStats, models.ChampionStats{
			ChampionName: name,
			Games:        c.games,
			Wins:         c.wins,
			Losses:       c.losses,
			Winrate:      CalcWinrate(c.wins, c.games),
			Kills:        c.kills,
			Deaths:       c.deaths,
			Assists:      c.assists,
			AvgKda:       CalcKda(c.kills, c.deaths, c.assists),
			AvgDamage:    safeAvg(float64(c.damage), c.games),
		})
	}
	// Most-played first; name breaks ties so repeated runs stay stable.
	sort.Slice(stats.ChampionStats, func(i, j int) bool {
		a, b := stats.ChampionStats[i], stats.ChampionStats[j]
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.ChampionName < b.ChampionName
	})

	for pos, r := range roles {
		stats.RoleStats = append(stats.RoleStats, models.RoleStats{
			Position: pos,
			Games:    r.games,
			Wins:     r.wins,
			Losses:   r.losses,
			Winrate:  CalcWinrate(r.wins, r.games),
		})
	}
	sort.Slice(stats.RoleStats, func(i, j int) bool {
		a, b := stats.RoleStats[i], stats.RoleStats[j]
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Position < b.Position
	})

	if len(stats.RoleStats) > 0 {
		primary := stats.RoleStats[0].Position
		stats.PrimaryRole = &primary
	}

	return stats
}
