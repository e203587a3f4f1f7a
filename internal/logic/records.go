package logic

import (
	"sort"

	"github.com/riftledger/stats-api/internal/models"
)

// Single-game record categories shown on the records page.
const (
	RecordMostKills       = "Most Kills"
	RecordMostDeaths      = "Most Deaths"
	RecordMostAssists     = "Most Assists"
	RecordHighestDmgMin   = "Highest DMG/min"
	RecordHighestGoldMin  = "Highest Gold/min"
	RecordHighestCsMin    = "Highest CS/min"
	RecordHighestGoldLead = "Highest Gold Lead"
	RecordHighestDmgLead  = "Highest DMG Lead"
	RecordLowestDmgMin    = "Lowest DMG/min"
	RecordLowestGoldMin   = "Lowest Gold/min"
	RecordLowestCsMin     = "Lowest CS/min"
	RecordLowestGoldLead  = "Lowest Gold Lead"
	RecordLowestDmgLead   = "Lowest DMG Lead"
)

// MatchRecords scans every roster member's season matches and returns the
// best (and worst) single-game performances across the whole roster. One
// record per category; a category with no qualifying game is omitted.
func (a Aggregator) MatchRecords(players []PlayerMatches) []models.MatchRecord {
	best := map[string]*models.MatchRecord{}

	consider := func(category string, higher bool, rec models.MatchRecord) {
		cur := best[category]
		if cur == nil ||
			(higher && rec.Value > cur.Value) ||
			(!higher && rec.Value < cur.Value) {
			rec.Category = category
			best[category] = &rec
		}
	}

	for _, pl := range players {
		for i := range pl.Matches {
			m := &pl.Matches[i]
			if !a.eligible(m, pl.Puuid) {
				continue
			}
			p := Participant(m, pl.Puuid)
			durationMin := float64(m.Info.GameDuration) / 60

			base := models.MatchRecord{
				GameName:     pl.GameName,
				ChampionName: p.ChampionName,
				MatchID:      m.Metadata.MatchID,
				Kills:        p.Kills,
				Deaths:       p.Deaths,
				Assists:      p.Assists,
				DurationMin:  durationMin,
				PlayedAt:     m.Info.GameStartTimestamp,
			}

			with := func(v float64) models.MatchRecord {
				rec := base
				rec.Value = v
				return rec
			}

			consider(RecordMostKills, true, with(float64(p.Kills)))
			consider(RecordMostDeaths, true, with(float64(p.Deaths)))
			consider(RecordMostAssists, true, with(float64(p.Assists)))

			if durationMin > 0 {
				cs := float64(p.TotalMinionsKilled + p.NeutralMinionsKilled)
				dmgMin := float64(p.TotalDamageDealtToChampions) / durationMin
				goldMin := float64(p.GoldEarned) / durationMin
				csMin := cs / durationMin

				consider(RecordHighestDmgMin, true, with(dmgMin))
				consider(RecordHighestGoldMin, true, with(goldMin))
				consider(RecordHighestCsMin, true, with(csMin))

				if p.TeamPosition != RoleSupport {
					consider(RecordLowestDmgMin, false, with(dmgMin))
					consider(RecordLowestGoldMin, false, with(goldMin))
					consider(RecordLowestCsMin, false, with(csMin))
				}
			}

			if opp := laneOpponent(m, p); opp != nil {
				goldLead := float64(p.GoldEarned - opp.GoldEarned)
				dmgLead := float64(p.TotalDamageDealtToChampions - opp.TotalDamageDealtToChampions)
				consider(RecordHighestGoldLead, true, with(goldLead))
				consider(RecordHighestDmgLead, true, with(dmgLead))
				if p.TeamPosition != RoleSupport {
					consider(RecordLowestGoldLead, false, with(goldLead))
					consider(RecordLowestDmgLead, false, with(dmgLead))
				}
			}
		}
	}

	out := []models.MatchRecord{}
	for _, rec := range best {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Pentakills collects every season game in which a roster member scored a
// pentakill, newest first.
func (a Aggregator) Pentakills(players []PlayerMatches) []models.PentakillEvent {
	out := []models.PentakillEvent{}
	for _, pl := range players {
		for i := range pl.Matches {
			m := &pl.Matches[i]
			if !a.eligible(m, pl.Puuid) {
				continue
			}
			p := Participant(m, pl.Puuid)
			if p.PentaKills == 0 {
				continue
			}
			out = append(out, models.PentakillEvent{
				Puuid:        pl.Puuid,
				GameName:     pl.GameName,
				ChampionName: p.ChampionName,
				MatchID:      m.Metadata.MatchID,
				PentaKills:   p.PentaKills,
				PlayedAt:     m.Info.GameStartTimestamp,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayedAt > out[j].PlayedAt })
	return out
}
