package logic

import (
	"sort"

	"github.com/riftledger/stats-api/internal/models"
)

// PlayerMatches is one roster member's cached match list.
type PlayerMatches struct {
	Puuid    string
	GameName string
	Matches  []models.Match
}

// FindGroupMatches returns the matches in which at least two roster members
// played, newest first. Input lists are per-player views of the same cache,
// so a match shared by N members appears N times across the input and once
// in the output with all N attached.
func FindGroupMatches(players []PlayerMatches) []models.GroupMatch {
	byID := map[string]*models.GroupMatch{}
	order := []string{}

	for _, p := range players {
		for i := range p.Matches {
			m := &p.Matches[i]
			id := m.Metadata.MatchID
			entry := byID[id]
			if entry == nil {
				entry = &models.GroupMatch{Match: *m}
				byID[id] = entry
				order = append(order, id)
			}
			gp := models.GroupPlayer{Puuid: p.Puuid, GameName: p.GameName}
			if part := Participant(m, p.Puuid); part != nil {
				gp.ChampionName = part.ChampionName
				gp.Win = part.Win
				gp.Kills = part.Kills
				gp.Deaths = part.Deaths
				gp.Assists = part.Assists
			}
			entry.Players = append(entry.Players, gp)
		}
	}

	out := []models.GroupMatch{}
	for _, id := range order {
		if len(byID[id].Players) >= 2 {
			out = append(out, *byID[id])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Match.Info.GameCreation > out[j].Match.Info.GameCreation
	})
	return out
}
