package logic

import (
	"fmt"
	"math"
	"sort"

	"github.com/riftledger/stats-api/internal/models"
)

// Statistical categories ranked across the roster. The set is closed; the
// descriptor table below is the single source of truth for how each one is
// extracted and ordered.
const (
	CategoryWinrate           = "winrate"
	CategoryKda               = "kda"
	CategoryDmgPerMin         = "dmgPerMin"
	CategoryCsPerMin          = "csPerMin"
	CategoryGoldPerMin        = "goldPerMin"
	CategoryKills             = "kills"
	CategoryDeaths            = "deaths"
	CategoryAssists           = "assists"
	CategoryKillParticipation = "killParticipation"
	CategoryVision            = "vision"
	CategoryFirstBlood        = "firstBloodParticipation"
	CategoryDmgToBuildings    = "dmgToBuildings"
	CategoryDmgToObjectives   = "dmgToObjectives"
	CategoryGoldLead          = "goldLead"
	CategoryDmgLead           = "dmgLead"
	CategoryBestChampion      = "bestChampion"
)

// RankedPlayer pairs a display name with precomputed aggregate stats.
type RankedPlayer struct {
	GameName string
	Stats    models.PlayerAggregatedStats
}

type categoryDescriptor struct {
	category string
	extract  func(s *models.PlayerAggregatedStats) float64
	// lowerIsBetter inverts the direction: fewer deaths is the good end.
	lowerIsBetter bool
	// games is the sample size attached to entries: nonSuppGames for
	// no-supp rate stats, goldLeadGames for lane leads, totalGames
	// otherwise.
	games func(s *models.PlayerAggregatedStats) int
}

func totalGames(s *models.PlayerAggregatedStats) int   { return s.TotalGames }
func nonSuppGames(s *models.PlayerAggregatedStats) int { return s.NonSuppGames }
func leadGames(s *models.PlayerAggregatedStats) int    { return s.GoldLeadGames }

var categoryTable = []categoryDescriptor{
	{CategoryWinrate, func(s *models.PlayerAggregatedStats) float64 { return s.Winrate }, false, totalGames},
	{CategoryKda, func(s *models.PlayerAggregatedStats) float64 { return s.AvgKda }, false, totalGames},
	{CategoryDmgPerMin, func(s *models.PlayerAggregatedStats) float64 { return s.AvgDmgPerMinNoSupp }, false, nonSuppGames},
	{CategoryCsPerMin, func(s *models.PlayerAggregatedStats) float64 { return s.AvgCsPerMinNoSupp }, false, nonSuppGames},
	{CategoryGoldPerMin, func(s *models.PlayerAggregatedStats) float64 { return s.AvgGoldPerMinNoSupp }, false, nonSuppGames},
	{CategoryKills, func(s *models.PlayerAggregatedStats) float64 { return s.AvgKills }, false, totalGames},
	{CategoryDeaths, func(s *models.PlayerAggregatedStats) float64 { return s.AvgDeaths }, true, totalGames},
	{CategoryAssists, func(s *models.PlayerAggregatedStats) float64 { return s.AvgAssists }, false, totalGames},
	{CategoryKillParticipation, func(s *models.PlayerAggregatedStats) float64 { return s.AvgKillParticipation }, false, totalGames},
	{CategoryVision, func(s *models.PlayerAggregatedStats) float64 { return s.AvgVisionScore }, false, totalGames},
	{CategoryFirstBlood, func(s *models.PlayerAggregatedStats) float64 { return s.FirstBloodParticipation }, false, totalGames},
	{CategoryDmgToBuildings, func(s *models.PlayerAggregatedStats) float64 { return s.AvgDmgToBuildings }, false, nonSuppGames},
	{CategoryDmgToObjectives, func(s *models.PlayerAggregatedStats) float64 { return s.AvgDmgToObjectives }, false, nonSuppGames},
	{CategoryGoldLead, func(s *models.PlayerAggregatedStats) float64 { return s.AvgGoldLead }, false, leadGames},
	{CategoryDmgLead, func(s *models.PlayerAggregatedStats) float64 { return s.AvgDmgLead }, false, leadGames},
}

// podiumSize caps the per-category best/worst lists.
const podiumSize = 3

// Ranker computes cross-player superlatives from aggregated stats.
// MinGames excludes low-sample players entirely; MinChampionGames does the
// same for champions in the best-champion category.
type Ranker struct {
	MinGames         int
	MinChampionGames int
}

func (r Ranker) eligible(players []RankedPlayer) []RankedPlayer {
	out := make([]RankedPlayer, 0, len(players))
	for _, p := range players {
		if p.Stats.TotalGames >= r.MinGames {
			out = append(out, p)
		}
	}
	return out
}

// sortEntries orders entries with the category's good (or bad) end first.
// Ties go to the larger sample, then to the name so the order is fully
// deterministic.
func sortEntries(entries []models.RankedEntry, bestFirst bool) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			if bestFirst {
				return a.Value > b.Value
			}
			return a.Value < b.Value
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.GameName < b.GameName
	})
}

// rankCategory produces the full ordering for one scalar category,
// best-first when bestFirst is true. lowerIsBetter flips what "best" means.
func rankCategory(players []RankedPlayer, d categoryDescriptor, bestFirst bool) []models.RankedEntry {
	entries := make([]models.RankedEntry, 0, len(players))
	for i := range players {
		s := &players[i].Stats
		entries = append(entries, models.RankedEntry{
			GameName: players[i].GameName,
			Value:    d.extract(s),
			Games:    d.games(s),
		})
	}
	sortEntries(entries, bestFirst != d.lowerIsBetter)
	return entries
}

// champEntries flattens eligible players into (player, champion) entries
// scored by net wins, filtered by the champion games threshold.
func (r Ranker) champEntries(players []RankedPlayer) []models.RankedEntry {
	entries := []models.RankedEntry{}
	for _, p := range players {
		for _, c := range p.Stats.ChampionStats {
			if c.Games < r.MinChampionGames {
				continue
			}
			entries = append(entries, models.RankedEntry{
				GameName: p.GameName,
				Value:    float64(c.Wins - c.Losses),
				Games:    c.Games,
				Extra:    c.ChampionName,
				Extra2:   fmt.Sprintf("%dW-%dL", c.Wins, c.Losses),
			})
		}
	}
	return entries
}

func truncate(entries []models.RankedEntry) []models.RankedEntry {
	if len(entries) > podiumSize {
		return entries[:podiumSize]
	}
	return entries
}

// ComputeBestOf produces the top-3 podium per category in both directions.
// Players below the games threshold are excluded from every category; with
// no eligible players every list is empty.
func (r Ranker) ComputeBestOf(players []RankedPlayer) models.BestOfChallenge {
	eligible := r.eligible(players)

	out := models.BestOfChallenge{
		Best:  map[string][]models.RankedEntry{},
		Worst: map[string][]models.RankedEntry{},
	}

	for _, d := range categoryTable {
		best := rankCategory(eligible, d, true)
		worst := rankCategory(eligible, d, false)
		out.Best[d.category] = truncate(best)
		out.Worst[d.category] = truncate(worst)
	}

	champs := r.champEntries(eligible)
	best := make([]models.RankedEntry, len(champs))
	worst := make([]models.RankedEntry, len(champs))
	copy(best, champs)
	copy(worst, champs)
	sortEntries(best, true)
	sortEntries(worst, false)
	out.Best[CategoryBestChampion] = truncate(best)
	out.Worst[CategoryBestChampion] = truncate(worst)

	return out
}

// bestChampionScore is a player's strongest champion net score, or -Inf when
// no champion meets the games threshold. Used to place players in the
// best-champion column of the final rankings.
func (r Ranker) bestChampionScore(s *models.PlayerAggregatedStats) (float64, int) {
	score := math.Inf(-1)
	games := 0
	for _, c := range s.ChampionStats {
		if c.Games < r.MinChampionGames {
			continue
		}
		pts := float64(c.Wins - c.Losses)
		if pts > score || (pts == score && c.Games > games) {
			score = pts
			games = c.Games
		}
	}
	return score, games
}

// ComputeFinalRankings ranks every eligible player 1..N within each
// category's full ordering and averages the positions. The result is sorted
// by average rank ascending (best overall first).
func (r Ranker) ComputeFinalRankings(players []RankedPlayer) []models.FinalRanking {
	eligible := r.eligible(players)
	if len(eligible) == 0 {
		return []models.FinalRanking{}
	}

	ranks := make(map[string]map[string]int, len(eligible))
	for _, p := range eligible {
		ranks[p.GameName] = map[string]int{}
	}

	for _, d := range categoryTable {
		ordered := rankCategory(eligible, d, true)
		for i, e := range ordered {
			ranks[e.GameName][d.category] = i + 1
		}
	}

	// Best-champion column: one entry per player, scored by their strongest
	// champion.
	champCol := make([]models.RankedEntry, 0, len(eligible))
	for i := range eligible {
		score, games := r.bestChampionScore(&eligible[i].Stats)
		champCol = append(champCol, models.RankedEntry{
			GameName: eligible[i].GameName,
			Value:    score,
			Games:    games,
		})
	}
	sortEntries(champCol, true)
	for i, e := range champCol {
		ranks[e.GameName][CategoryBestChampion] = i + 1
	}

	out := make([]models.FinalRanking, 0, len(eligible))
	for _, p := range eligible {
		sum := 0
		for _, pos := range ranks[p.GameName] {
			sum += pos
		}
		out = append(out, models.FinalRanking{
			GameName: p.GameName,
			AvgRank:  float64(sum) / float64(len(ranks[p.GameName])),
			Ranks:    ranks[p.GameName],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRank != out[j].AvgRank {
			return out[i].AvgRank < out[j].AvgRank
		}
		return out[i].GameName < out[j].GameName
	})
	return out
}
