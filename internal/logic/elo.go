package logic

import (
	"math"
	"strings"

	"github.com/riftledger/stats-api/internal/models"
)

// Ranked ladder layout. Iron through Diamond span four 100-LP divisions;
// Master, Grandmaster and Challenger are open tiers with narrower bands.
var tierOrder = []string{
	"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM",
	"EMERALD", "DIAMOND", "MASTER", "GRANDMASTER", "CHALLENGER",
}

var divisionOrder = []string{"IV", "III", "II", "I"}

var tierLpWidth = map[string]int{
	"IRON": 400, "BRONZE": 400, "SILVER": 400, "GOLD": 400,
	"PLATINUM": 400, "EMERALD": 400, "DIAMOND": 400,
	"MASTER": 200, "GRANDMASTER": 300, "CHALLENGER": 500,
}

// tierBaseLp maps each tier to its cumulative base LP.
var tierBaseLp = func() map[string]int {
	bases := make(map[string]int, len(tierOrder))
	cumulative := 0
	for _, t := range tierOrder {
		bases[t] = cumulative
		cumulative += tierLpWidth[t]
	}
	return bases
}()

// divisionedTiers is the count of tiers with four divisions (Iron..Diamond).
const divisionedTiers = 7

func tierIndex(tier string) int {
	for i, t := range tierOrder {
		if t == tier {
			return i
		}
	}
	return -1
}

// RankToLP flattens a tier/division/LP standing onto a single ladder scale.
// Unknown tiers map to 0.
func RankToLP(tier, division string, lp int) int {
	idx := tierIndex(tier)
	if idx == -1 {
		return 0
	}
	base := tierBaseLp[tier]
	if idx < divisionedTiers {
		for i, d := range divisionOrder {
			if d == division {
				base += i * 100
				break
			}
		}
	}
	return base + lp
}

// LPToTierLabel maps total ladder LP back to a human tier label, with a
// division for Iron through Diamond.
func LPToTierLabel(lp int) string {
	matched := tierOrder[0]
	for _, t := range tierOrder {
		if lp >= tierBaseLp[t] {
			matched = t
		} else {
			break
		}
	}

	label := matched[:1] + strings.ToLower(matched[1:])
	idx := tierIndex(matched)
	if idx < divisionedTiers {
		lpInTier := lp - tierBaseLp[matched]
		div := lpInTier / 100
		if div > 3 {
			div = 3
		}
		return label + " " + divisionOrder[div]
	}
	return label
}

// AverageElo averages the ladder LP of the non-nil entries and labels the
// result. No ranked entries at all reads as Unranked.
func AverageElo(entries []*models.LeagueEntry) (avgLp int, label string) {
	total := 0
	count := 0
	for _, e := range entries {
		if e == nil {
			continue
		}
		total += RankToLP(e.Tier, e.Rank, e.LeaguePoints)
		count++
	}
	if count == 0 {
		return 0, "Unranked"
	}
	avgLp = int(math.Round(float64(total) / float64(count)))
	return avgLp, LPToTierLabel(avgLp)
}
