package logic

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/riftledger/stats-api/internal/models"
)

const (
	testPuuid       = "puuid-under-test"
	testSeasonStart = int64(1_767_787_200_000)
)

var afterSeason = testSeasonStart + 1_000_000

func testAggregator() Aggregator {
	return Aggregator{SeasonStart: testSeasonStart}
}

var matchSeq int

// makeMatch builds a ten-participant match with the player under test on
// team 100. Overrides on p are applied on top of sane defaults; extras are
// placed on team 200 unless they carry their own team.
func makeMatch(durationSec int64, p models.MatchParticipant, extras ...models.MatchParticipant) models.Match {
	if p.Puuid == "" {
		p.Puuid = testPuuid
	}
	if p.TeamID == 0 {
		p.TeamID = 100
	}
	if p.ChampionName == "" {
		p.ChampionName = "Jinx"
	}

	participants := []models.MatchParticipant{p}
	for i, e := range extras {
		if e.Puuid == "" {
			e.Puuid = fmt.Sprintf("other-%d", i)
		}
		if e.TeamID == 0 {
			e.TeamID = 200
		}
		if e.ChampionName == "" {
			e.ChampionName = "Ahri"
		}
		participants = append(participants, e)
	}

	matchSeq++
	return models.Match{
		Metadata: models.MatchMetadata{MatchID: fmt.Sprintf("LA1_test_%d", matchSeq)},
		Info: models.MatchInfo{
			GameDuration:       durationSec,
			GameStartTimestamp: afterSeason,
			GameCreation:       afterSeason,
			QueueID:            440,
			Participants:       participants,
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateZeroMatches(t *testing.T) {
	got := testAggregator().Aggregate(testPuuid, nil)

	if got.TotalGames != 0 || got.Wins != 0 || got.Losses != 0 {
		t.Errorf("counts = %d/%d/%d, want all 0", got.TotalGames, got.Wins, got.Losses)
	}
	if got.Winrate != 0 || got.AvgKills != 0 || got.AvgKda != 0 || got.AvgGoldLead != 0 {
		t.Errorf("averages not zero: %+v", got)
	}
	if len(got.ChampionStats) != 0 || len(got.RoleStats) != 0 {
		t.Errorf("expected empty champion/role lists")
	}
	if got.PrimaryRole != nil {
		t.Errorf("primaryRole = %v, want nil", *got.PrimaryRole)
	}
}

func TestAggregateSeasonFilter(t *testing.T) {
	old := makeMatch(1800, models.MatchParticipant{Kills: 10, Win: true})
	old.Info.GameStartTimestamp = testSeasonStart - 1

	got := testAggregator().Aggregate(testPuuid, []models.Match{old})
	if got.TotalGames != 0 {
		t.Errorf("totalGames = %d, want 0 for pre-season match", got.TotalGames)
	}
}

func TestAggregateSkipsForeignMatches(t *testing.T) {
	m := makeMatch(1800, models.MatchParticipant{Puuid: "someone-else", Win: true})

	got := testAggregator().Aggregate(testPuuid, []models.Match{m})
	if got.TotalGames != 0 {
		t.Errorf("totalGames = %d, want 0 when puuid absent", got.TotalGames)
	}
}

func TestAggregateWinLossCounts(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{Win: true}),
		makeMatch(1800, models.MatchParticipant{Win: true}),
		makeMatch(1800, models.MatchParticipant{Win: false}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if got.TotalGames != 3 || got.Wins != 2 || got.Losses != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", got.TotalGames, got.Wins, got.Losses)
	}
	if got.Wins+got.Losses != got.TotalGames {
		t.Errorf("wins+losses = %d, want totalGames %d", got.Wins+got.Losses, got.TotalGames)
	}
	if math.Abs(got.Winrate-100.0*2/3) > 0.01 {
		t.Errorf("winrate = %v, want ~66.67", got.Winrate)
	}
}

func TestAggregateKda(t *testing.T) {
	tests := []struct {
		name                   string
		kills, deaths, assists int
		want                   float64
	}{
		{"WithDeaths", 14, 8, 8, 2.75},
		{"ZeroDeaths", 5, 0, 3, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := makeMatch(1800, models.MatchParticipant{
				Kills: tt.kills, Deaths: tt.deaths, Assists: tt.assists,
			})
			got := testAggregator().Aggregate(testPuuid, []models.Match{m})
			if !almostEqual(got.AvgKda, tt.want) {
				t.Errorf("avgKda = %v, want %v", got.AvgKda, tt.want)
			}
		})
	}
}

func TestAggregateCsPerMin(t *testing.T) {
	m := makeMatch(1800, models.MatchParticipant{
		TotalMinionsKilled:   220,
		NeutralMinionsKilled: 20,
	})

	got := testAggregator().Aggregate(testPuuid, []models.Match{m})
	if !almostEqual(got.AvgCs, 240) {
		t.Errorf("avgCs = %v, want 240", got.AvgCs)
	}
	if !almostEqual(got.AvgCsPerMin, 8.0) {
		t.Errorf("avgCsPerMin = %v, want 8.0", got.AvgCsPerMin)
	}
}

func TestAggregateZeroDurationContributesZero(t *testing.T) {
	m := makeMatch(0, models.MatchParticipant{
		TotalMinionsKilled:          100,
		TotalDamageDealtToChampions: 10000,
		GoldEarned:                  8000,
		VisionScore:                 30,
	})

	got := testAggregator().Aggregate(testPuuid, []models.Match{m})
	if got.AvgCsPerMin != 0 || got.AvgDmgPerMin != 0 || got.AvgGoldPerMin != 0 || got.AvgVisionScore != 0 {
		t.Errorf("per-minute stats should be 0 for zero-length game, got %+v", got)
	}
	if got.TotalGames != 1 {
		t.Errorf("totalGames = %d, want 1 (zero duration is still a game)", got.TotalGames)
	}
}

func TestAggregateVisionIsPerMinute(t *testing.T) {
	matches := []models.Match{
		makeMatch(1200, models.MatchParticipant{VisionScore: 20}),
		makeMatch(2400, models.MatchParticipant{VisionScore: 20}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if !almostEqual(got.AvgVisionScore, 0.75) {
		t.Errorf("avgVisionScore = %v, want 0.75 (per-minute, not per-game)", got.AvgVisionScore)
	}
}

func TestAggregateKillParticipation(t *testing.T) {
	t.Run("TeamWithKills", func(t *testing.T) {
		m := makeMatch(1800,
			models.MatchParticipant{Kills: 3, Assists: 5},
			models.MatchParticipant{Puuid: "ally", TeamID: 100, Kills: 7},
			models.MatchParticipant{Puuid: "enemy", TeamID: 200, Kills: 99},
		)
		got := testAggregator().Aggregate(testPuuid, []models.Match{m})
		if math.Abs(got.AvgKillParticipation-80) > 0.01 {
			t.Errorf("avgKillParticipation = %v, want 80", got.AvgKillParticipation)
		}
	})

	t.Run("TeamWithZeroKills", func(t *testing.T) {
		m := makeMatch(1800, models.MatchParticipant{Kills: 0, Assists: 0})
		got := testAggregator().Aggregate(testPuuid, []models.Match{m})
		if got.AvgKillParticipation != 0 {
			t.Errorf("avgKillParticipation = %v, want 0 for 0 team kills", got.AvgKillParticipation)
		}
	})
}

func TestAggregateFirstBloodParticipation(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{FirstBloodKill: true}),
		makeMatch(1800, models.MatchParticipant{FirstBloodAssist: true}),
		makeMatch(1800, models.MatchParticipant{}),
		makeMatch(1800, models.MatchParticipant{}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if !almostEqual(got.FirstBloodParticipation, 50) {
		t.Errorf("firstBloodParticipation = %v, want 50", got.FirstBloodParticipation)
	}
}

func TestAggregateNoSuppExclusion(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{
			TeamPosition:                "UTILITY",
			TotalDamageDealtToChampions: 3000,
			GoldEarned:                  6000,
			TotalMinionsKilled:          30,
			DamageDealtToBuildings:      100,
			DamageDealtToObjectives:     200,
		}),
		makeMatch(1800, models.MatchParticipant{
			TeamPosition:                "BOTTOM",
			TotalDamageDealtToChampions: 30000,
			GoldEarned:                  15000,
			TotalMinionsKilled:          240,
			DamageDealtToBuildings:      5000,
			DamageDealtToObjectives:     9000,
		}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if got.NonSuppGames != 1 {
		t.Fatalf("nonSuppGames = %d, want 1", got.NonSuppGames)
	}
	// Denominator is nonSuppGames, numerators only from the BOTTOM game.
	if !almostEqual(got.AvgDmgPerMinNoSupp, 1000) {
		t.Errorf("avgDmgPerMinNoSupp = %v, want 1000", got.AvgDmgPerMinNoSupp)
	}
	if !almostEqual(got.AvgGoldPerMinNoSupp, 500) {
		t.Errorf("avgGoldPerMinNoSupp = %v, want 500", got.AvgGoldPerMinNoSupp)
	}
	if !almostEqual(got.AvgCsPerMinNoSupp, 8) {
		t.Errorf("avgCsPerMinNoSupp = %v, want 8", got.AvgCsPerMinNoSupp)
	}
	if !almostEqual(got.AvgDmgToBuildings, 5000) || !almostEqual(got.AvgDmgToObjectives, 9000) {
		t.Errorf("buildings/objectives = %v/%v, want 5000/9000",
			got.AvgDmgToBuildings, got.AvgDmgToObjectives)
	}
	// The all-games damage average still counts both.
	if !almostEqual(got.AvgDamage, 16500) {
		t.Errorf("avgDamage = %v, want 16500", got.AvgDamage)
	}
}

func TestAggregateLaneLead(t *testing.T) {
	t.Run("OpponentPresent", func(t *testing.T) {
		m := makeMatch(1800,
			models.MatchParticipant{TeamPosition: "BOTTOM", GoldEarned: 15000, TotalDamageDealtToChampions: 20000},
			models.MatchParticipant{Puuid: "opp", TeamID: 200, TeamPosition: "BOTTOM", GoldEarned: 12000, TotalDamageDealtToChampions: 26000},
		)
		got := testAggregator().Aggregate(testPuuid, []models.Match{m})
		if got.GoldLeadGames != 1 {
			t.Fatalf("goldLeadGames = %d, want 1", got.GoldLeadGames)
		}
		if !almostEqual(got.AvgGoldLead, 3000) {
			t.Errorf("avgGoldLead = %v, want 3000", got.AvgGoldLead)
		}
		if !almostEqual(got.AvgDmgLead, -6000) {
			t.Errorf("avgDmgLead = %v, want -6000", got.AvgDmgLead)
		}
	})

	t.Run("NoOpponent", func(t *testing.T) {
		m := makeMatch(1800,
			models.MatchParticipant{TeamPosition: "BOTTOM", GoldEarned: 15000},
			models.MatchParticipant{Puuid: "opp", TeamID: 200, TeamPosition: "MIDDLE"},
		)
		got := testAggregator().Aggregate(testPuuid, []models.Match{m})
		if got.GoldLeadGames != 0 || got.AvgGoldLead != 0 {
			t.Errorf("lead = %v over %d games, want 0 over 0", got.AvgGoldLead, got.GoldLeadGames)
		}
	})

	t.Run("EmptyPositionNeverMatches", func(t *testing.T) {
		m := makeMatch(1800,
			models.MatchParticipant{TeamPosition: "", GoldEarned: 15000},
			models.MatchParticipant{Puuid: "opp", TeamID: 200, TeamPosition: ""},
		)
		got := testAggregator().Aggregate(testPuuid, []models.Match{m})
		if got.GoldLeadGames != 0 {
			t.Errorf("goldLeadGames = %d, want 0 for empty position", got.GoldLeadGames)
		}
	})
}

func TestAggregateChampionStats(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{ChampionName: "Jinx", Win: true, Kills: 10}),
		makeMatch(1800, models.MatchParticipant{ChampionName: "Jinx", Win: true}),
		makeMatch(1800, models.MatchParticipant{ChampionName: "Jinx", Win: false}),
		makeMatch(1800, models.MatchParticipant{ChampionName: "Caitlyn", Win: true}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if len(got.ChampionStats) != 2 {
		t.Fatalf("championStats len = %d, want 2", len(got.ChampionStats))
	}
	jinx := got.ChampionStats[0]
	if jinx.ChampionName != "Jinx" {
		t.Fatalf("first champion = %q, want Jinx (most games)", jinx.ChampionName)
	}
	if jinx.Games != 3 || jinx.Wins != 2 || jinx.Losses != 1 {
		t.Errorf("Jinx = %d games %dW-%dL, want 3 games 2W-1L", jinx.Games, jinx.Wins, jinx.Losses)
	}
	if math.Abs(jinx.Winrate-100.0*2/3) > 0.01 {
		t.Errorf("Jinx winrate = %v, want ~66.67", jinx.Winrate)
	}
}

func TestAggregateChampionTieBreaksByName(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{ChampionName: "Zed"}),
		makeMatch(1800, models.MatchParticipant{ChampionName: "Ashe"}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if got.ChampionStats[0].ChampionName != "Ashe" {
		t.Errorf("equal games should order alphabetically, got %q first",
			got.ChampionStats[0].ChampionName)
	}
}

func TestAggregateRolesAndPrimaryRole(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{TeamPosition: "JUNGLE", Win: true}),
		makeMatch(1800, models.MatchParticipant{TeamPosition: "JUNGLE", Win: false}),
		makeMatch(1800, models.MatchParticipant{TeamPosition: "TOP", Win: true}),
		makeMatch(1800, models.MatchParticipant{TeamPosition: ""}),
	}

	got := testAggregator().Aggregate(testPuuid, matches)
	if len(got.RoleStats) != 2 {
		t.Fatalf("roleStats len = %d, want 2 (empty position excluded)", len(got.RoleStats))
	}
	if got.RoleStats[0].Position != "JUNGLE" || got.RoleStats[0].Games != 2 {
		t.Errorf("top role = %+v, want JUNGLE with 2 games", got.RoleStats[0])
	}
	if got.PrimaryRole == nil || *got.PrimaryRole != "JUNGLE" {
		t.Errorf("primaryRole = %v, want JUNGLE", got.PrimaryRole)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	matches := []models.Match{
		makeMatch(1800, models.MatchParticipant{ChampionName: "Jinx", TeamPosition: "BOTTOM", Win: true, Kills: 4, Deaths: 2, Assists: 9}),
		makeMatch(2100, models.MatchParticipant{ChampionName: "Caitlyn", TeamPosition: "BOTTOM", Win: false, Kills: 1, Deaths: 7, Assists: 3}),
		makeMatch(1500, models.MatchParticipant{ChampionName: "Jinx", TeamPosition: "MIDDLE", Win: true, Kills: 12, Deaths: 1, Assists: 2}),
	}
	reversed := []models.Match{matches[2], matches[1], matches[0]}

	agg := testAggregator()
	a := agg.Aggregate(testPuuid, matches)
	b := agg.Aggregate(testPuuid, reversed)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("aggregation is order-dependent:\n%+v\n%+v", a, b)
	}
}

func TestCalcWinrate(t *testing.T) {
	if got := CalcWinrate(0, 0); got != 0 {
		t.Errorf("CalcWinrate(0,0) = %v, want 0", got)
	}
	if got := CalcWinrate(1, 2); got != 50 {
		t.Errorf("CalcWinrate(1,2) = %v, want 50", got)
	}
}
