package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RosterEntry is one tracked player. The puuid pins the entry to a Riot
// account even when the player renames; gameName and tagLine are what the
// dashboard displays.
type RosterEntry struct {
	GameName string `json:"gameName" validate:"required"`
	TagLine  string `json:"tagLine" validate:"required"`
	Puuid    string `json:"puuid" validate:"required,min=20"`
}

// RiotID returns the display form "gameName#tagLine".
func (e RosterEntry) RiotID() string {
	return e.GameName + "#" + e.TagLine
}

// Roster is the fixed set of players the service tracks, loaded once at
// startup from a JSON file.
type Roster struct {
	entries []RosterEntry
	byPuuid map[string]int
	byName  map[string]int
}

// LoadRoster reads and validates the roster file. Duplicate puuids and
// duplicate riot IDs are rejected so aggregation never double counts.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}

	var entries []RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("roster file %s contains no players", path)
	}

	validate := validator.New()
	r := &Roster{
		entries: entries,
		byPuuid: make(map[string]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("roster entry %d invalid: %w", i, err)
		}
		if _, dup := r.byPuuid[e.Puuid]; dup {
			return nil, fmt.Errorf("duplicate puuid in roster: %s", e.Puuid)
		}
		nameKey := strings.ToLower(e.GameName)
		if _, dup := r.byName[nameKey]; dup {
			return nil, fmt.Errorf("duplicate game name in roster: %s", e.GameName)
		}
		r.byPuuid[e.Puuid] = i
		r.byName[nameKey] = i
	}
	return r, nil
}

// Entries returns the roster in file order.
func (r *Roster) Entries() []RosterEntry {
	return r.entries
}

// ByPuuid looks up a player by puuid.
func (r *Roster) ByPuuid(puuid string) (RosterEntry, bool) {
	i, ok := r.byPuuid[puuid]
	if !ok {
		return RosterEntry{}, false
	}
	return r.entries[i], true
}

// ByGameName looks up a player by display name, case-insensitively.
func (r *Roster) ByGameName(name string) (RosterEntry, bool) {
	i, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return RosterEntry{}, false
	}
	return r.entries[i], true
}
