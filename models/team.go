package models

import "strings"

// Team represents an NFL franchise. Games store the short Name ("Bills").
type Team struct {
	Abbr string `json:"abbr"`
	Name string `json:"name"`
	City string `json:"city"`
}

// DisplayName returns the full display name, e.g. "Buffalo Bills"
func (t Team) DisplayName() string {
	return t.City + " " + t.Name
}

var teams = []Team{
	// AFC East
	{Abbr: "BUF", Name: "Bills", City: "Buffalo"},
	{Abbr: "MIA", Name: "Dolphins", City: "Miami"},
	{Abbr: "NE", Name: "Patriots", City: "New England"},
	{Abbr: "NYJ", Name: "Jets", City: "New York"},

	// AFC North
	{Abbr: "BAL", Name: "Ravens", City: "Baltimore"},
	{Abbr: "CIN", Name: "Bengals", City: "Cincinnati"},
	{Abbr: "CLE", Name: "Browns", City: "Cleveland"},
	{Abbr: "PIT", Name: "Steelers", City: "Pittsburgh"},

	// AFC South
	{Abbr: "HOU", Name: "Texans", City: "Houston"},
	{Abbr: "IND", Name: "Colts", City: "Indianapolis"},
	{Abbr: "JAX", Name: "Jaguars", City: "Jacksonville"},
	{Abbr: "TEN", Name: "Titans", City: "Tennessee"},

	// AFC West
	{Abbr: "DEN", Name: "Broncos", City: "Denver"},
	{Abbr: "KC", Name: "Chiefs", City: "Kansas City"},
	{Abbr: "LV", Name: "Raiders", City: "Las Vegas"},
	{Abbr: "LAC", Name: "Chargers", City: "Los Angeles"},

	// NFC East
	{Abbr: "DAL", Name: "Cowboys", City: "Dallas"},
	{Abbr: "NYG", Name: "Giants", City: "New York"},
	{Abbr: "PHI", Name: "Eagles", City: "Philadelphia"},
	{Abbr: "WSH", Name: "Commanders", City: "Washington"},

	// NFC North
	{Abbr: "CHI", Name: "Bears", City: "Chicago"},
	{Abbr: "DET", Name: "Lions", City: "Detroit"},
	{Abbr: "GB", Name: "Packers", City: "Green Bay"},
	{Abbr: "MIN", Name: "Vikings", City: "Minnesota"},

	// NFC South
	{Abbr: "ATL", Name: "Falcons", City: "Atlanta"},
	{Abbr: "CAR", Name: "Panthers", City: "Carolina"},
	{Abbr: "NO", Name: "Saints", City: "New Orleans"},
	{Abbr: "TB", Name: "Buccaneers", City: "Tampa Bay"},

	// NFC West
	{Abbr: "ARI", Name: "Cardinals", City: "Arizona"},
	{Abbr: "LAR", Name: "Rams", City: "Los Angeles"},
	{Abbr: "SF", Name: "49ers", City: "San Francisco"},
	{Abbr: "SEA", Name: "Seahawks", City: "Seattle"},
}

var teamLookup = buildTeamLookup()

func buildTeamLookup() map[string]Team {
	lookup := make(map[string]Team, len(teams)*3+1)
	for _, t := range teams {
		lookup[strings.ToLower(t.Abbr)] = t
		lookup[strings.ToLower(t.Name)] = t
		lookup[strings.ToLower(t.DisplayName())] = t
	}
	// Alternative abbreviation
	lookup["was"] = lookup["wsh"]
	return lookup
}

// AllTeams returns every franchise
func AllTeams() []Team {
	out := make([]Team, len(teams))
	copy(out, teams)
	return out
}

// LookupTeam resolves an abbreviation, short name, or display name
func LookupTeam(name string) (Team, bool) {
	t, ok := teamLookup[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// CanonicalTeamName maps any known form to the stored short name. Unknown names pass through.
func CanonicalTeamName(name string) string {
	if t, ok := LookupTeam(name); ok {
		return t.Name
	}
	return strings.TrimSpace(name)
}
