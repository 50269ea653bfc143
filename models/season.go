package models

import (
	"sort"
	"time"
)

const (
	MinWeek = 1
	MaxWeek = 18
)

// ValidWeek reports whether week is a regular season week
func ValidWeek(week int) bool {
	return week >= MinWeek && week <= MaxWeek
}

// LeagueSeason returns the league season t falls in. A season is named for the year it
// kicks off, so January and February belong to the previous year's season.
func LeagueSeason(t time.Time) int {
	if t.Month() < time.March {
		return t.Year() - 1
	}
	return t.Year()
}

// CurrentWeek derives the active week from a season's schedule.
// Before the first kickoff it is the earliest scheduled week. After that it is the week of the
// most recent kickoff, moving on to the next scheduled week once every game in it is terminal.
func CurrentWeek(games []*Game, now time.Time) int {
	if len(games) == 0 {
		return MinWeek
	}

	weeks := make(map[int][]*Game)
	var latest *Game
	for _, g := range games {
		weeks[g.Week] = append(weeks[g.Week], g)
		if g.Date.After(now) {
			continue
		}
		if latest == nil || g.Date.After(latest.Date) {
			latest = g
		}
	}

	ordered := make([]int, 0, len(weeks))
	for w := range weeks {
		ordered = append(ordered, w)
	}
	sort.Ints(ordered)

	if latest == nil {
		return ordered[0]
	}

	week := latest.Week
	for _, g := range weeks[week] {
		if !g.Status.IsTerminal() {
			return week
		}
	}
	for _, w := range ordered {
		if w > week {
			return w
		}
	}
	return week
}
