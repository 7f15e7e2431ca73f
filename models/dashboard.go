package models

type DashboardStats struct {
	UsersTotal         int `json:"users_total"`
	RegistrationsTotal int `json:"registrations_total"`
	TeamsTotal         int `json:"teams_total"`
	LockedTeams        int `json:"locked_teams"`
	MatchesTotal       int `json:"matches_total"`
	LiveMatches        int `json:"live_matches"`
}
