// match.go

package models

import "time"

// TeamSide 队伍标识
type TeamSide string

const (
	// TeamNone 未决出胜负
	TeamNone TeamSide = ""
	// Team1 一号队
	Team1 TeamSide = "team1"
	// Team2 二号队
	Team2 TeamSide = "team2"
)

// Valid 是否为可录入的胜方
func (s TeamSide) Valid() bool {
	return s == Team1 || s == Team2
}

// Opponent 对手队伍
func (s TeamSide) Opponent() TeamSide {
	switch s {
	case Team1:
		return Team2
	case Team2:
		return Team1
	default:
		return TeamNone
	}
}

// Match 一场双打比赛，队伍保存球员ID
type Match struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Team1     [2]string `json:"team1"`
	Team2     [2]string `json:"team2"`
	Winner    TeamSide  `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Finished 是否已录入胜方
func (m *Match) Finished() bool {
	return m.Winner.Valid()
}

// Team 返回指定一方的球员ID
func (m *Match) Team(side TeamSide) [2]string {
	if side == Team2 {
		return m.Team2
	}
	return m.Team1
}

// PlayerIDs 四名参赛球员ID
func (m *Match) PlayerIDs() []string {
	return []string{m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1]}
}

// Involves 球员是否参加了本场
func (m *Match) Involves(playerID string) bool {
	for _, id := range m.PlayerIDs() {
		if id == playerID {
			return true
		}
	}
	return false
}

// SideOf 球员所在队伍，未参赛返回 TeamNone
func (m *Match) SideOf(playerID string) TeamSide {
	switch playerID {
	case m.Team1[0], m.Team1[1]:
		return Team1
	case m.Team2[0], m.Team2[1]:
		return Team2
	}
	return TeamNone
}

// Partner 同队搭档ID
func (m *Match) Partner(playerID string) (string, bool) {
	switch playerID {
	case m.Team1[0]:
		return m.Team1[1], true
	case m.Team1[1]:
		return m.Team1[0], true
	case m.Team2[0]:
		return m.Team2[1], true
	case m.Team2[1]:
		return m.Team2[0], true
	}
	return "", false
}
