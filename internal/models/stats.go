// stats.go

package models

// Standing 场次结束时的排名条目
type Standing struct {
	PlayerID     string  `json:"player_id"`
	Name         string  `json:"name"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalMatches int     `json:"total_matches"`
	Rank         int     `json:"rank"`
}
