package protocol

import (
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// PlayerRef 比赛中的球员引用，球员已离开名单时 Removed 为 true
type PlayerRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Removed bool   `json:"removed,omitempty"`
}

// MatchView 比赛展示数据
type MatchView struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	Team1     [2]PlayerRef    `json:"team1"`
	Team2     [2]PlayerRef    `json:"team2"`
	Winner    models.TeamSide `json:"winner,omitempty"`
	Finished  bool            `json:"finished"`
	CanRevert bool            `json:"can_revert"`
	CreatedAt string          `json:"created_at"`
}

// PlayerView 球员展示数据
type PlayerView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	MatchesPlayed int     `json:"matches"`
	WinRate       float64 `json:"win_rate"`
}

// SessionView 场次展示数据
type SessionView struct {
	Key            string       `json:"key"`
	Name           string       `json:"name"`
	Players        []PlayerView `json:"players"`
	Matches        []MatchView  `json:"matches"`
	CurrentMatch   *MatchView   `json:"current_match,omitempty"`
	CanCreateMatch bool         `json:"can_create_match"`
}

// ConvertPlayerToView 将球员模型转换为展示数据
func ConvertPlayerToView(p *models.Player) PlayerView {
	return PlayerView{
		ID:            p.ID,
		Name:          p.Name,
		Wins:          p.Wins,
		Losses:        p.Losses,
		MatchesPlayed: p.MatchesPlayed,
		WinRate:       p.WinRate(),
	}
}

// ConvertMatchToView 将比赛模型转换为展示数据
func ConvertMatchToView(session *models.Session, index int) MatchView {
	m := &session.Matches[index]
	ref := func(id string) PlayerRef {
		if p := session.Player(id); p != nil {
			return PlayerRef{ID: id, Name: p.Name}
		}
		return PlayerRef{ID: id, Removed: true}
	}

	return MatchView{
		ID:        m.ID,
		Number:    m.Number,
		Team1:     [2]PlayerRef{ref(m.Team1[0]), ref(m.Team1[1])},
		Team2:     [2]PlayerRef{ref(m.Team2[0]), ref(m.Team2[1])},
		Winner:    m.Winner,
		Finished:  m.Finished(),
		CanRevert: index > 0,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

// ConvertSessionToView 将场次转换为展示数据
func ConvertSessionToView(key string, session *models.Session) SessionView {
	view := SessionView{
		Key:            key,
		Name:           session.Name,
		Players:        make([]PlayerView, 0, len(session.Players)),
		Matches:        make([]MatchView, 0, len(session.Matches)),
		CanCreateMatch: session.CanCreateMatch(),
	}
	for i := range session.Players {
		view.Players = append(view.Players, ConvertPlayerToView(&session.Players[i]))
	}
	for i := range session.Matches {
		view.Matches = append(view.Matches, ConvertMatchToView(session, i))
	}
	if current := session.CurrentMatch(); current != nil {
		mv := view.Matches[len(view.Matches)-1]
		view.CurrentMatch = &mv
	}
	return view
}
