// result.go

package match

import (
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// ApplyResult 记录比赛结果并更新四名球员的统计
//
// 不做重复录入检查，重复调用会重复计数；对外接口应使用 ReportWinner。
func ApplyResult(players []models.Player, m *models.Match, winner models.TeamSide) {
	for _, id := range m.PlayerIDs() {
		i := models.FindPlayer(players, id)
		if i < 0 {
			continue
		}
		p := &players[i]
		p.MatchesPlayed++
		if m.SideOf(id) == winner {
			p.Wins++
		} else {
			p.Losses++
		}
	}
	m.Winner = winner
}

// undoResult 撤销一场比赛对统计的影响
func undoResult(players []models.Player, m *models.Match) {
	if !m.Finished() {
		return
	}
	for _, id := range m.PlayerIDs() {
		i := models.FindPlayer(players, id)
		if i < 0 {
			continue
		}
		p := &players[i]
		p.MatchesPlayed--
		if m.SideOf(id) == m.Winner {
			p.Wins--
		} else {
			p.Losses--
		}
	}
	m.Winner = models.TeamNone
}

// ReportWinner 录入比赛胜方
func ReportWinner(session *models.Session, matchID string, winner models.TeamSide) (models.Match, error) {
	if !winner.Valid() {
		return models.Match{}, models.ErrInvalidWinner
	}
	idx := session.MatchIndex(matchID)
	if idx < 0 {
		return models.Match{}, models.NewSessionErrorf(models.CodeMatchNotFound, "比赛 %s 不存在", matchID)
	}
	m := &session.Matches[idx]
	if m.Finished() {
		return models.Match{}, models.ErrResultRecorded
	}

	ApplyResult(session.Players, m, winner)
	resultsRecorded.Inc()
	return *m, nil
}

// RevertMatch 回退到指定比赛之前，撤销它及之后所有比赛的统计
func RevertMatch(session *models.Session, matchID string) (int, error) {
	idx := session.MatchIndex(matchID)
	if idx < 0 {
		return 0, models.NewSessionErrorf(models.CodeMatchNotFound, "比赛 %s 不存在", matchID)
	}
	if idx == 0 {
		return 0, models.ErrCannotRevertFirstMatch
	}

	for i := len(session.Matches) - 1; i >= idx; i-- {
		undoResult(session.Players, &session.Matches[i])
	}
	removed := len(session.Matches) - idx
	session.Matches = session.Matches[:idx:idx]

	matchesReverted.Add(float64(removed))
	return removed, nil
}
