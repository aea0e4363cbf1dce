// session.go

package models

// Session 一个场次的全部状态，每次修改后整体写回存储
type Session struct {
	Name    string   `json:"name,omitempty"`
	Players []Player `json:"players"`
	Matches []Match  `json:"matches"`
}

// LastMatch 最近一场比赛
func (s *Session) LastMatch() *Match {
	if len(s.Matches) == 0 {
		return nil
	}
	return &s.Matches[len(s.Matches)-1]
}

// CanCreateMatch 最近一场已决出胜负时才能开新场
func (s *Session) CanCreateMatch() bool {
	last := s.LastMatch()
	return last == nil || last.Finished()
}

// CurrentMatch 未结束的比赛
func (s *Session) CurrentMatch() *Match {
	last := s.LastMatch()
	if last == nil || last.Finished() {
		return nil
	}
	return last
}

// MatchIndex 按ID查找比赛下标，未找到返回 -1
func (s *Session) MatchIndex(id string) int {
	for i := range s.Matches {
		if s.Matches[i].ID == id {
			return i
		}
	}
	return -1
}

// Player 按ID查找球员
func (s *Session) Player(id string) *Player {
	if i := FindPlayer(s.Players, id); i >= 0 {
		return &s.Players[i]
	}
	return nil
}

// Clone 深拷贝，修改失败时原状态不受影响
func (s *Session) Clone() *Session {
	c := &Session{Name: s.Name}
	c.Players = append(make([]Player, 0, len(s.Players)), s.Players...)
	c.Matches = append(make([]Match, 0, len(s.Matches)), s.Matches...)
	return c
}
