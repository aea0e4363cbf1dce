// player.go

package models

// Player 球员模型，胜负统计仅在本场次内有效
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	MatchesPlayed int    `json:"matches"`
}

// WinRate 胜率，未参赛时为 0
func (p *Player) WinRate() float64 {
	total := p.Wins + p.Losses
	if total == 0 {
		return 0
	}
	return float64(p.Wins) / float64(total)
}

// CompareWinRate 精确比较两名球员的胜率，返回 -1、0 或 1
//
// 交叉相乘比较，2/3 与 4/6 相等。
func CompareWinRate(a, b *Player) int {
	return compareRatio(a.Wins, a.Wins+a.Losses, b.Wins, b.Wins+b.Losses)
}

func compareRatio(aNum, aDen, bNum, bDen int) int {
	// 未参赛按 0/1 处理
	if aDen == 0 {
		aNum, aDen = 0, 1
	}
	if bDen == 0 {
		bNum, bDen = 0, 1
	}
	left := aNum * bDen
	right := bNum * aDen
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

// FindPlayer 按ID查找球员下标，未找到返回 -1
func FindPlayer(players []Player, id string) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}
