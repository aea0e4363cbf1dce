// group.go

package pairing

import (
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

const (
	// MinPlayers 开赛最少人数
	MinPlayers = 4
	// MaxPlayers 名单人数上限
	MaxPlayers = 7
	// RecentWindow 判定轮休时回看的比赛场数
	RecentWindow = 3
)

// groupSizes 名单人数 -> (A组人数, B组人数)
var groupSizes = map[int][2]int{
	4: {2, 2},
	5: {3, 2},
	6: {3, 3},
	7: {4, 3},
}

// GroupSizes 返回分组人数
func GroupSizes(n int) (int, int, error) {
	if n < MinPlayers {
		return 0, 0, models.ErrInsufficientPlayers
	}
	sizes, ok := groupSizes[n]
	if !ok {
		return 0, 0, models.ErrTooManyPlayers
	}
	return sizes[0], sizes[1], nil
}

// SplitGroups 按给定顺序切分为 A、B 两组
func SplitGroups(players []models.Player) ([]models.Player, []models.Player, error) {
	sizeA, _, err := GroupSizes(len(players))
	if err != nil {
		return nil, nil, err
	}
	groupA := append([]models.Player(nil), players[:sizeA]...)
	groupB := append([]models.Player(nil), players[sizeA:]...)
	return groupA, groupB, nil
}
