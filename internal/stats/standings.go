// standings.go

package stats

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// ComputeFinalStandings 计算场次最终排名
//
// 按胜率降序、胜场降序、负场升序、名字升序排序。与最高胜率相同的球员并列第一，
// 其余球员取排序后的位置作为名次。
func ComputeFinalStandings(players []models.Player) []models.Standing {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b models.Player) int {
		if c := models.CompareWinRate(&b, &a); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Losses, b.Losses); c != 0 {
			return c
		}
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	standings := make([]models.Standing, 0, len(sorted))
	for i := range sorted {
		p := &sorted[i]
		rank := i + 1
		if models.CompareWinRate(p, &sorted[0]) == 0 {
			rank = 1
		}
		standings = append(standings, models.Standing{
			PlayerID:     p.ID,
			Name:         p.Name,
			Wins:         p.Wins,
			Losses:       p.Losses,
			WinRate:      p.WinRate(),
			TotalMatches: p.Wins + p.Losses,
			Rank:         rank,
		})
	}
	return standings
}

// Leaders 并列第一的球员
func Leaders(standings []models.Standing) []models.Standing {
	var leaders []models.Standing
	for _, s := range standings {
		if s.Rank == 1 {
			leaders = append(leaders, s)
		}
	}
	return leaders
}
