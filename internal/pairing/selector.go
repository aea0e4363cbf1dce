// selector.go

package pairing

import (
	"cmp"
	"errors"
	"slices"

	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/samber/lo"
)

// Strategy 选人策略
type Strategy string

const (
	// StrategyFirst 首场按分组抽签
	StrategyFirst Strategy = "first"
	// StrategySecond 第二场延续一名落败球员
	StrategySecond Strategy = "second"
	// StrategyRested 轮休球员足够时只从轮休球员中抽签
	StrategyRested Strategy = "rested"
	// StrategyBalanced 按经验排序后均衡分组
	StrategyBalanced Strategy = "balanced"
)

// ErrNoLosingTeam 上一场没有仍在名单内的落败球员
var ErrNoLosingTeam = errors.New("上一场没有可延续的落败球员")

// Pairing 一场对阵，不修改名单与历史
type Pairing struct {
	Team1    [2]models.Player
	Team2    [2]models.Player
	Strategy Strategy
}

// PlayerIDs 四个位置的球员ID，顺序为 t1p1, t1p2, t2p1, t2p2
func (p Pairing) PlayerIDs() []string {
	return []string{p.Team1[0].ID, p.Team1[1].ID, p.Team2[0].ID, p.Team2[1].ID}
}

func checkRoster(players []models.Player) error {
	_, _, err := GroupSizes(len(players))
	return err
}

// FirstMatch 首场对阵
//
// 按名单顺序切分为 A、B 两组，每队各从 A、B 组抽一人。
func FirstMatch(players []models.Player, rng Rand) (Pairing, error) {
	groupA, groupB, err := SplitGroups(players)
	if err != nil {
		return Pairing{}, err
	}

	t1p1, groupA := draw(rng, groupA)
	t1p2, groupB := draw(rng, groupB)
	t2p1, _ := draw(rng, groupA)
	t2p2, _ := draw(rng, groupB)

	return Pairing{
		Team1:    [2]models.Player{t1p1, t1p2},
		Team2:    [2]models.Player{t2p1, t2p2},
		Strategy: StrategyFirst,
	}, nil
}

// SecondMatch 第二场对阵
//
// 从上一场落败方随机延续一人到二号队一号位，其余三个位置优先从上一场未上场的球员中抽取，
// 依次填入 t1p1、t1p2、t2p2。
func SecondMatch(players []models.Player, previous models.Match, rng Rand) (Pairing, error) {
	if err := checkRoster(players); err != nil {
		return Pairing{}, err
	}
	if !previous.Finished() {
		return Pairing{}, ErrNoLosingTeam
	}

	losing := previous.Team(previous.Winner.Opponent())
	losers := lo.Filter(losing[:], func(id string, _ int) bool {
		return models.FindPlayer(players, id) >= 0
	})
	if len(losers) == 0 {
		return Pairing{}, ErrNoLosingTeam
	}

	carriedID, _ := draw(rng, losers)
	carried := players[models.FindPlayer(players, carriedID)]

	outsiders := lo.Filter(players, func(p models.Player, _ int) bool {
		return !previous.Involves(p.ID)
	})
	picked, _ := drawN(rng, outsiders, 3)
	if len(picked) < 3 {
		// 空闲球员不足时，从上一场其他球员中补齐
		others := lo.Filter(players, func(p models.Player, _ int) bool {
			return previous.Involves(p.ID) && p.ID != carried.ID
		})
		extra, _ := drawN(rng, others, 3-len(picked))
		picked = append(picked, extra...)
	}

	// 不与上一场搭档再次同队
	if partner, ok := previous.Partner(carried.ID); ok && picked[2].ID == partner {
		picked[0], picked[2] = picked[2], picked[0]
	}

	return Pairing{
		Team1:    [2]models.Player{picked[0], picked[1]},
		Team2:    [2]models.Player{carried, picked[2]},
		Strategy: StrategySecond,
	}, nil
}

// BestMatch 第三场及以后的对阵
//
// 最近 RecentWindow 场未上场的球员不少于四人时，只在他们之间按首场规则抽签；
// 否则按经验排序分组，并优先安排轮休球员。
func BestMatch(players []models.Player, history []models.Match, rng Rand) (Pairing, error) {
	if err := checkRoster(players); err != nil {
		return Pairing{}, err
	}

	recent := RecentPlayerIDs(history, RecentWindow)
	rested := lo.Filter(players, func(p models.Player, _ int) bool {
		return !recent[p.ID]
	})
	if len(rested) >= MinPlayers {
		pairing, err := FirstMatch(rested, rng)
		if err != nil {
			return Pairing{}, err
		}
		pairing.Strategy = StrategyRested
		return pairing, nil
	}

	return balancedMatch(players, history, recent, rng)
}

func balancedMatch(players []models.Player, history []models.Match, recent map[string]bool, rng Rand) (Pairing, error) {
	sorted := SortByExperience(players)
	groupA, groupB, err := SplitGroups(sorted)
	if err != nil {
		return Pairing{}, err
	}

	isRested := func(p models.Player, _ int) bool { return !recent[p.ID] }

	t1p1 := drawPreferring(rng, groupA, isRested)
	t2p1 := drawPreferring(rng, groupB, isRested)
	anchors := []string{t1p1.ID, t2p1.ID}

	remaining := lo.Filter(sorted, func(p models.Player, _ int) bool {
		return p.ID != t1p1.ID && p.ID != t2p1.ID
	})
	restedLeft := lo.Filter(remaining, isRested)
	recentLeft := lo.Reject(remaining, isRested)

	var seconds []models.Player
	if len(restedLeft) >= 2 {
		seconds = chooseFresh(rng, restedLeft, 2, history, anchors)
	} else {
		seconds = append(restedLeft, chooseFresh(rng, recentLeft, 2-len(restedLeft), history, anchors)...)
	}

	return Pairing{
		Team1:    [2]models.Player{t1p1, seconds[0]},
		Team2:    [2]models.Player{t2p1, seconds[1]},
		Strategy: StrategyBalanced,
	}, nil
}

// drawPreferring 优先在满足条件的球员中抽取
func drawPreferring(rng Rand, pool []models.Player, prefer func(models.Player, int) bool) models.Player {
	candidates := lo.Filter(pool, prefer)
	if len(candidates) == 0 {
		candidates = pool
	}
	picked, _ := draw(rng, candidates)
	return picked
}

// chooseFresh 取 n 名未与 anchors 同场过的球员，人数不足时随机抽取
func chooseFresh(rng Rand, pool []models.Player, n int, history []models.Match, anchors []string) []models.Player {
	if n <= 0 {
		return nil
	}
	fresh := lo.Filter(pool, func(p models.Player, _ int) bool {
		return !sharedMatch(history, p.ID, anchors)
	})
	if len(fresh) >= n {
		return fresh[:n]
	}
	picked, _ := drawN(rng, pool, n)
	return picked
}

func sharedMatch(history []models.Match, playerID string, others []string) bool {
	for i := range history {
		m := &history[i]
		if !m.Involves(playerID) {
			continue
		}
		if lo.ContainsBy(others, m.Involves) {
			return true
		}
	}
	return false
}

// RecentPlayerIDs 最近 window 场比赛中上场的球员
func RecentPlayerIDs(history []models.Match, window int) map[string]bool {
	recent := make(map[string]bool)
	start := max(len(history)-window, 0)
	for _, m := range history[start:] {
		for _, id := range m.PlayerIDs() {
			recent[id] = true
		}
	}
	return recent
}

// SortByExperience 按上场次数、胜率升序排序，相同时保持名单顺序
func SortByExperience(players []models.Player) []models.Player {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b models.Player) int {
		if c := cmp.Compare(a.MatchesPlayed, b.MatchesPlayed); c != 0 {
			return c
		}
		return models.CompareWinRate(&a, &b)
	})
	return sorted
}
