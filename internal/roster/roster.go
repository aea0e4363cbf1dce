// roster.go

package roster

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"github.com/samber/lo"
)

// MaxNameLength 球员名最大字符数
const MaxNameLength = 16

// RemovalPolicy 删除球员时如何处理其参加过的比赛
type RemovalPolicy string

const (
	// KeepFinished 只删除未结束的比赛，已结束的比赛保留
	KeepFinished RemovalPolicy = "keep_finished"
	// PurgeAll 删除所有相关比赛，并撤销已结束比赛对其他球员的统计
	PurgeAll RemovalPolicy = "purge_all"
)

// ParseRemovalPolicy 解析配置中的删除策略
func ParseRemovalPolicy(s string) (RemovalPolicy, error) {
	switch RemovalPolicy(s) {
	case KeepFinished, "":
		return KeepFinished, nil
	case PurgeAll:
		return PurgeAll, nil
	}
	return "", fmt.Errorf("未知的删除策略: %s", s)
}

// NormalizeName 去除首尾空白并检查长度
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", models.NewSessionErrorf(models.CodeNameTooLong, "球员名不能超过%d个字符", MaxNameLength)
	}
	return name, nil
}

// nameTaken 忽略大小写检查重名，exceptID 为改名时的球员自身
func nameTaken(players []models.Player, name, exceptID string) bool {
	return lo.ContainsBy(players, func(p models.Player) bool {
		return p.ID != exceptID && strings.EqualFold(p.Name, name)
	})
}

// AddPlayer 添加球员，统计从零开始
//
// 分组人数取决于名单人数，名单变化后已有比赛全部作废，所有球员统计清零。
func AddPlayer(session *models.Session, name string) (models.Player, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return models.Player{}, err
	}
	if nameTaken(session.Players, name, "") {
		return models.Player{}, models.NewSessionErrorf(models.CodeDuplicateName, "球员名 %s 已存在", name)
	}
	if len(session.Players) >= pairing.MaxPlayers {
		return models.Player{}, models.ErrRosterFull
	}

	ResetMatches(session)
	player := models.Player{
		ID:   uuid.NewString(),
		Name: name,
	}
	session.Players = append(session.Players, player)
	return player, nil
}

// ResetMatches 清空比赛并把所有球员统计归零，名单保留
func ResetMatches(session *models.Session) {
	for i := range session.Players {
		p := &session.Players[i]
		p.Wins, p.Losses, p.MatchesPlayed = 0, 0, 0
	}
	session.Matches = []models.Match{}
}

// RenamePlayer 修改球员名
func RenamePlayer(session *models.Session, id, name string) (models.Player, error) {
	player := session.Player(id)
	if player == nil {
		return models.Player{}, models.ErrPlayerNotFound
	}
	name, err := NormalizeName(name)
	if err != nil {
		return models.Player{}, err
	}
	if nameTaken(session.Players, name, id) {
		return models.Player{}, models.NewSessionErrorf(models.CodeDuplicateName, "球员名 %s 已存在", name)
	}
	player.Name = name
	return *player, nil
}

// RemovePlayer 删除球员
//
// KeepFinished 下已结束的比赛保留对该球员的引用，名字解析时需容忍找不到球员。
func RemovePlayer(session *models.Session, id string, policy RemovalPolicy) error {
	idx := models.FindPlayer(session.Players, id)
	if idx < 0 {
		return models.ErrPlayerNotFound
	}
	session.Players = append(session.Players[:idx:idx], session.Players[idx+1:]...)

	kept := session.Matches[:0:0]
	for _, m := range session.Matches {
		if !m.Involves(id) {
			kept = append(kept, m)
			continue
		}
		if !m.Finished() {
			continue
		}
		if policy == PurgeAll {
			undoForRemaining(session.Players, m)
			continue
		}
		kept = append(kept, m)
	}
	session.Matches = kept
	renumber(session.Matches)
	return nil
}

// undoForRemaining 撤销一场已结束比赛对仍在名单内球员的统计
func undoForRemaining(players []models.Player, m models.Match) {
	for _, pid := range m.PlayerIDs() {
		i := models.FindPlayer(players, pid)
		if i < 0 {
			continue
		}
		p := &players[i]
		p.MatchesPlayed--
		if m.SideOf(pid) == m.Winner {
			p.Wins--
		} else {
			p.Losses--
		}
	}
}

func renumber(matches []models.Match) {
	for i := range matches {
		matches[i].Number = i + 1
	}
}
