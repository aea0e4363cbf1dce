// policy.go

package match

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"go.uber.org/zap"
)

// Rotation 轮换策略，根据已有比赛场数选择选人策略
type Rotation struct {
	rng    pairing.Rand
	logger *zap.Logger
	now    func() time.Time
}

// NewRotation 创建轮换策略
func NewRotation(rng pairing.Rand, logger *zap.Logger) *Rotation {
	return &Rotation{
		rng:    rng,
		logger: logger,
		now:    time.Now,
	}
}

// NextPairing 计算下一场对阵，不修改名单与历史
func (r *Rotation) NextPairing(players []models.Player, history []models.Match) (pairing.Pairing, error) {
	switch {
	case len(history) == 0:
		return pairing.FirstMatch(players, r.rng)
	case len(history) == 1 && history[0].Finished():
		p, err := pairing.SecondMatch(players, history[0], r.rng)
		if errors.Is(err, pairing.ErrNoLosingTeam) {
			r.logger.Warn("第二场无法延续落败球员，改用均衡选人",
				zap.String("match_id", history[0].ID))
			return pairing.BestMatch(players, history, r.rng)
		}
		return p, err
	default:
		return pairing.BestMatch(players, history, r.rng)
	}
}

// CreateNextMatch 创建下一场比赛并追加到场次
func (r *Rotation) CreateNextMatch(session *models.Session) (models.Match, error) {
	if len(session.Players) < pairing.MinPlayers {
		return models.Match{}, models.ErrInsufficientPlayers
	}
	if !session.CanCreateMatch() {
		return models.Match{}, models.ErrMatchInProgress
	}

	p, err := r.NextPairing(session.Players, session.Matches)
	if err != nil {
		return models.Match{}, err
	}

	m := models.Match{
		ID:        newMatchID(),
		Number:    len(session.Matches) + 1,
		Team1:     [2]string{p.Team1[0].ID, p.Team1[1].ID},
		Team2:     [2]string{p.Team2[0].ID, p.Team2[1].ID},
		CreatedAt: r.now(),
	}
	session.Matches = append(session.Matches, m)

	matchesCreated.WithLabelValues(string(p.Strategy)).Inc()
	r.logger.Debug("创建比赛",
		zap.String("match_id", m.ID),
		zap.Int("number", m.Number),
		zap.String("strategy", string(p.Strategy)))

	return m, nil
}

// newMatchID 按时间排序的比赛ID
func newMatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
