// service.go

package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/roster"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/stats"
	"go.uber.org/zap"
)

// SessionStore 场次存储，每次修改后整体覆盖
type SessionStore interface {
	// Load 读取场次，不存在时返回 models.ErrSessionNotFound
	Load(ctx context.Context, key string) (*models.Session, error)
	Save(ctx context.Context, key string, session *models.Session) error
	Delete(ctx context.Context, key string) error
}

// StandingsArchiver 场次结束时归档最终排名
type StandingsArchiver interface {
	ArchiveStandings(ctx context.Context, key string, standings []models.Standing, finishedAt time.Time) error
	// ArchivedStandings 未归档时返回 models.ErrSessionNotFound
	ArchivedStandings(ctx context.Context, key string) ([]models.Standing, time.Time, error)
	FinishedSessions(ctx context.Context, limit int) ([]string, error)
}

// MatchService 场次服务
type MatchService struct {
	store    SessionStore
	archiver StandingsArchiver
	rotation *Rotation
	removal  roster.RemovalPolicy

	// 场次配置
	config *config.SessionConfig
	logger *zap.Logger

	// 自动开下一场的定时任务
	scheduler gocron.Scheduler

	// 串行化 读取-修改-写回
	mutex     sync.Mutex
	isRunning bool
}

// NewMatchService 创建场次服务
func NewMatchService(cfg *config.SessionConfig, store SessionStore, rng pairing.Rand, logger *zap.Logger) (*MatchService, error) {
	removal, err := roster.ParseRemovalPolicy(cfg.RemovalPolicy)
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("创建调度器失败: %w", err)
	}

	return &MatchService{
		store:     store,
		rotation:  NewRotation(rng, logger),
		removal:   removal,
		config:    cfg,
		logger:    logger,
		scheduler: scheduler,
	}, nil
}

// SetArchiver 设置排名归档
func (s *MatchService) SetArchiver(archiver StandingsArchiver) {
	s.archiver = archiver
}

// Start 启动场次服务
func (s *MatchService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("场次服务已经在运行")
	}
	s.scheduler.Start()
	s.isRunning = true

	s.logger.Info("场次服务启动",
		zap.Bool("auto_next_match", s.config.AutoNextMatch),
		zap.Duration("auto_next_delay", s.config.AutoNextDelay),
		zap.String("removal_policy", string(s.removal)))
	return nil
}

// Stop 停止场次服务，未执行的自动开场任务会被丢弃
func (s *MatchService) Stop() {
	s.mutex.Lock()
	if !s.isRunning {
		s.mutex.Unlock()
		return
	}
	s.isRunning = false
	s.mutex.Unlock()

	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("关闭调度器失败", zap.Error(err))
	}
	s.logger.Info("场次服务已停止")
}

// update 读取场次副本，修改成功后写回；修改失败时存储不变
func (s *MatchService) update(ctx context.Context, key string, fn func(*models.Session) error) (*models.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, key, next); err != nil {
		s.logger.Error("保存场次失败", zap.String("session", key), zap.Error(err))
		return nil, fmt.Errorf("保存场次失败: %w", err)
	}
	return next, nil
}

// MaxSessionKeyLength 场次键最大长度，与 sessions.key 列宽一致
const MaxSessionKeyLength = 100

func init() {
	slug.MaxLength = MaxSessionKeyLength
}

// SessionKey 由场次名生成存储键，超长时按单词截断
func SessionKey(name string) string {
	return slug.Make(name)
}

// CreateSession 创建空场次
func (s *MatchService) CreateSession(ctx context.Context, name string) (string, *models.Session, error) {
	key := SessionKey(name)
	if key == "" {
		return "", nil, models.NewSessionError(models.CodeNameRequired, "场次名不能为空")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.store.Load(ctx, key)
	switch {
	case err == nil:
		return "", nil, models.NewSessionErrorf(models.CodeSessionExists, "场次 %s 已存在", key)
	case !errors.Is(err, models.ErrSessionNotFound):
		return "", nil, err
	}

	session := &models.Session{
		Name:    name,
		Players: []models.Player{},
		Matches: []models.Match{},
	}
	if err := s.store.Save(ctx, key, session); err != nil {
		return "", nil, fmt.Errorf("保存场次失败: %w", err)
	}

	s.logger.Info("创建场次", zap.String("session", key))
	return key, session, nil
}

// GetSession 读取场次
func (s *MatchService) GetSession(ctx context.Context, key string) (*models.Session, error) {
	return s.store.Load(ctx, key)
}

// DeleteSession 删除场次
func (s *MatchService) DeleteSession(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.store.Load(ctx, key); err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}

// CreatePlayer 添加球员
func (s *MatchService) CreatePlayer(ctx context.Context, key, name string) (models.Player, error) {
	var (
		player  models.Player
		dropped int
	)
	_, err := s.update(ctx, key, func(session *models.Session) error {
		dropped = len(session.Matches)
		var err error
		player, err = roster.AddPlayer(session, name)
		return err
	})
	if err != nil {
		return models.Player{}, err
	}

	s.logger.Info("添加球员",
		zap.String("session", key),
		zap.String("player", player.Name),
		zap.Int("matches_reset", dropped))
	return player, nil
}

// RenamePlayer 修改球员名
func (s *MatchService) RenamePlayer(ctx context.Context, key, playerID, name string) (models.Player, error) {
	var player models.Player
	_, err := s.update(ctx, key, func(session *models.Session) error {
		var err error
		player, err = roster.RenamePlayer(session, playerID, name)
		return err
	})
	return player, err
}

// DeletePlayer 删除球员
func (s *MatchService) DeletePlayer(ctx context.Context, key, playerID string) error {
	_, err := s.update(ctx, key, func(session *models.Session) error {
		return roster.RemovePlayer(session, playerID, s.removal)
	})
	if err != nil {
		return err
	}

	s.logger.Info("删除球员", zap.String("session", key), zap.String("player_id", playerID))
	return nil
}

// CreateNextMatch 创建下一场比赛
func (s *MatchService) CreateNextMatch(ctx context.Context, key string) (models.Match, error) {
	var created models.Match
	_, err := s.update(ctx, key, func(session *models.Session) error {
		var err error
		created, err = s.rotation.CreateNextMatch(session)
		return err
	})
	if err != nil {
		return models.Match{}, err
	}

	s.logger.Info("创建比赛",
		zap.String("session", key),
		zap.String("match_id", created.ID),
		zap.Int("number", created.Number))
	return created, nil
}

// ReportWinner 录入胜方，开启自动开场时延迟创建下一场
func (s *MatchService) ReportWinner(ctx context.Context, key, matchID string, winner models.TeamSide) (models.Match, error) {
	var decided models.Match
	_, err := s.update(ctx, key, func(session *models.Session) error {
		var err error
		decided, err = ReportWinner(session, matchID, winner)
		return err
	})
	if err != nil {
		return models.Match{}, err
	}

	s.logger.Info("录入比赛结果",
		zap.String("session", key),
		zap.String("match_id", matchID),
		zap.String("winner", string(winner)))

	if s.config.AutoNextMatch {
		s.scheduleNextMatch(key)
	}
	return decided, nil
}

// scheduleNextMatch 延迟创建下一场，期间的手动操作以最后写入为准
func (s *MatchService) scheduleNextMatch(key string) {
	start := gocron.OneTimeJobStartImmediately()
	if s.config.AutoNextDelay > 0 {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(s.config.AutoNextDelay))
	}

	_, err := s.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(s.autoNextMatch, key),
	)
	if err != nil {
		autoNextFailures.Inc()
		s.logger.Warn("安排自动开场失败", zap.String("session", key), zap.Error(err))
	}
}

func (s *MatchService) autoNextMatch(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.CreateNextMatch(ctx, key); err != nil {
		autoNextFailures.Inc()
		if models.SessionErrorIs(err, models.CodeMatchInProgress) || models.SessionErrorIs(err, models.CodeInsufficientPlayers) {
			s.logger.Info("跳过自动开场", zap.String("session", key), zap.Error(err))
			return
		}
		s.logger.Warn("自动开场失败", zap.String("session", key), zap.Error(err))
	}
}

// RevertMatch 回退比赛
func (s *MatchService) RevertMatch(ctx context.Context, key, matchID string) (int, error) {
	var removed int
	_, err := s.update(ctx, key, func(session *models.Session) error {
		var err error
		removed, err = RevertMatch(session, matchID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("回退比赛",
		zap.String("session", key),
		zap.String("match_id", matchID),
		zap.Int("removed", removed))
	return removed, nil
}

// Standings 当前排名
func (s *MatchService) Standings(ctx context.Context, key string) ([]models.Standing, error) {
	session, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return stats.ComputeFinalStandings(session.Players), nil
}

// FinishSession 结束场次，计算最终排名并归档
func (s *MatchService) FinishSession(ctx context.Context, key string) ([]models.Standing, error) {
	standings, err := s.Standings(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveStandings(ctx, key, standings, time.Now()); err != nil {
			return nil, fmt.Errorf("归档排名失败: %w", err)
		}
	}

	s.logger.Info("场次结束", zap.String("session", key), zap.Int("players", len(standings)))
	return standings, nil
}

// ArchivedStandings 读取已结束场次的排名
func (s *MatchService) ArchivedStandings(ctx context.Context, key string) ([]models.Standing, time.Time, error) {
	if s.archiver == nil {
		return nil, time.Time{}, models.ErrSessionNotFound
	}
	return s.archiver.ArchivedStandings(ctx, key)
}

// FinishedSessions 最近结束的场次
func (s *MatchService) FinishedSessions(ctx context.Context, limit int) ([]string, error) {
	if s.archiver == nil {
		return []string{}, nil
	}
	return s.archiver.FinishedSessions(ctx, limit)
}

// RestartSession 保留名单，清空比赛与统计
func (s *MatchService) RestartSession(ctx context.Context, key string) (*models.Session, error) {
	return s.update(ctx, key, func(session *models.Session) error {
		roster.ResetMatches(session)
		return nil
	})
}
