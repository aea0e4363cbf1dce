package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// 排名归档Redis键名
const (
	// FinishedSessionsKey 已结束场次，分数为结束时间
	FinishedSessionsKey = "standings:finished"
	// StandingsPrefix 场次排名详情键前缀
	StandingsPrefix = "standings:detail:"
)

// RedisStandingsArchiver Redis排名归档
type RedisStandingsArchiver struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStandingsArchiver 创建Redis排名归档
func NewRedisStandingsArchiver(client *redis.Client, ttl time.Duration) *RedisStandingsArchiver {
	return &RedisStandingsArchiver{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

type standingsRecord struct {
	Standings  []models.Standing `json:"standings"`
	FinishedAt time.Time         `json:"finished_at"`
}

// ArchiveStandings 归档最终排名，同一场次重复结束时覆盖
func (a *RedisStandingsArchiver) ArchiveStandings(ctx context.Context, key string, standings []models.Standing, finishedAt time.Time) error {
	data, err := json.Marshal(standingsRecord{Standings: standings, FinishedAt: finishedAt})
	if err != nil {
		return err
	}

	pipe := a.client.TxPipeline()
	pipe.Set(ctx, StandingsPrefix+key, data, a.ttl)
	pipe.ZAdd(ctx, FinishedSessionsKey, &redis.Z{
		Score:  float64(finishedAt.Unix()),
		Member: key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("归档排名失败: %w", err)
	}
	return nil
}

// ArchivedStandings 读取场次的归档排名
func (a *RedisStandingsArchiver) ArchivedStandings(ctx context.Context, key string) ([]models.Standing, time.Time, error) {
	data, err := a.client.Get(ctx, StandingsPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, models.ErrSessionNotFound
		}
		return nil, time.Time{}, err
	}

	var record standingsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, time.Time{}, err
	}
	return record.Standings, record.FinishedAt, nil
}

// FinishedSessions 最近结束的场次，按结束时间降序
//
// 详情键过期后索引里的成员一并清理，列表与详情保持一致。
func (a *RedisStandingsArchiver) FinishedSessions(ctx context.Context, limit int) ([]string, error) {
	if cutoff, ok := expiredScore(a.now(), a.ttl); ok {
		if err := a.client.ZRemRangeByScore(ctx, FinishedSessionsKey, "-inf", cutoff).Err(); err != nil {
			return nil, fmt.Errorf("清理过期归档失败: %w", err)
		}
	}
	return a.client.ZRevRange(ctx, FinishedSessionsKey, 0, int64(limit-1)).Result()
}

// expiredScore 已过期成员的最大分数（不含），ttl 为 0 时不过期
func expiredScore(now time.Time, ttl time.Duration) (string, bool) {
	if ttl <= 0 {
		return "", false
	}
	return "(" + strconv.FormatInt(now.Add(-ttl).Unix(), 10), true
}
