package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// PostgresSessionStore PostgreSQL场次存储与排名归档
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore 创建PostgreSQL场次存储
func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// Load 读取场次
func (s *PostgresSessionStore) Load(ctx context.Context, key string) (*models.Session, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取场次失败: %w", err)
	}
	return decodeSession(payload)
}

// Save 保存场次
func (s *PostgresSessionStore) Save(ctx context.Context, key string, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (key, name, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET name = EXCLUDED.name, payload = EXCLUDED.payload, updated_at = NOW()`,
		key, session.Name, payload)
	return err
}

// Delete 删除场次
func (s *PostgresSessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = $1`, key)
	return err
}

// ArchiveStandings 归档最终排名，同一场次重复结束时覆盖旧记录
func (s *PostgresSessionStore) ArchiveStandings(ctx context.Context, key string, standings []models.Standing, finishedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_results WHERE session_key = $1`, key); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_results
			(session_key, finished_at, rank, player_id, name, wins, losses, win_rate, total_matches)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range standings {
		if _, err := stmt.ExecContext(ctx, key, finishedAt, st.Rank, st.PlayerID, st.Name,
			st.Wins, st.Losses, st.WinRate, st.TotalMatches); err != nil {
			return fmt.Errorf("写入排名失败: %w", err)
		}
	}

	return tx.Commit()
}

// ArchivedStandings 读取场次的归档排名
func (s *PostgresSessionStore) ArchivedStandings(ctx context.Context, key string) ([]models.Standing, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT finished_at, rank, player_id, name, wins, losses, win_rate, total_matches
		FROM session_results
		WHERE session_key = $1
		ORDER BY id`, key)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var (
		standings  []models.Standing
		finishedAt time.Time
	)
	for rows.Next() {
		var st models.Standing
		if err := rows.Scan(&finishedAt, &st.Rank, &st.PlayerID, &st.Name,
			&st.Wins, &st.Losses, &st.WinRate, &st.TotalMatches); err != nil {
			return nil, time.Time{}, err
		}
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(standings) == 0 {
		return nil, time.Time{}, models.ErrSessionNotFound
	}
	return standings, finishedAt, nil
}

// FinishedSessions 最近结束的场次，按结束时间降序
func (s *PostgresSessionStore) FinishedSessions(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_key
		FROM session_results
		GROUP BY session_key
		ORDER BY MAX(finished_at) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
