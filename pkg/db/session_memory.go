package db

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
)

// MemorySessionStore 内存场次存储，进程退出后数据丢失
type MemorySessionStore struct {
	mutex    sync.RWMutex
	sessions map[string][]byte
	archive  map[string]archivedStandings
}

type archivedStandings struct {
	Standings  []models.Standing
	FinishedAt time.Time
}

// NewMemorySessionStore 创建内存场次存储
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]byte),
		archive:  make(map[string]archivedStandings),
	}
}

// Load 读取场次
func (m *MemorySessionStore) Load(_ context.Context, key string) (*models.Session, error) {
	m.mutex.RLock()
	data, ok := m.sessions[key]
	m.mutex.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return decodeSession(data)
}

// Save 保存场次
func (m *MemorySessionStore) Save(_ context.Context, key string, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mutex.Lock()
	m.sessions[key] = data
	m.mutex.Unlock()
	return nil
}

// Delete 删除场次
func (m *MemorySessionStore) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	delete(m.sessions, key)
	m.mutex.Unlock()
	return nil
}

// ArchiveStandings 归档最终排名
func (m *MemorySessionStore) ArchiveStandings(_ context.Context, key string, standings []models.Standing, finishedAt time.Time) error {
	m.mutex.Lock()
	m.archive[key] = archivedStandings{
		Standings:  append([]models.Standing(nil), standings...),
		FinishedAt: finishedAt,
	}
	m.mutex.Unlock()
	return nil
}

// ArchivedStandings 读取最近一次归档的排名
func (m *MemorySessionStore) ArchivedStandings(_ context.Context, key string) ([]models.Standing, time.Time, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	a, ok := m.archive[key]
	if !ok {
		return nil, time.Time{}, models.ErrSessionNotFound
	}
	return append([]models.Standing(nil), a.Standings...), a.FinishedAt, nil
}

// FinishedSessions 最近结束的场次，按结束时间降序
func (m *MemorySessionStore) FinishedSessions(_ context.Context, limit int) ([]string, error) {
	m.mutex.RLock()
	keys := make([]string, 0, len(m.archive))
	for key := range m.archive {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.archive[keys[i]].FinishedAt.After(m.archive[keys[j]].FinishedAt)
	})
	m.mutex.RUnlock()

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// decodeSession 解析场次JSON，保证切片非nil
func decodeSession(data []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Players == nil {
		session.Players = []models.Player{}
	}
	if session.Matches == nil {
		session.Matches = []models.Match{}
	}
	return &session, nil
}
