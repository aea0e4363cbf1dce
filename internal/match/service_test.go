package match

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/models"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"github.com/jacl-coder/ShuttleRotation-Server/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, cfg config.SessionConfig) (*MatchService, *db.MemorySessionStore) {
	t.Helper()
	if cfg.RemovalPolicy == "" {
		cfg.RemovalPolicy = "keep_finished"
	}
	store := db.NewMemorySessionStore()
	service, err := NewMatchService(&cfg, store, pairing.NewRand(1), zap.NewNop())
	require.NoError(t, err)
	service.SetArchiver(store)
	require.NoError(t, service.Start())
	t.Cleanup(service.Stop)
	return service, store
}

func seedPlayers(t *testing.T, s *MatchService, key string, names ...string) []models.Player {
	t.Helper()
	players := make([]models.Player, 0, len(names))
	for _, n := range names {
		p, err := s.CreatePlayer(context.Background(), key, n)
		require.NoError(t, err)
		players = append(players, p)
	}
	return players
}

func TestServiceSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{})

	key, session, err := service.CreateSession(ctx, "Friday Night Doubles")
	require.NoError(t, err)
	assert.Equal(t, "friday-night-doubles", key)
	assert.Equal(t, "Friday Night Doubles", session.Name)

	_, _, err = service.CreateSession(ctx, "friday night doubles")
	assert.ErrorIs(t, err, models.ErrSessionExists)

	_, _, err = service.CreateSession(ctx, "   ")
	assert.ErrorIs(t, err, models.ErrNameRequired)

	require.NoError(t, service.DeleteSession(ctx, key))
	_, err = service.GetSession(ctx, key)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.ErrorIs(t, service.DeleteSession(ctx, key), models.ErrSessionNotFound)
}

func TestServiceFailedOperationLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C")

	_, err = service.CreateNextMatch(ctx, key)
	assert.ErrorIs(t, err, models.ErrInsufficientPlayers)

	_, err = service.CreatePlayer(ctx, key, "a")
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Len(t, session.Players, 3)
	assert.Empty(t, session.Matches)
}

func TestServicePlayAndRevert(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D", "E")

	first, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.CreateNextMatch(ctx, key)
	assert.ErrorIs(t, err, models.ErrMatchInProgress)

	_, err = service.ReportWinner(ctx, key, first.ID, models.Team1)
	require.NoError(t, err)
	afterFirst, err := service.GetSession(ctx, key)
	require.NoError(t, err)

	second, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.ReportWinner(ctx, key, second.ID, models.Team2)
	require.NoError(t, err)

	_, err = service.RevertMatch(ctx, key, first.ID)
	assert.ErrorIs(t, err, models.ErrCannotRevertFirstMatch)

	removed, err := service.RevertMatch(ctx, key, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, afterFirst.Players, session.Players)
	assert.Len(t, session.Matches, 1)
}

func TestServiceAutoNextMatch(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{
		AutoNextMatch: true,
		AutoNextDelay: 20 * time.Millisecond,
	})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D")

	first, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.ReportWinner(ctx, key, first.ID, models.Team2)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		session, err := service.GetSession(ctx, key)
		return err == nil && len(session.Matches) == 2
	}, 2*time.Second, 10*time.Millisecond)

	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.False(t, session.Matches[1].Finished())
}

func TestServiceAutoNextSkipsWhenMatchAlreadyCreated(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{
		AutoNextMatch: true,
		AutoNextDelay: 50 * time.Millisecond,
	})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D")

	first, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.ReportWinner(ctx, key, first.ID, models.Team1)
	require.NoError(t, err)

	// 延迟期间手动开场，自动任务随后因比赛进行中而跳过
	_, err = service.CreateNextMatch(ctx, key)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Len(t, session.Matches, 2)
}

func TestServiceDeletePlayerPolicies(t *testing.T) {
	ctx := context.Background()

	service, _ := newTestService(t, config.SessionConfig{})
	key, _, err := service.CreateSession(ctx, "keep")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D", "E")
	m, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)

	require.NoError(t, service.DeletePlayer(ctx, key, m.Team1[0]))
	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, session.Matches, "未结束的比赛随球员一起删除")

	purge, _ := newTestService(t, config.SessionConfig{RemovalPolicy: "purge_all"})
	key, _, err = purge.CreateSession(ctx, "purge")
	require.NoError(t, err)
	seedPlayers(t, purge, key, "A", "B", "C", "D", "E")
	m, err = purge.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = purge.ReportWinner(ctx, key, m.ID, models.Team1)
	require.NoError(t, err)

	require.NoError(t, purge.DeletePlayer(ctx, key, m.Team2[1]))
	session, err = purge.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, session.Matches)
	for _, p := range session.Players {
		assert.Zero(t, p.MatchesPlayed, p.Name)
	}
}

func TestServiceFinishAndRestart(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D")

	m, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.ReportWinner(ctx, key, m.ID, models.Team1)
	require.NoError(t, err)

	standings, err := service.FinishSession(ctx, key)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 1, standings[1].Rank)
	assert.Equal(t, 3, standings[2].Rank)

	archived, finishedAt, err := service.ArchivedStandings(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, standings, archived)
	assert.False(t, finishedAt.IsZero())

	keys, err := service.FinishedSessions(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	session, err := service.RestartSession(ctx, key)
	require.NoError(t, err)
	assert.Len(t, session.Players, 4)
	assert.Empty(t, session.Matches)
	for _, p := range session.Players {
		assert.Zero(t, p.Wins)
		assert.Zero(t, p.MatchesPlayed)
	}
}

func TestServiceAddPlayerRestartsRotation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, config.SessionConfig{})
	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)
	seedPlayers(t, service, key, "A", "B", "C", "D")

	m, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	_, err = service.ReportWinner(ctx, key, m.ID, models.Team1)
	require.NoError(t, err)

	seedPlayers(t, service, key, "E")

	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Len(t, session.Players, 5)
	assert.Empty(t, session.Matches)
	for _, p := range session.Players {
		assert.Zero(t, p.MatchesPlayed, p.Name)
	}

	// 重新开始后按五人分组开首场
	next, err := service.CreateNextMatch(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Number)
}

func TestSessionKeyFitsColumn(t *testing.T) {
	name := strings.Repeat("羽毛球", 21)
	key := SessionKey(name)
	assert.NotEmpty(t, key)
	assert.LessOrEqual(t, len(key), MaxSessionKeyLength)
	assert.Equal(t, key, SessionKey(name))
	assert.False(t, strings.HasSuffix(key, "-"))

	assert.Equal(t, "sunday-club", SessionKey("Sunday Club"))
}

func TestServiceCreateSessionLongName(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, config.SessionConfig{})
	limited := &keyLimitStore{MemorySessionStore: store}
	service.store = limited

	key, _, err := service.CreateSession(ctx, strings.Repeat("羽毛球", 21))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(key), MaxSessionKeyLength)

	_, err = service.GetSession(ctx, key)
	require.NoError(t, err)
}

// keyLimitStore 模拟 sessions.key 列宽限制
type keyLimitStore struct {
	*db.MemorySessionStore
}

func (k *keyLimitStore) Save(ctx context.Context, key string, s *models.Session) error {
	if len(key) > MaxSessionKeyLength {
		return errors.New("value too long for type character varying(100)")
	}
	return k.MemorySessionStore.Save(ctx, key, s)
}

type failingStore struct {
	*db.MemorySessionStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, key string, s *models.Session) error {
	if f.failSave {
		return errors.New("磁盘已满")
	}
	return f.MemorySessionStore.Save(ctx, key, s)
}

func TestServiceSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemorySessionStore: db.NewMemorySessionStore()}
	service, err := NewMatchService(&config.SessionConfig{RemovalPolicy: "keep_finished"}, store, pairing.NewRand(1), zap.NewNop())
	require.NoError(t, err)

	key, _, err := service.CreateSession(ctx, "club")
	require.NoError(t, err)

	store.failSave = true
	_, err = service.CreatePlayer(ctx, key, "A")
	assert.Error(t, err)
	assert.False(t, models.SessionErrorIs(err, models.CodeDuplicateName))

	session, err := service.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, session.Players)
}

func TestNewMatchServiceRejectsUnknownPolicy(t *testing.T) {
	_, err := NewMatchService(&config.SessionConfig{RemovalPolicy: "maybe"}, db.NewMemorySessionStore(), pairing.NewRand(1), zap.NewNop())
	assert.Error(t, err)
}
