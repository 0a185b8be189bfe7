package game

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func sampleState() State {
	g := 12

	s := New()
	s.Phase = PhasePlaying
	s.NumPlayers = 3
	s.Names = []string{"A", "B", "C"}
	s.Players = []Player{{"A", 10}, {"B", 50}, {"C", 90}}
	s.SecretIdx = 3
	s.TurnIdx = 1
	s.TargetIdx = 2
	s.History = []Guess{{Guesser: "A", Target: "B", Guess: 90, Result: ResultLower}}
	s.Scoreboard = map[string]Score{"A": {Attempts: 1}, "B": {}, "C": {Wins: 2, Attempts: 7}}
	s.RoundAttempts = map[string]int{"A": 1, "B": 0, "C": 0}
	s.PendingGuess = &g
	s.LastPrompt = "B, it's your turn. Guess C's number."

	return s
}

// sessionCount reports how many sessions m holds an entry for.
func sessionCount(m *MemoryStore) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s, err := m.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, New(), s)

	want := sampleState()
	require.NoError(t, m.Save(ctx, "room", want))

	got, err := m.Load(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// loaded state is a copy
	got.Scoreboard["A"] = Score{Wins: 99}
	*got.PendingGuess = 77
	again, err := m.Load(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, want, again)

	require.NoError(t, m.ClearKeepingSetting(ctx, "room", SettingNumPlayers, 5))
	s, err = m.Load(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, 5, s.NumPlayers)
	assert.Equal(t, PhaseSetupNames, s.Phase)
	assert.Empty(t, s.Players)

	assert.ErrorIs(t, m.ClearKeepingSetting(ctx, "room", "colour", 1), ErrUnknownSetting)
	assert.ErrorIs(t, m.ClearKeepingSetting(ctx, "room", SettingNumPlayers, 42), ErrPlayerCount)

	require.NoError(t, m.Clear(ctx, "room"))
	assert.Equal(t, 0, sessionCount(m))
}

type RedisStoreTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *RedisStore
	ctx    context.Context
}

func (s *RedisStoreTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})
	s.ctx = context.Background()

	store, err := NewRedisStore(s.ctx, &RedisConfig{
		Client: s.client,
		TTL:    time.Hour,
	})
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRedisStoreValidation() {
	_, err := NewRedisStore(s.ctx, nil)
	s.Error(err)

	_, err = NewRedisStore(s.ctx, &RedisConfig{})
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestMissingSessionLoadsDefaults() {
	st, err := s.store.Load(s.ctx, "missing")
	s.Require().NoError(err)
	s.Equal(New(), st)
}

func (s *RedisStoreTestSuite) TestSaveAndLoad() {
	want := sampleState()
	s.Require().NoError(s.store.Save(s.ctx, "room", want))

	got, err := s.store.Load(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal(want, got)

	s.True(s.mr.Exists(sessionKeyPrefix + "room"))
	s.Equal(time.Hour, s.mr.TTL(sessionKeyPrefix+"room"))
}

func (s *RedisStoreTestSuite) TestTTLExpiresSession() {
	s.Require().NoError(s.store.Save(s.ctx, "room", sampleState()))

	s.mr.FastForward(2 * time.Hour)

	st, err := s.store.Load(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal(New(), st)
}

func (s *RedisStoreTestSuite) TestClear() {
	s.Require().NoError(s.store.Save(s.ctx, "room", sampleState()))
	s.Require().NoError(s.store.Clear(s.ctx, "room"))

	s.False(s.mr.Exists(sessionKeyPrefix + "room"))
}

func (s *RedisStoreTestSuite) TestClearKeepingSetting() {
	s.Require().NoError(s.store.Save(s.ctx, "room", sampleState()))
	s.Require().NoError(s.store.ClearKeepingSetting(s.ctx, "room", SettingNumPlayers, 3))

	st, err := s.store.Load(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal(3, st.NumPlayers)
	s.Equal(PhaseSetupNames, st.Phase)
	s.Empty(st.History)
	s.Empty(st.Scoreboard)
}

func (s *RedisStoreTestSuite) TestCorruptDocument() {
	s.Require().NoError(s.mr.Set(sessionKeyPrefix+"room", "{not json"))

	_, err := s.store.Load(s.ctx, "room")
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestDriverOverRedis() {
	d, err := NewDriver(&DriverConfig{Store: s.store})
	s.Require().NoError(err)

	for _, a := range []Action{
		{Kind: ActionConfirmNames, Names: []string{"Alice", "Bob"}},
		{Kind: ActionConfirmPass},
		{Kind: ActionSaveSecret, Secret: "30"},
		{Kind: ActionConfirmPass},
		{Kind: ActionSaveSecret, Secret: "70"},
		{Kind: ActionStart},
		{Kind: ActionCapture, Value: 70},
		{Kind: ActionSubmit},
	} {
		_, err := d.Cycle(s.ctx, &CycleInput{SessionID: "room", Action: &a})
		s.Require().NoError(err, "action %s", a.Kind)
	}

	v, err := d.View(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal(PhaseFinished, v.Phase)
	s.Equal("Alice", v.Winner)
}
