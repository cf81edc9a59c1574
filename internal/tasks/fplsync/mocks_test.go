package fplsync

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/iceymoss/go-fpl/internal/archive"
	"github.com/iceymoss/go-fpl/internal/checkpoint"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/retry"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetBootstrap(ctx context.Context) (*fpl.Bootstrap, []byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*fpl.Bootstrap)
	return b, raw(args.Get(1)), args.Error(2)
}

func (m *mockAPI) GetFixtures(ctx context.Context) ([]fpl.Fixture, []byte, error) {
	args := m.Called(ctx)
	f, _ := args.Get(0).([]fpl.Fixture)
	return f, raw(args.Get(1)), args.Error(2)
}

func (m *mockAPI) GetLeagueStandings(ctx context.Context, leagueID, page int) (*fpl.LeagueStandings, []byte, error) {
	args := m.Called(ctx, leagueID, page)
	s, _ := args.Get(0).(*fpl.LeagueStandings)
	return s, raw(args.Get(1)), args.Error(2)
}

func (m *mockAPI) GetEntryTransfers(ctx context.Context, entryID int) ([]fpl.Transfer, []byte, error) {
	args := m.Called(ctx, entryID)
	t, _ := args.Get(0).([]fpl.Transfer)
	return t, raw(args.Get(1)), args.Error(2)
}

func (m *mockAPI) GetEventLive(ctx context.Context, eventID int) (*fpl.EventLive, []byte, error) {
	args := m.Called(ctx, eventID)
	l, _ := args.Get(0).(*fpl.EventLive)
	return l, raw(args.Get(1)), args.Error(2)
}

func (m *mockAPI) GetPlayerPhoto(ctx context.Context, code int) ([]byte, error) {
	args := m.Called(ctx, code)
	return raw(args.Get(0)), args.Error(1)
}

func raw(v any) []byte {
	b, _ := v.([]byte)
	return b
}

type mockStore struct{ mock.Mock }

func (m *mockStore) SaveGameState(ctx context.Context, events []objects.Event, clubs []objects.Club, players []objects.Player) error {
	return m.Called(ctx, events, clubs, players).Error(0)
}

func (m *mockStore) UpsertFixtures(ctx context.Context, rows []objects.Fixture) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpsertLeagueEntries(ctx context.Context, rows []objects.LeagueEntry) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpsertTransfers(ctx context.Context, rows []objects.Transfer) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpsertPlayerPhotos(ctx context.Context, rows []objects.PlayerPhoto) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) UpsertLiveStats(ctx context.Context, rows []objects.LiveStat) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) TrackedEntryIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

func (m *mockStore) PlayersWithoutPhoto(ctx context.Context, limit int) ([]objects.Player, error) {
	args := m.Called(ctx, limit)
	p, _ := args.Get(0).([]objects.Player)
	return p, args.Error(1)
}

func (m *mockStore) CurrentEventID(ctx context.Context) (int, bool, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Bool(1), args.Error(2)
}

type recordingArchive struct {
	mock.Mock
}

func (r *recordingArchive) Save(ctx context.Context, p archive.Payload) error {
	return r.Called(ctx, p).Error(0)
}

var t0 = time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)

func testDeps(api *mockAPI, store *mockStore) (Deps, *testingclock.FakeClock) {
	fc := testingclock.NewFakeClock(t0)
	return Deps{
		API:        api,
		Store:      store,
		Checkpoint: checkpoint.NewMemory(),
		Clock:      fc,
		Retry:      retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond},
	}, fc
}

func rateLimited() error {
	return &fpl.APIError{Endpoint: "/api/test/", StatusCode: 429}
}
