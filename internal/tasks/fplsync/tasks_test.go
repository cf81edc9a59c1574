package fplsync

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/go-fpl/internal/archive"
	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
	"github.com/iceymoss/go-fpl/pkg/storage"
)

func taskConfig(name string) conf.TaskConfig {
	for _, t := range conf.DefaultTasks() {
		if t.Name == name {
			return t
		}
	}
	panic("unknown task " + name)
}

func bootstrap() *fpl.Bootstrap {
	return &fpl.Bootstrap{
		Events:   []fpl.Event{{ID: 1, Name: "Gameweek 1", IsCurrent: true}},
		Teams:    []fpl.Team{{ID: 1, Code: 3, Name: "Arsenal", ShortName: "ARS"}},
		Elements: []fpl.Element{{ID: 7, Code: 223340, WebName: "Saka", Team: 1, ElementType: 3, Form: "6.5", SelectedByPercent: "40.1"}},
	}
}

func TestGameStateTask(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, fc := testDeps(api, store)
	arch := &recordingArchive{}
	arch.On("Save", mock.Anything, mock.MatchedBy(func(p archive.Payload) bool {
		return p.Task == conf.TaskGameState && p.Endpoint == "bootstrap-static" && string(p.Body) == `{"raw":true}`
	})).Return(errors.New("mongo down")).Once()
	deps.Archive = arch

	api.On("GetBootstrap", mock.Anything).Return(bootstrap(), []byte(`{"raw":true}`), nil).Once()
	store.On("SaveGameState", mock.Anything,
		[]objects.Event{{ID: 1, Name: "Gameweek 1", IsCurrent: true}},
		[]objects.Club{{ID: 1, Code: 3, Name: "Arsenal", ShortName: "ARS"}},
		mock.MatchedBy(func(p []objects.Player) bool {
			return len(p) == 1 && p[0].ClubID == 1 && p[0].Form == 6.5 && p[0].SelectedByPercent == 40.1
		}),
	).Return(nil).Once()

	task := NewGameStateTask(taskConfig(conf.TaskGameState), deps)
	assert.Equal(t, core.TierFirst, task.Tier())
	assert.True(t, task.ShouldRun(fc.Now()).Runnable)

	// 归档失败不影响任务
	require.NoError(t, task.Run(context.Background()))

	last, ok := task.LastRun()
	require.True(t, ok)
	assert.Equal(t, t0, last)
	assert.False(t, task.ShouldRun(t0.Add(time.Minute)).Runnable)

	api.AssertExpectations(t)
	store.AssertExpectations(t)
	arch.AssertExpectations(t)
}

func TestGameStateRetriesRateLimit(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	api.On("GetBootstrap", mock.Anything).Return(nil, nil, rateLimited()).Twice()
	api.On("GetBootstrap", mock.Anything).Return(bootstrap(), []byte(`{}`), nil).Once()
	store.On("SaveGameState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	task := NewGameStateTask(taskConfig(conf.TaskGameState), deps)
	require.NoError(t, task.Run(context.Background()))

	api.AssertNumberOfCalls(t, "GetBootstrap", 3)
	_, ok := task.LastRun()
	assert.True(t, ok)
}

func TestGameStateStoreFailureKeepsTaskRunnable(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, fc := testDeps(api, store)

	api.On("GetBootstrap", mock.Anything).Return(bootstrap(), []byte(`{}`), nil)
	store.On("SaveGameState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("deadlock"))

	task := NewGameStateTask(taskConfig(conf.TaskGameState), deps)
	require.Error(t, task.Run(context.Background()))

	_, ok := task.LastRun()
	assert.False(t, ok)
	assert.True(t, task.ShouldRun(fc.Now()).Runnable)
}

func TestFixturesRemoteErrorIsNotRetried(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	notFound := &fpl.APIError{Endpoint: "/api/fixtures/", StatusCode: http.StatusNotFound}
	api.On("GetFixtures", mock.Anything).Return(nil, nil, notFound)

	task := NewFixturesTask(taskConfig(conf.TaskFixtures), deps)
	err := task.Run(context.Background())

	require.Error(t, err)
	var apiErr *fpl.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fpl.KindRemote, apiErr.Kind())
	api.AssertNumberOfCalls(t, "GetFixtures", 1)
	store.AssertNotCalled(t, "UpsertFixtures", mock.Anything, mock.Anything)
}

func TestFixturesRateLimitExhausted(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	api.On("GetFixtures", mock.Anything).Return(nil, nil, rateLimited())

	task := NewFixturesTask(taskConfig(conf.TaskFixtures), deps)
	require.Error(t, task.Run(context.Background()))

	// MaxRetries=3，总共 4 次调用
	api.AssertNumberOfCalls(t, "GetFixtures", 4)
}

func TestFixturesTask(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	gw := 1
	api.On("GetFixtures", mock.Anything).Return([]fpl.Fixture{{ID: 1, Code: 10, Event: &gw, TeamH: 1, TeamA: 2}, {ID: 2, Code: 11, TeamH: 3, TeamA: 4}}, []byte(`[]`), nil)
	store.On("UpsertFixtures", mock.Anything, mock.MatchedBy(func(rows []objects.Fixture) bool {
		return len(rows) == 2 && *rows[0].EventID == 1 && rows[1].EventID == nil
	})).Return(nil).Once()

	task := NewFixturesTask(taskConfig(conf.TaskFixtures), deps)
	require.NoError(t, task.Run(context.Background()))
	store.AssertExpectations(t)
}

func standingsPage(league, page int, hasNext bool, entries ...int) *fpl.LeagueStandings {
	s := &fpl.LeagueStandings{}
	s.League.ID = league
	s.League.Name = "League"
	s.Standings.Page = page
	s.Standings.HasNext = hasNext
	for i, e := range entries {
		s.Standings.Results = append(s.Standings.Results, fpl.StandingEntry{Entry: e, Rank: (page-1)*50 + i + 1})
	}
	return s
}

func TestLeagueStandingsPaginates(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	api.On("GetLeagueStandings", mock.Anything, 314, 1).Return(standingsPage(314, 1, true, 1, 2), []byte(`{}`), nil).Once()
	api.On("GetLeagueStandings", mock.Anything, 314, 2).Return(standingsPage(314, 2, false, 3), []byte(`{}`), nil).Once()
	api.On("GetLeagueStandings", mock.Anything, 271, 1).Return(standingsPage(271, 1, false, 9), []byte(`{}`), nil).Once()
	store.On("UpsertLeagueEntries", mock.Anything, mock.MatchedBy(func(rows []objects.LeagueEntry) bool {
		return len(rows) == 4
	})).Return(nil).Once()

	cfg := taskConfig(conf.TaskLeagueStandings)
	cfg.Leagues = []int{314, 271, 314}
	task := NewLeagueStandingsTask(cfg, deps)
	require.NoError(t, task.Run(context.Background()))

	api.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestLeagueStandingsPageLimit(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	api.On("GetLeagueStandings", mock.Anything, 314, mock.Anything).Return(standingsPage(314, 1, true, 1), []byte(`{}`), nil)
	store.On("UpsertLeagueEntries", mock.Anything, mock.Anything).Return(nil)

	cfg := taskConfig(conf.TaskLeagueStandings)
	cfg.Leagues = []int{314}
	cfg.MaxPages = 3
	require.NoError(t, NewLeagueStandingsTask(cfg, deps).Run(context.Background()))

	api.AssertNumberOfCalls(t, "GetLeagueStandings", 3)
}

func TestLeagueStandingsDefaultPageLimit(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	api.On("GetLeagueStandings", mock.Anything, 314, mock.Anything).Return(standingsPage(314, 1, true, 1), []byte(`{}`), nil)
	store.On("UpsertLeagueEntries", mock.Anything, mock.Anything).Return(nil)

	cfg := taskConfig(conf.TaskLeagueStandings)
	cfg.Leagues = []int{314}
	cfg.MaxPages = 0
	require.NoError(t, NewLeagueStandingsTask(cfg, deps).Run(context.Background()))

	api.AssertNumberOfCalls(t, "GetLeagueStandings", 20)
}

func TestTransfersFanOut(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	store.On("TrackedEntryIDs", mock.Anything).Return([]int{1, 2}, nil)
	for _, id := range []int{1, 2, 3} {
		api.On("GetEntryTransfers", mock.Anything, id).Return([]fpl.Transfer{{Entry: id, Event: 3, ElementIn: 7, ElementOut: 8}}, []byte(`[]`), nil).Once()
	}
	store.On("UpsertTransfers", mock.Anything, mock.MatchedBy(func(rows []objects.Transfer) bool {
		return len(rows) == 3
	})).Return(nil).Once()

	cfg := taskConfig(conf.TaskTransfers)
	cfg.Entries = []int{2, 3}
	require.NoError(t, NewTransfersTask(cfg, deps).Run(context.Background()))

	api.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestTransfersOneFailureAbortsRun(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	store.On("TrackedEntryIDs", mock.Anything).Return([]int{1, 2}, nil)
	api.On("GetEntryTransfers", mock.Anything, 1).Return([]fpl.Transfer{}, []byte(`[]`), nil)
	api.On("GetEntryTransfers", mock.Anything, 2).Return(nil, nil, errors.New("connection reset"))

	task := NewTransfersTask(taskConfig(conf.TaskTransfers), deps)
	require.Error(t, task.Run(context.Background()))

	store.AssertNotCalled(t, "UpsertTransfers", mock.Anything, mock.Anything)
	_, ok := task.LastRun()
	assert.False(t, ok)
}

func TestPlayerPhotos(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)
	dir := t.TempDir()
	deps.Files = storage.NewLocalStorage(dir, "http://cdn/static")

	cfg := taskConfig(conf.TaskPlayerPhotos)
	store.On("PlayersWithoutPhoto", mock.Anything, cfg.Limit).Return([]objects.Player{
		{ID: 1, Code: 10}, {ID: 2, Code: 11}, {ID: 3, Code: 12},
	}, nil)
	api.On("GetPlayerPhoto", mock.Anything, 10).Return([]byte("png-10"), nil)
	api.On("GetPlayerPhoto", mock.Anything, 11).Return(nil, rateLimited()).Once()
	api.On("GetPlayerPhoto", mock.Anything, 11).Return([]byte("png-11"), nil).Once()
	api.On("GetPlayerPhoto", mock.Anything, 12).Return(nil, &fpl.APIError{StatusCode: http.StatusNotFound})
	store.On("UpsertPlayerPhotos", mock.Anything, mock.MatchedBy(func(rows []objects.PlayerPhoto) bool {
		if len(rows) != 2 {
			return false
		}
		for _, r := range rows {
			if r.URL == "" || r.PlayerID == 3 {
				return false
			}
		}
		return true
	})).Return(nil).Once()

	task := NewPlayerPhotosTask(cfg, deps)
	require.NoError(t, task.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, PhotoFolder, "p11.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-11", string(data))
	store.AssertExpectations(t)
}

func TestPlayerPhotosWithoutStorage(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	assert.Error(t, NewPlayerPhotosTask(taskConfig(conf.TaskPlayerPhotos), deps).Run(context.Background()))
}

func TestLivePointsNoCurrentEvent(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)
	store.On("CurrentEventID", mock.Anything).Return(0, false, nil)

	task := NewLivePointsTask(taskConfig(conf.TaskLivePoints), deps)
	require.NoError(t, task.Run(context.Background()))

	api.AssertNotCalled(t, "GetEventLive", mock.Anything, mock.Anything)
	_, ok := task.LastRun()
	assert.True(t, ok)
}

func TestLivePoints(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	store.On("CurrentEventID", mock.Anything).Return(3, true, nil)
	api.On("GetEventLive", mock.Anything, 3).Return(&fpl.EventLive{Elements: []fpl.LiveElement{
		{ID: 7, Stats: fpl.LiveStats{Minutes: 90, TotalPoints: 8}},
	}}, []byte(`{}`), nil)
	store.On("UpsertLiveStats", mock.Anything, []objects.LiveStat{{EventID: 3, PlayerID: 7, Minutes: 90, TotalPoints: 8}}).Return(nil).Once()

	require.NoError(t, NewLivePointsTask(taskConfig(conf.TaskLivePoints), deps).Run(context.Background()))
	store.AssertExpectations(t)
}

func TestBuild(t *testing.T) {
	api, store := &mockAPI{}, &mockStore{}
	deps, _ := testDeps(api, store)

	disabled := false
	cfgs := conf.DefaultTasks()
	cfgs[1].Enabled = &disabled
	cfgs[5].Tier = core.TierThird.String()

	list, err := Build(cfgs, deps)
	require.NoError(t, err)
	require.Len(t, list, len(cfgs)-1)

	byName := map[string]core.SyncTask{}
	for _, task := range list {
		byName[task.Name()] = task
	}
	assert.NotContains(t, byName, conf.TaskFixtures)
	assert.Equal(t, core.TierThird, byName[conf.TaskLivePoints].Tier())
	assert.Equal(t, core.TierFirst, byName[conf.TaskGameState].Tier())

	_, err = Build([]conf.TaskConfig{{Name: "nope"}}, deps)
	assert.Error(t, err)

	_, err = Build(cfgs, Deps{})
	assert.Error(t, err)
}
