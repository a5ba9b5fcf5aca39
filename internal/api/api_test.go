package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cardduel/internal/api"
	"github.com/mcoot/cardduel/internal/api/apierr"
	"github.com/mcoot/cardduel/internal/api/response"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/sse"
	"github.com/mcoot/cardduel/internal/storage/memory"
	"github.com/mcoot/cardduel/internal/testutil"
)

type stubTable struct {
	snap model.Snapshot
	boom bool
}

func (s *stubTable) Snapshot() model.Snapshot {
	if s.boom {
		panic("snapshot exploded")
	}
	return s.snap
}

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	table   *stubTable
	hub     *sse.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hub := sse.NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)

	ts := &testServer{
		storage: memory.New(),
		table: &stubTable{snap: model.Snapshot{
			Phase:       model.PhaseWaitingForChoices,
			GameStarted: true,
			Round:       3,
			Seats: []model.SeatSnapshot{
				{ID: model.Player0, Connected: true, Username: "Ann", HP: 80, Ready: true, HasChosen: true},
				{ID: model.Player1, Connected: true, Username: "Bo", HP: 65, Ready: true},
			},
		}},
		hub: hub,
	}
	ts.handler = api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Table:   ts.table,
		Storage: ts.storage,
		Hub:     hub,
	})
	return ts
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) saveMatch(t *testing.T, id string, ended time.Time) {
	t.Helper()
	err := ts.storage.SaveMatch(context.Background(), &model.MatchSummary{
		ID:        model.MatchID(id),
		Usernames: [2]string{"Ann", "Bo"},
		FinalHP:   [2]int{30, 0},
		Winner:    model.Player0,
		Outcome:   model.OutcomeWin,
		Rounds:    7,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	})
	require.NoError(t, err)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestGetState(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/state")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp response.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, model.PhaseWaitingForChoices, resp.Phase)
	assert.True(t, resp.GameStarted)
	assert.Equal(t, 3, resp.Round)
	assert.Equal(t, 2, resp.Connected)
	assert.Equal(t, map[model.PlayerID]int{0: 80, 1: 65}, resp.HPs)
	assert.Equal(t, map[model.PlayerID]string{0: "Ann", 1: "Bo"}, resp.Usernames)
	require.Len(t, resp.Seats, 2)
	assert.True(t, resp.Seats[0].HasChosen)
	assert.False(t, resp.Seats[1].HasChosen)
}

func TestGetStateNeverExposesHands(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/state")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hand")
	assert.NotContains(t, rr.Body.String(), `"choice"`)
}

func TestListMatches(t *testing.T) {
	ts := newTestServer(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 25 {
		ts.saveMatch(t, fmt.Sprintf("m%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	t.Run("default limit", func(t *testing.T) {
		rr := ts.get("/api/v1/matches")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp response.MatchList
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Matches, 20)
		assert.Equal(t, "m24", resp.Matches[0].ID)
		assert.Equal(t, "Ann", resp.Matches[0].WinnerName)
	})

	t.Run("explicit limit", func(t *testing.T) {
		rr := ts.get("/api/v1/matches?limit=2")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp response.MatchList
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Matches, 2)
		assert.Equal(t, "m24", resp.Matches[0].ID)
		assert.Equal(t, "m23", resp.Matches[1].ID)
	})
}

func TestListMatchesEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/matches")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"matches":[]}`, rr.Body.String())
}

func TestListMatchesInvalidLimit(t *testing.T) {
	ts := newTestServer(t)

	for _, limit := range []string{"0", "-1", "101", "ten"} {
		t.Run(limit, func(t *testing.T) {
			rr := ts.get("/api/v1/matches?limit=" + limit)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
		})
	}
}

func TestGetMatch(t *testing.T) {
	ts := newTestServer(t)
	ended := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts.saveMatch(t, "abc123", ended)

	rr := ts.get("/api/v1/matches/abc123")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp.ID)
	assert.Equal(t, model.OutcomeWin, resp.Outcome)
	assert.Equal(t, [2]int{30, 0}, resp.FinalHP)
	assert.Equal(t, 7, resp.Rounds)
	assert.True(t, ended.Equal(resp.EndedAt))
}

func TestGetMatchNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/matches/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotFound, decodeError(t, rr).Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decodeError(t, rr).Code)
}

func TestPanicIsRecovered(t *testing.T) {
	ts := newTestServer(t)
	ts.table.boom = true

	rr := ts.get("/api/v1/state")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apierr.CodeInternalError, decodeError(t, rr).Code)
}

func TestRequestIDIsAssigned(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	id := model.Player1
	ts.hub.Publish(model.Event{Type: model.EventPlayerReady, PlayerID: &id, Payload: model.PlayerPayload{Username: "Bo"}})

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended before player_ready")
			if line == "event: player_ready\n" {
				data := <-lines
				assert.Contains(t, data, `"username":"Bo"`)
				return
			}
		case <-timeout:
			t.Fatal("player_ready event not streamed")
		}
	}
}
