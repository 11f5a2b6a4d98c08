package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge/internal/api"
	"github.com/flashforge/flashforge/internal/config"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/services"
	"github.com/flashforge/flashforge/internal/stats"
	"github.com/flashforge/flashforge/internal/testutil"
)

func newTestServer(t *testing.T) (*httptest.Server, *testutil.MemoryStore) {
	t.Helper()
	store := testutil.NewMemoryStore()
	cfg := &config.Config{
		DailyNewCardCap:     50,
		MasteryIntervalDays: 90,
		NewCardRatio:        4,
	}
	agg := stats.NewAggregator(store.Stats())
	srv := api.NewServer(
		services.NewDeckService(store.Decks(), store.Cards(), store.Reviews(), models.RuleSetSM2),
		services.NewStudyService(store.Decks(), store.Cards(), store.Reviews(), store.ResultLog(), agg, cfg),
		services.NewStatsService(agg),
	)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestDeckCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/decks/", map[string]any{
		"name": "spanish", "rule_set": "leitner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	deck := decode[models.Deck](t, resp)
	assert.Equal(t, "spanish", deck.Name)
	assert.Equal(t, models.RuleSetLeitner, deck.RuleSet)

	resp, err := http.Get(fmt.Sprintf("%s/api/decks/%d", ts.URL, deck.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Deck](t, resp)
	assert.Equal(t, deck.ID, got.ID)

	resp, err = http.Get(ts.URL + "/api/decks/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]map[string]any](t, resp)
	assert.Equal(t, "NOT_FOUND", body["error"]["code"])
}

func TestCreateDeck_Invalid(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/decks/", map[string]any{
		"name": "x", "rule_set": "anki",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportAndListCards(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/decks/", map[string]any{"name": "spanish"})
	deck := decode[models.Deck](t, resp)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/decks/%d/cards/import", ts.URL, deck.ID), map[string]any{
		"cards": []map[string]string{
			{"term": "hola", "definition": "hello"},
			{"term": "adios", "definition": "goodbye"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imported := decode[map[string]any](t, resp)
	assert.Equal(t, float64(2), imported["count"])

	resp, err := http.Get(fmt.Sprintf("%s/api/decks/%d/cards?search=hola", ts.URL, deck.ID))
	require.NoError(t, err)
	cards := decode[[]models.Card](t, resp)
	require.Len(t, cards, 1)
	assert.Equal(t, "hola", cards[0].Term)
}

func TestSessionFlow(t *testing.T) {
	ts, store := newTestServer(t)

	deck := store.AddDeck(models.Deck{Name: "spanish", RuleSet: models.RuleSetSM2})
	for i := 0; i < 3; i++ {
		store.AddCard(models.Card{
			DeckID:     deck.ID,
			Term:       fmt.Sprintf("term-%d", i),
			Definition: fmt.Sprintf("definition-%d", i),
		})
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/", map[string]any{
		"deck_id": deck.ID, "mode": "flashcards",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	info := decode[services.SessionInfo](t, resp)
	assert.Equal(t, 3, info.TotalCards)

	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s/question", ts.URL, info.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	question := decode[map[string]any](t, resp)
	assert.Equal(t, "self_report", question["kind"])

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/response", ts.URL, info.ID), map[string]any{
		"self_grade": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	submitted := decode[map[string]json.RawMessage](t, resp)
	var outcome map[string]any
	require.NoError(t, json.Unmarshal(submitted["outcome"], &outcome))
	assert.Equal(t, true, outcome["correct"])

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/sessions/%s/abort", ts.URL, info.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[models.SessionSummary](t, resp)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.CardsStudied)
}

func TestStartSession_UnknownMode(t *testing.T) {
	ts, store := newTestServer(t)
	deck := store.AddDeck(models.Deck{Name: "spanish", RuleSet: models.RuleSetSM2})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/", map[string]any{
		"deck_id": deck.ID, "mode": "cram",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoints(t *testing.T) {
	ts, store := newTestServer(t)
	store.SeedDaily(models.DailyStat{Date: "2026-03-10", CardsReviewed: 4, CorrectCount: 3, IncorrectCount: 1})

	resp, err := http.Get(ts.URL + "/api/stats/alltime")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[models.AllTimeStats](t, resp)
	assert.Equal(t, 4, all.CardsReviewed)

	resp, err = http.Get(ts.URL + "/api/stats/breakdown?days=7")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	days := decode[[]models.DailyStat](t, resp)
	assert.Len(t, days, 7)
}
