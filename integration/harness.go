package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/calybre/wayfarer/api/rest"
	"github.com/calybre/wayfarer/api/sse"
	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/config"
	"github.com/calybre/wayfarer/game/feed"
	"github.com/calybre/wayfarer/game/rules"
	mw "github.com/calybre/wayfarer/middleware"
	"github.com/calybre/wayfarer/store"
	"github.com/calybre/wayfarer/testutil"
)

// TestServer wraps a real HTTP server with the full game stack wired
// together over a seeded world.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Mgr    *store.Manager
	Svc    *rules.Service
	Feed   *feed.Feed
	Server *httptest.Server
	URL    string
	Sec    config.SecurityConfig
}

const testAdminKey = "integration-admin-key"

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go and seeds a small world.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	// ---- Game engine (fixed seed keeps runs reproducible) ----
	mgr := store.NewManager(db, logger, rand.New(rand.NewSource(11)))
	svc := rules.NewService(mgr, logger, rand.New(rand.NewSource(12)))
	recordFeed := feed.New(c, pubsub, logger)
	svc.SetRecordSink(recordFeed)

	_, err := mgr.CreateGame(context.Background(), TestWorld())
	require.NoError(t, err, "seed test world")

	// ---- Gin HTTP Server (mirrors main.go) ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	authH := apirest.NewAuthHandler(db, c, sec)
	charH := apirest.NewCharacterHandler(db, svc, recordFeed, c)
	actH := apirest.NewActivityHandler(db, svc, c)
	boardH := apirest.NewBoardHandler(db)
	adminH := apirest.NewAdminHandler(db, mgr, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		authed := api.Group("")
		authed.Use(mw.Auth(sec, c))
		authed.GET("/characters", charH.List)
		authed.POST("/characters", charH.Create)
		authed.GET("/characters/:name", charH.Get)
		authed.GET("/characters/:name/records", charH.Records)
		authed.POST("/characters/:name/do-job", actH.DoJob)
		authed.POST("/characters/:name/perform-action", actH.PerformAction)
		authed.POST("/characters/:name/camp", actH.Camp)
		authed.POST("/characters/:name/travel", actH.Travel)
		authed.POST("/characters/:name/end-turn", actH.EndTurn)
		authed.POST("/characters/:name/resolve-encounter", actH.ResolveEncounter)
		authed.GET("/board/hexes", boardH.Hexes)
		authed.GET("/board/hexes/:name", boardH.Hex)
		authed.GET("/board/tokens", boardH.Tokens)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(testAdminKey))
		adminG.POST("/games", adminH.CreateGame)
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/accounts/:username/ban", adminH.BanAccount)
	}

	sseH := sse.NewHandler(db, recordFeed, c, sec, logger)
	r.GET("/sse/records/:name", sseH.ServeRecords)

	server := httptest.NewServer(r)

	return &TestServer{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Mgr:    mgr,
		Svc:    svc,
		Feed:   recordFeed,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
	}
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// TestWorld builds a small seven hex world with one job, enough skills for
// challenge reification, and the decks the engine draws from.
func TestWorld() store.GameSetup {
	challenge := func(name string, skills []string, rewards, penalties []rules.Outcome, copies int) rules.TemplateCard {
		return rules.TemplateCard{
			Name:   name,
			Desc:   name,
			Kind:   rules.CardChallenge,
			Copies: copies,
			Challenge: &rules.Challenge{
				Skills:    skills,
				Rewards:   rewards,
				Penalties: penalties,
			},
		}
	}

	scoutDeck := []rules.TemplateCard{
		challenge("Fresh Tracks", []string{"Tracking", "Riding"},
			[]rules.Outcome{rules.OutcomeGainCoins}, []rules.Outcome{rules.OutcomeDamage}, 8),
		challenge("Broken Bridge", []string{"Engineering", "Swimming"},
			[]rules.Outcome{rules.OutcomeGainReputation}, []rules.Outcome{rules.OutcomeLoseSpeed}, 8),
		challenge("Night Watch", []string{"Alertness", "Archery"},
			[]rules.Outcome{rules.OutcomeGainXP}, []rules.Outcome{rules.OutcomeNothing}, 8),
	}
	forestDeck := []rules.TemplateCard{
		challenge("Wolf Pack", []string{"Archery", "Riding"},
			[]rules.Outcome{rules.OutcomeGainResources}, []rules.Outcome{rules.OutcomeDamage}, 10),
	}
	campDeck := []rules.TemplateCard{
		challenge("Restless Night", []string{"Alertness"},
			[]rules.Outcome{rules.OutcomeGainHealing}, []rules.Outcome{rules.OutcomeNothing}, 10),
	}
	travelDeck := []rules.TemplateCard{
		challenge("Roadside Ambush", []string{"Alertness", "Riding"},
			[]rules.Outcome{rules.OutcomeGainCoins}, []rules.Outcome{rules.OutcomeDamage}, 2),
	}

	hexes := []rules.Hex{
		{Name: "AA01", Terrain: "Forest", Country: "Bravado", X: 0, Y: 0, Z: 0},
		{Name: "AA02", Terrain: "Forest", Country: "Bravado", X: 1, Y: -1, Z: 0},
		{Name: "AA03", Terrain: "Forest", Country: "Bravado", X: 1, Y: 0, Z: -1},
		{Name: "AA04", Terrain: "Forest", Country: "Wild", X: 0, Y: 1, Z: -1},
		{Name: "AA05", Terrain: "Forest", Country: "Wild", X: -1, Y: 1, Z: 0},
		{Name: "AA06", Terrain: "Forest", Country: "Wild", X: -1, Y: 0, Z: 1},
		{Name: "AA07", Terrain: "Forest", Country: "Wild", X: 0, Y: -1, Z: 1},
	}
	// A spur of distant hexes so transport effects always have a landing
	// spot within their band.
	for d := 2; d <= 8; d++ {
		hexes = append(hexes, rules.Hex{
			Name: fmt.Sprintf("AB%02d", d), Terrain: "Forest", Country: "Wild",
			X: d, Y: -d, Z: 0,
		})
	}

	return store.GameSetup{
		Name:      "Integration World",
		Skills:    []string{"Riding", "Archery", "Tracking", "Alertness", "Engineering", "Swimming", "Leadership"},
		Resources: []string{"Timber", "Wine"},
		Zodiacs:   []string{"The Ox", "The Hawk", "The River"},
		Decks: []store.DeckSetup{
			{Name: "Scout", Cards: scoutDeck},
			{Name: "Forest", Cards: forestDeck},
			{Name: rules.CampDeckName, Cards: campDeck},
			{Name: rules.TravelDeckName, Cards: travelDeck},
		},
		Jobs: []rules.Job{
			{
				Name:               "Scout",
				Type:               rules.JobSolo,
				Rank:               1,
				Promotions:         []string{"Pathfinder"},
				DeckName:           "Scout",
				BaseSkills:         []string{"Riding", "Archery"},
				EncounterDistances: []int{0},
			},
			{
				Name:               "Pathfinder",
				Type:               rules.JobSolo,
				Rank:               2,
				DeckName:           "Scout",
				BaseSkills:         []string{"Riding", "Tracking"},
				EncounterDistances: []int{0, 1},
			},
		},
		Countries: []store.CountrySetup{
			{Name: "Bravado", Resources: []string{"Timber", "Wine"}},
			{Name: "Wild", Resources: nil},
		},
		Hexes: hexes,
	}
}

// --- HTTP helpers ---

// newJSONRequest builds a request against the test server with a JSON body.
func (ts *TestServer) newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON decodes a response body into target and closes the body.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", data)
}

// Login authenticates (auto-registering on first use) and returns the
// bearer token and player UUID.
func (ts *TestServer) Login(t *testing.T, username, password string) (token, playerUUID string) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Token      string `json:"token"`
		PlayerUUID string `json:"player_uuid"`
	}
	ReadJSON(t, resp, &result)
	return result.Token, result.PlayerUUID
}

// CreateCharacter creates a character at the given hex and returns its UUID.
func (ts *TestServer) CreateCharacter(t *testing.T, token, name, jobName, location string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/characters", map[string]string{
		"name":     name,
		"job_name": jobName,
		"location": location,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		UUID string `json:"uuid"`
	}
	ReadJSON(t, resp, &result)
	require.NotEmpty(t, result.UUID)
	return result.UUID
}

// Snapshot fetches and decodes a character snapshot.
func (ts *TestServer) Snapshot(t *testing.T, token, name string) map[string]interface{} {
	t.Helper()
	resp := ts.Get(t, "/api/characters/"+name, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap map[string]interface{}
	ReadJSON(t, resp, &snap)
	return snap
}

var uniqueCounter int64

// UniqueID returns a unique name with the given prefix, safe across
// parallel tests in one run.
func UniqueID(prefix string) string {
	n := atomic.AddInt64(&uniqueCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%1000000, n)
}
