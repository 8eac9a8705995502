package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/sarakt/internal/bridge"
	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/persistence"
)

const testKey = "secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	u := engine.NewUniverse(config.Universe{Seed: 12345, Plots: 20, MiningBodies: 1, StartingActors: 5, SeedBase: 50000})
	if err := u.Initialize(); err != nil {
		t.Fatal(err)
	}
	e := engine.NewEngine(u, time.Second)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	ob := persistence.NewOutbox(db)

	s := NewServer(config.ServerConfig{AdminKey: testKey, CORSOrigins: []string{"*"}},
		config.RateLimitConfig{}, e, bridge.New(e, ob))
	s.DB = db
	s.Outbox = ob
	s.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatus(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, "GET", "/api/v1/status", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[map[string]any](t, rec)
	if got["total_bodies"] != float64(3) || got["habitable_bodies"] != float64(2) || got["total_actors"] != float64(5) {
		t.Fatalf("status = %v", got)
	}
	if got["seed"] != float64(12345) || got["paused"] != false {
		t.Fatalf("status = %v", got)
	}
}

func TestBodies(t *testing.T) {
	h := newTestServer(t).Handler()

	list := decodeBody[[]bodySummary](t, do(t, h, "GET", "/api/v1/bodies", nil, false))
	if len(list) != 3 || list[2].Name != "Mining Planet 1" {
		t.Fatalf("bodies = %+v", list)
	}

	rec := do(t, h, "GET", "/api/v1/bodies/Zythera", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("by name status = %d", rec.Code)
	}
	if b := decodeBody[map[string]any](t, rec); b["id"] != float64(2) {
		t.Fatalf("body = %v", b["id"])
	}

	rec = do(t, h, "GET", "/api/v1/bodies/1/resources", nil, false)
	res := decodeBody[[]map[string]any](t, rec)
	for i := 1; i < len(res); i++ {
		if res[i]["amount"].(float64) > res[i-1]["amount"].(float64) {
			t.Fatal("resources not in descending order")
		}
	}

	rec = do(t, h, "GET", "/api/v1/bodies/Nowhere", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing body status = %d", rec.Code)
	}
	if e := decodeBody[errorBody](t, rec); e.Code != "body_not_found" {
		t.Fatalf("error = %+v", e)
	}
}

func TestPlotsPaging(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, "GET", "/api/v1/settlements/1/plots?offset=2&limit=5", nil, false)
	p := decodeBody[page[map[string]any]](t, rec)
	if p.Total != 20 || len(p.Items) != 5 || p.Items[0]["id"] != float64(3) {
		t.Fatalf("page = %+v", p)
	}

	rec = do(t, h, "GET", "/api/v1/settlements/1/plots?offset=50", nil, false)
	if p := decodeBody[page[map[string]any]](t, rec); len(p.Items) != 0 {
		t.Fatalf("past-the-end page = %+v", p)
	}

	rec = do(t, h, "GET", "/api/v1/settlements/Octavia%20Capital%20City/stats", nil, false)
	if st := decodeBody[map[string]any](t, rec); st["total_plots"] != float64(20) {
		t.Fatalf("stats = %v", st)
	}
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, "POST", "/api/v1/cycles", map[string]int{"count": 1}, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/v1/ledger/pending", nil, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("pending without token = %d", rec.Code)
	}

	s.cfg.AdminKey = ""
	if rec := do(t, s.Handler(), "POST", "/api/v1/cycles", map[string]int{"count": 1}, true); rec.Code != http.StatusForbidden {
		t.Fatalf("disabled admin status = %d", rec.Code)
	}
}

func TestCycles(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, "POST", "/api/v1/cycles", map[string]int{"count": 5}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := decodeBody[map[string]any](t, rec); got["advanced"] != float64(5) {
		t.Fatalf("advanced = %v", got["advanced"])
	}
	if st := decodeBody[map[string]any](t, do(t, h, "GET", "/api/v1/status", nil, false)); st["cycle"] != float64(5) {
		t.Fatalf("cycle = %v", st["cycle"])
	}

	if rec := do(t, h, "POST", "/api/v1/cycles", map[string]int{"count": -1}, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative count status = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/v1/cycles", map[string]any{"count": 1, "extra": true}, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}
}

func TestClaimAndBuild(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, "POST", "/api/v1/plots/3/claim", map[string]string{"player": "p1"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d: %s", rec.Code, rec.Body)
	}
	claim := decodeBody[bridge.ClaimResult](t, rec)
	if claim.Plot.Owner != "p1" || claim.Receipt.TokenID != 1 {
		t.Fatalf("claim = %+v", claim)
	}

	if rec := do(t, h, "POST", "/api/v1/plots/3/claim", map[string]string{"player": "p2"}, true); rec.Code != http.StatusConflict {
		t.Fatalf("second claim status = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/v1/plots/3/build", map[string]string{"player": "p1", "structure": "castle"}, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad structure status = %d", rec.Code)
	}

	rec = do(t, h, "POST", "/api/v1/plots/3/build", map[string]string{"player": "p1", "structure": "stone_house"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("build status = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, "GET", "/api/v1/settlements/1/plots?owner=p1&developed=true", nil, false)
	if p := decodeBody[page[map[string]any]](t, rec); p.Total != 1 || p.Items[0]["structure"] != "stone_house" {
		t.Fatalf("owned plots = %+v", p)
	}

	rec = do(t, h, "GET", "/api/v1/ledger/pending", nil, true)
	if entries := decodeBody[[]map[string]any](t, rec); len(entries) != 2 {
		t.Fatalf("pending = %v", entries)
	}
}

func TestDevelopAndInfrastructure(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, "POST", "/api/v1/settlements/1/plots/1/develop", map[string]string{"structure": "hut", "owner": "city"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("develop status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "POST", "/api/v1/settlements/1/plots/1/develop", map[string]string{"structure": "hut", "owner": "city"}, true); rec.Code != http.StatusConflict {
		t.Fatalf("redevelop status = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/v1/settlements/9/plots/1/develop", map[string]string{"structure": "hut", "owner": "city"}, true); rec.Code != http.StatusNotFound {
		t.Fatalf("missing settlement status = %d", rec.Code)
	}

	rec = do(t, h, "POST", "/api/v1/settlements/1/infrastructure", map[string]string{"facility": "roads"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("infrastructure status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "POST", "/api/v1/settlements/1/infrastructure", map[string]string{"facility": "moat"}, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown facility status = %d", rec.Code)
	}
}

func TestSpawnInteractAndFactions(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, "POST", "/api/v1/actors", map[string]any{"player": "p1", "body_id": 1}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("spawn status = %d: %s", rec.Code, rec.Body)
	}
	sp := decodeBody[bridge.SpawnResult](t, rec)
	if sp.ActorID != 6 {
		t.Fatalf("spawn = %+v", sp)
	}

	rec = do(t, h, "POST", "/api/v1/actors/6/interact", map[string]any{"player": "p1", "type": "gift"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("interact status = %d: %s", rec.Code, rec.Body)
	}
	if got := decodeBody[map[string]any](t, rec); got["loyalty"] != float64(3) || got["receipt"] == nil {
		t.Fatalf("interact = %v", got)
	}
	if rec := do(t, h, "POST", "/api/v1/actors/6/interact", map[string]any{"player": "p1", "type": "gift", "quality": -1}, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative quality status = %d", rec.Code)
	}

	detail := decodeBody[map[string]any](t, do(t, h, "GET", "/api/v1/actors/6", nil, false))
	if detail["state"] != "child" || len(detail["recent_interactions"].([]any)) != 1 {
		t.Fatalf("actor = %v", detail)
	}
	if rec := do(t, h, "GET", "/api/v1/actors/abc", nil, false); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}

	list := decodeBody[page[actorSummary]](t, do(t, h, "GET", "/api/v1/actors?state=child&limit=2", nil, false))
	if list.Total != 6 || len(list.Items) != 2 {
		t.Fatalf("actors = %+v", list)
	}

	rec = do(t, h, "POST", "/api/v1/factions", map[string]string{"leader": "p1", "name": "Miners"}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("faction status = %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, h, "POST", "/api/v1/factions/1/members", map[string]int{"actor_id": 6}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d: %s", rec.Code, rec.Body)
	}
	factions := decodeBody[[]map[string]any](t, do(t, h, "GET", "/api/v1/factions", nil, false))
	if len(factions) != 1 || len(factions[0]["members"].([]any)) != 1 {
		t.Fatalf("factions = %v", factions)
	}
}

func TestExtractAndEvents(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, "POST", "/api/v1/bodies/3/extract", map[string]any{"extractor": "p1", "resource": "iron", "amount": 10}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "POST", "/api/v1/bodies/3/extract", map[string]any{"extractor": "p1", "resource": "iron", "amount": int64(1) << 40}, true); rec.Code != http.StatusConflict {
		t.Fatalf("over-extraction status = %d", rec.Code)
	}

	events := decodeBody[[]engine.Event](t, do(t, h, "GET", "/api/v1/events?category=resource", nil, false))
	if len(events) != 1 || !strings.Contains(events[0].Description, "iron") {
		t.Fatalf("events = %+v", events)
	}
	all := decodeBody[[]engine.Event](t, do(t, h, "GET", "/api/v1/events?since=1", nil, false))
	if len(all) != 1 || all[0].Seq != 2 {
		t.Fatalf("since events = %+v", all)
	}
}

func TestSaveAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, "POST", "/api/v1/save", nil, true); rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}
	if !s.DB.HasWorldState() {
		t.Fatal("no state after save")
	}

	rec := do(t, h, "POST", "/api/v1/snapshot", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d: %s", rec.Code, rec.Body)
	}
	path := decodeBody[map[string]any](t, rec)["path"].(string)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}
}

func TestPause(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	do(t, h, "POST", "/api/v1/pause", map[string]bool{"paused": true}, true)
	if !s.Engine.Paused() {
		t.Fatal("engine not paused")
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var e engine.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read backlog: %v", err)
	}
	if e.Seq != 1 || e.Category != engine.CategorySystem {
		t.Fatalf("backlog event = %+v", e)
	}

	s.Engine.Exec(func(u *engine.Universe) error {
		_, err := u.ExtractResource(engine.ByID(1), "stone", 5)
		return err
	})
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read live: %v", err)
	}
	if e.Seq != 2 || e.Category != engine.CategoryResource {
		t.Fatalf("live event = %+v", e)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2})
	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst requests rejected")
	}
	if rl.Allow("a") {
		t.Fatal("request over burst allowed")
	}
	if !rl.Allow("b") {
		t.Fatal("other client limited")
	}

	off := NewRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 100; i++ {
		if !off.Allow("a") {
			t.Fatal("disabled limiter rejected a request")
		}
	}

	h := rl.Middleware(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Forwarded-For", "a, 10.0.0.1")
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("status = %d", rec.Code)
	}
}
