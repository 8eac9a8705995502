package persistence

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sarakt.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUniverse(t *testing.T) *engine.Universe {
	t.Helper()
	u := engine.NewUniverse(config.Universe{Seed: 12345, Plots: 30, MiningBodies: 2, StartingActors: 6, SeedBase: 50000})
	if err := u.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return u
}

func TestSaveLoadWorldState(t *testing.T) {
	db := openTestDB(t)
	if db.HasWorldState() {
		t.Fatal("fresh database reports saved state")
	}

	u := testUniverse(t)
	u.AdvanceCycles(19)
	if _, err := u.DevelopPlot(engine.ByID(1), 2, "stone_house", "p1"); err != nil {
		t.Fatal(err)
	}
	u.AssignPlotToken(engine.ByID(1), 2, 9)
	u.BuildInfrastructure(engine.ByID(1), "roads")
	u.ExtractResource(engine.ByID(3), "iron", 500)
	u.Interact(2, "p1", "gift", 2)
	f, _ := u.CreateFaction("Dulo Guard", "p1")
	u.JoinFaction(f.ID, 2)
	u.AssignActorToken(2, 4)

	if err := db.SaveWorldState(u.Export()); err != nil {
		t.Fatalf("SaveWorldState: %v", err)
	}
	// A second save must replace rather than duplicate.
	if err := db.SaveWorldState(u.Export()); err != nil {
		t.Fatalf("second SaveWorldState: %v", err)
	}
	if !db.HasWorldState() {
		t.Fatal("HasWorldState = false after save")
	}

	st, err := db.LoadWorldState()
	if err != nil {
		t.Fatalf("LoadWorldState: %v", err)
	}
	want, _ := json.Marshal(u.Export())
	got, _ := json.Marshal(st)
	if string(got) != string(want) {
		t.Fatalf("loaded state differs\n got: %.400s\nwant: %.400s", got, want)
	}

	r, err := engine.Restore(st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	u.AdvanceCycles(3)
	r.AdvanceCycles(3)
	a, _ := json.Marshal(u.Export())
	b, _ := json.Marshal(r.Export())
	if string(a) != string(b) {
		t.Fatal("universe restored from the database diverged")
	}
}

func TestLoadWorldState_Empty(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadWorldState(); err == nil {
		t.Fatal("expected error from empty database")
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("k", "v1"); err != nil {
		t.Fatal(err)
	}
	db.SaveMeta("k", "v2")
	if v, err := db.GetMeta("k"); err != nil || v != "v2" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	ob := NewOutbox(db)

	plot, err := ob.MintPlot(ctx, "p1", 1, 5, "residential")
	if err != nil {
		t.Fatalf("MintPlot: %v", err)
	}
	actor, err := ob.MintActor(ctx, "p1", 3, 1, "Ivan Dulov")
	if err != nil {
		t.Fatalf("MintActor: %v", err)
	}
	if plot.TokenID != 1 || actor.TokenID != 2 || plot.Ref == actor.Ref || plot.Ref == "" {
		t.Fatalf("receipts %+v %+v", plot, actor)
	}

	if ok, _ := ob.Owns(ctx, "p1", plot.TokenID); !ok {
		t.Fatal("p1 should own the plot token")
	}
	if ok, _ := ob.Owns(ctx, "p2", plot.TokenID); ok {
		t.Fatal("p2 should not own the plot token")
	}
	if ok, err := ob.Owns(ctx, "p1", 999); ok || err != nil {
		t.Fatalf("unknown token: %v, %v", ok, err)
	}

	s, err := ob.RecordStructure(ctx, plot.TokenID, "hut")
	if err != nil || s.TokenID != plot.TokenID {
		t.Fatalf("RecordStructure = %+v, %v", s, err)
	}
	ob.SyncLoyalty(ctx, actor.TokenID, "p1", 10, 4)
	ob.RecordExtraction(ctx, "p1", 3, "iron", 50)
	fac, _ := ob.MintFaction(ctx, "p1", "Miners")
	if fac.TokenID != 3 {
		t.Fatalf("faction token = %d", fac.TokenID)
	}

	pending, err := ob.Pending(ctx, 100)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	ops := []string{"mint_plot", "mint_actor", "build_structure", "update_loyalty", "extract_resource", "create_faction"}
	if len(pending) != len(ops) {
		t.Fatalf("pending = %d entries", len(pending))
	}
	for i, op := range ops {
		if pending[i].Op != op {
			t.Fatalf("entry %d op = %s, want %s", i, pending[i].Op, op)
		}
	}
	var loyalty map[string]any
	json.Unmarshal([]byte(pending[3].Payload), &loyalty)
	if loyalty["change"] != float64(6) || loyalty["increase"] != false {
		t.Fatalf("loyalty payload = %v", loyalty)
	}

	if err := ob.MarkSent(ctx, pending[0].Ref); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := ob.MarkSent(ctx, pending[0].Ref); err == nil {
		t.Fatal("second MarkSent should fail")
	}
	if left, _ := ob.Pending(ctx, 100); len(left) != len(ops)-1 {
		t.Fatalf("pending after MarkSent = %d", len(left))
	}
}
