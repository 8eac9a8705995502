package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/simerr"
)

type call struct {
	op    string
	token uint64
	args  string
}

type fakeLedger struct {
	mu     sync.Mutex
	next   uint64
	owners map[uint64]string
	calls  []call
	fail   map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{next: 100, owners: map[uint64]string{}, fail: map[string]error{}}
}

func (f *fakeLedger) do(op, owner string, token uint64, mint bool, args string) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[op]; err != nil {
		return Receipt{}, err
	}
	if mint {
		f.next++
		token = f.next
		f.owners[token] = owner
	}
	f.calls = append(f.calls, call{op, token, args})
	return Receipt{Ref: fmt.Sprintf("%s-%d", op, len(f.calls)), TokenID: token}, nil
}

func (f *fakeLedger) MintPlot(_ context.Context, owner string, settlementID, plotID int, zone string) (Receipt, error) {
	return f.do("mint_plot", owner, 0, true, fmt.Sprintf("%d/%d/%s", settlementID, plotID, zone))
}

func (f *fakeLedger) RecordStructure(_ context.Context, token uint64, structure string) (Receipt, error) {
	return f.do("structure", "", token, false, structure)
}

func (f *fakeLedger) MintActor(_ context.Context, owner string, actorID, bodyID int, name string) (Receipt, error) {
	return f.do("mint_actor", owner, 0, true, fmt.Sprintf("%d/%d", actorID, bodyID))
}

func (f *fakeLedger) SyncLoyalty(_ context.Context, token uint64, player string, previous, current float64) (Receipt, error) {
	return f.do("loyalty", player, token, false, fmt.Sprintf("%g->%g", previous, current))
}

func (f *fakeLedger) MintFaction(_ context.Context, leader, name string) (Receipt, error) {
	return f.do("mint_faction", leader, 0, true, name)
}

func (f *fakeLedger) RecordExtraction(_ context.Context, extractor string, bodyID int, resource string, amount int64) (Receipt, error) {
	return f.do("extract", extractor, 0, false, fmt.Sprintf("%d/%s/%d", bodyID, resource, amount))
}

func (f *fakeLedger) Owns(_ context.Context, player string, token uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["owns"]; err != nil {
		return false, err
	}
	return f.owners[token] == player, nil
}

func (f *fakeLedger) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func newTestBridge(t *testing.T) (*Bridge, *fakeLedger) {
	t.Helper()
	u := engine.NewUniverse(config.Universe{Seed: 12345, Plots: 20, MiningBodies: 1, StartingActors: 5, SeedBase: 50000})
	if err := u.Initialize(); err != nil {
		t.Fatal(err)
	}
	l := newFakeLedger()
	return New(engine.NewEngine(u, time.Second), l), l
}

func TestClaimAndBuild(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)

	claim, err := b.ClaimPlot(ctx, "p1", 4)
	if err != nil {
		t.Fatalf("ClaimPlot: %v", err)
	}
	if claim.Plot.Owner != "p1" || claim.Plot.TokenID == nil || *claim.Plot.TokenID != claim.Receipt.TokenID {
		t.Fatalf("claim = %+v", claim)
	}
	if _, err := b.ClaimPlot(ctx, "p2", 4); !errors.Is(err, simerr.ErrPlotAlreadyClaimed) {
		t.Fatalf("second claim err = %v", err)
	}
	if _, err := b.ClaimPlot(ctx, "p1", 400); !errors.Is(err, simerr.ErrPlotNotFound) {
		t.Fatalf("missing plot err = %v", err)
	}

	if _, err := b.BuildOnPlot(ctx, "p2", 4, "hut"); !errors.Is(err, simerr.ErrPlotNotOwned) {
		t.Fatalf("non-owner build err = %v", err)
	}
	res, err := b.BuildOnPlot(ctx, "p1", 4, "stone_house")
	if err != nil {
		t.Fatalf("BuildOnPlot: %v", err)
	}
	if !res.Plot.Developed || res.Plot.NetValue != 60 {
		t.Fatalf("plot = %+v", res.Plot)
	}
	if _, err := b.BuildOnPlot(ctx, "p1", 4, "hut"); !errors.Is(err, simerr.ErrPlotAlreadyDeveloped) {
		t.Fatalf("rebuild err = %v", err)
	}

	b.Engine.Exec(func(u *engine.Universe) error {
		s, _ := u.Settlement(engine.ByID(1))
		if s.Economy.Population != 4 || s.Economy.GDP != 60000 {
			t.Errorf("economy = %+v", s.Economy)
		}
		return nil
	})

	want := []string{"mint_plot", "structure"}
	if got := l.ops(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("ledger ops = %v, want %v", got, want)
	}
}

func TestBuild_RequiresMint(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)
	b.Engine.Exec(func(u *engine.Universe) error {
		_, err := u.ClaimPlot(engine.ByID(1), 2, "p1")
		return err
	})
	if _, err := b.BuildOnPlot(ctx, "p1", 2, "hut"); !errors.Is(err, simerr.ErrNotMinted) {
		t.Fatalf("err = %v", err)
	}

	claim, _ := b.ClaimPlot(ctx, "p1", 3)
	l.mu.Lock()
	l.owners[claim.Receipt.TokenID] = "someone-else"
	l.mu.Unlock()
	if _, err := b.BuildOnPlot(ctx, "p1", 3, "hut"); !errors.Is(err, simerr.ErrPlotNotOwned) {
		t.Fatalf("ledger mismatch err = %v", err)
	}
	if _, err := b.BuildOnPlot(ctx, "p1", 3, "castle"); !errors.Is(err, simerr.ErrUnknownStructureType) {
		t.Fatalf("err = %v", err)
	}
}

func TestClaim_LedgerFailureLeavesPlotFree(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)
	l.fail["mint_plot"] = errors.New("ledger down")

	if _, err := b.ClaimPlot(ctx, "p1", 1); err == nil {
		t.Fatal("expected error")
	}
	b.Engine.Exec(func(u *engine.Universe) error {
		s, _ := u.Settlement(engine.ByID(1))
		if p, _ := s.Plot(1); p.Owner != "" {
			t.Errorf("plot claimed despite ledger failure")
		}
		return nil
	})
}

func TestSpawnAndInteract(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)

	sp, err := b.SpawnActor(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("SpawnActor: %v", err)
	}
	if sp.ActorID != 6 || sp.BodyID != 2 || sp.Receipt.TokenID == 0 {
		t.Fatalf("spawn = %+v", sp)
	}

	r, err := b.Interact(ctx, sp.ActorID, "p1", "gift", 1)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if r.Loyalty != 3 || r.Receipt == nil {
		t.Fatalf("interact = %+v", r)
	}
	// Neglect at zero loyalty changes nothing, so nothing is synced.
	b.Interact(ctx, sp.ActorID, "p2", "neglect", 1)

	// Unminted actors never reach the ledger.
	if r, _ := b.Interact(ctx, 1, "p1", "gift", 1); r.Receipt != nil {
		t.Fatal("unminted actor synced")
	}

	want := []string{"mint_actor", "loyalty"}
	if got := l.ops(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("ledger ops = %v, want %v", got, want)
	}

	if _, err := b.Interact(ctx, 99, "p1", "gift", 1); !errors.Is(err, simerr.ErrActorNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := b.SpawnActor(ctx, "p1", 50); !errors.Is(err, simerr.ErrBodyNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSyncLoyalty_UsesLastSynced(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)

	b.SyncLoyalty(ctx, 1, 7, "p1", 0, 10)
	l.fail["loyalty"] = errors.New("boom")
	if _, err := b.SyncLoyalty(ctx, 1, 7, "p1", 10, 20); err == nil {
		t.Fatal("expected error")
	}
	delete(l.fail, "loyalty")
	// The failed sync did not advance the baseline.
	b.SyncLoyalty(ctx, 1, 7, "p1", 20, 25)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) != 2 || l.calls[1].args != "10->25" {
		t.Fatalf("calls = %+v", l.calls)
	}
}

func TestExtractAndFaction(t *testing.T) {
	ctx := context.Background()
	b, l := newTestBridge(t)

	res, err := b.ExtractResources(ctx, "p1", 3, "iron", 25)
	if err != nil || res.Extracted != 25 {
		t.Fatalf("extract = %+v, %v", res, err)
	}
	if _, err := b.ExtractResources(ctx, "p1", 3, "unobtainium", 1); !errors.Is(err, simerr.ErrUnknownResource) {
		t.Fatalf("err = %v", err)
	}
	if _, err := b.ExtractResources(ctx, "", 3, "iron", 1); !errors.Is(err, simerr.ErrInvalidPlayer) {
		t.Fatalf("err = %v", err)
	}

	f, err := b.CreateFaction(ctx, "p1", "Dulo Guard")
	if err != nil {
		t.Fatalf("CreateFaction: %v", err)
	}
	if f.Faction.TokenID == nil || *f.Faction.TokenID != f.Receipt.TokenID {
		t.Fatalf("faction = %+v", f)
	}
	b.Engine.Exec(func(u *engine.Universe) error {
		got, _ := u.Factions.Get(f.Faction.ID)
		if got.TokenID == nil {
			t.Error("token not stored on faction")
		}
		return nil
	})
	if _, err := b.CreateFaction(ctx, "p2", "DULO GUARD"); !errors.Is(err, simerr.ErrFactionExists) {
		t.Fatalf("err = %v", err)
	}
	if n := len(l.ops()); n != 2 {
		t.Fatalf("ledger ops = %v", l.ops())
	}
}
