package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
)

func TestWriteRead(t *testing.T) {
	u := engine.NewUniverse(config.Universe{Seed: 777, Plots: 50, MiningBodies: 1, StartingActors: 4, SeedBase: 50000})
	if err := u.Initialize(); err != nil {
		t.Fatal(err)
	}
	u.AdvanceCycles(6)
	u.DevelopPlot(engine.ByID(1), 3, "workshop", "p1")

	path := filepath.Join(t.TempDir(), "snaps", FileName(u.Cycle))
	if err := Write(path, u.Export()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temporary file left behind")
	}

	h, st, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if h.Version != Version || h.Cycle != 6 || h.Seed != 777 || h.Actors != 4 {
		t.Fatalf("header = %+v", h)
	}
	want, _ := json.Marshal(u.Export())
	got, _ := json.Marshal(st)
	if string(got) != string(want) {
		t.Fatal("state changed across snapshot")
	}
	if _, err := engine.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Read(filepath.Join(dir, "missing.zst")); err == nil {
		t.Fatal("expected error for missing file")
	}
	junk := filepath.Join(dir, "junk.zst")
	os.WriteFile(junk, []byte("not zstd"), 0o644)
	if _, _, err := Read(junk); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(42); got != "universe-0000000042.json.zst" {
		t.Fatalf("FileName = %q", got)
	}
}
