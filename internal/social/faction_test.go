package social

import (
	"errors"
	"testing"

	"github.com/talgya/sarakt/internal/simerr"
)

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry()

	f, err := r.Create("Dulo Compact", "player-1", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID != 1 || f.LeaderID != "player-1" || f.Founded != 3 {
		t.Fatalf("faction = %+v", f)
	}
	if _, err := r.Create("dulo compact", "player-2", 4); !errors.Is(err, simerr.ErrFactionExists) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := r.Create("  ", "player-2", 4); !errors.Is(err, simerr.ErrInvalidName) {
		t.Fatalf("blank name err = %v", err)
	}
	if _, err := r.Create("Other", "", 4); !errors.Is(err, simerr.ErrInvalidPlayer) {
		t.Fatalf("blank leader err = %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d after rejected creates", r.Len())
	}
}

func TestRegistry_Members(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Create("Octavia Guard", "p", 0)

	r.AddMember(f.ID, 7)
	r.AddMember(f.ID, 7)
	r.AddMember(f.ID, 9)
	if len(f.Members) != 2 || f.Members[0] != 7 || f.Members[1] != 9 {
		t.Fatalf("members = %v", f.Members)
	}
	if _, err := r.AddMember(42, 1); !errors.Is(err, simerr.ErrFactionNotFound) {
		t.Fatalf("missing faction err = %v", err)
	}
}

func TestRestoreRegistry_NextID(t *testing.T) {
	r := RestoreRegistry([]*Faction{{ID: 4, Name: "A"}, {ID: 2, Name: "B"}})
	f, err := r.Create("C", "p", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID != 5 {
		t.Fatalf("next id = %d, want 5", f.ID)
	}
}
