package persona

import (
	"strings"
	"testing"
)

func TestRegistryFixedSet(t *testing.T) {
	all := All()
	if len(all) != 5 {
		t.Fatalf("persona count = %d, want 5", len(all))
	}

	wantIDs := []string{"budget-advisor", "culture-guide", "safety-responder", "food-concierge", "content-coach"}
	for i, want := range wantIDs {
		if all[i].ID != want {
			t.Errorf("persona[%d] = %q, want %q", i, all[i].ID, want)
		}
	}
}

func TestByID(t *testing.T) {
	p, ok := ByID("budget-advisor")
	if !ok {
		t.Fatal("budget-advisor not found")
	}
	if p.DisplayName == "" || p.Tone == "" || p.Color == "" {
		t.Errorf("persona missing display metadata: %+v", p)
	}

	if _, ok := ByID("trip-wizard"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestDefaultIsInRegistry(t *testing.T) {
	d := Default()
	if _, ok := ByID(d.ID); !ok {
		t.Errorf("default persona %q not in registry", d.ID)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].ID = "mutated"
	if All()[0].ID == "mutated" {
		t.Error("All() must not expose the registry for mutation")
	}
}

func TestRoster(t *testing.T) {
	roster := Roster()
	for _, p := range All() {
		if !strings.Contains(roster, p.ID) {
			t.Errorf("roster missing %q", p.ID)
		}
	}
}
