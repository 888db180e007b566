package gamedata

import "testing"

func TestClassification(t *testing.T) {
	tests := []struct {
		name                               string
		townhall, structureTrained, upgrade bool
	}{
		{Hatchery, true, false, false},
		{Lair, true, true, false},
		{Hive, true, true, false},
		{Queen, false, true, false},
		{GreaterSpire, false, true, false},
		{Drone, false, false, false},
		{Overlord, false, false, false},
		{SpawningPool, false, false, false},
		{ZerglingMovementSpeed, false, false, true},
		{MissileWeapons1, false, false, true},
	}
	for _, tc := range tests {
		if got := IsTownhall(tc.name); got != tc.townhall {
			t.Errorf("IsTownhall(%q) = %v, want %v", tc.name, got, tc.townhall)
		}
		if got := IsStructureTrained(tc.name); got != tc.structureTrained {
			t.Errorf("IsStructureTrained(%q) = %v, want %v", tc.name, got, tc.structureTrained)
		}
		if got := IsUpgrade(tc.name); got != tc.upgrade {
			t.Errorf("IsUpgrade(%q) = %v, want %v", tc.name, got, tc.upgrade)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		have, need string
		want       bool
	}{
		{Hatchery, Hatchery, true},
		{Lair, Hatchery, true},
		{Hive, Hatchery, true},
		{Hive, Lair, true},
		{Hatchery, Lair, false},
		{GreaterSpire, Spire, true},
		{Spire, GreaterSpire, false},
		{SpawningPool, Hatchery, false},
	}
	for _, tc := range tests {
		if got := Satisfies(tc.have, tc.need); got != tc.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tc.have, tc.need, got, tc.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	if got := Canonical("spawningpool"); got != SpawningPool {
		t.Errorf("Canonical(spawningpool) = %q, want %q", got, SpawningPool)
	}
	if got := Canonical("zerglingburrowed"); got != ZerglingBurrowed {
		t.Errorf("Canonical(zerglingburrowed) = %q, want %q", got, ZerglingBurrowed)
	}
	if got := Canonical("Battlecruiser"); got != "Battlecruiser" {
		t.Errorf("unknown names should pass through, got %q", got)
	}
	if Known("Battlecruiser") {
		t.Error("Battlecruiser is not a zerg type")
	}
	if r, ok := CanonicalRace("terran"); !ok || r != RaceTerran {
		t.Errorf("CanonicalRace(terran) = %q, %v", r, ok)
	}
}

func TestEquivalenceTables(t *testing.T) {
	if b, ok := UnburrowedOf(RoachBurrowed); !ok || b != Roach {
		t.Errorf("UnburrowedOf(RoachBurrowed) = %q, %v", b, ok)
	}
	if r, ok := RootedOf(SporeCrawlerUprooted); !ok || r != SporeCrawler {
		t.Errorf("RootedOf(SporeCrawlerUprooted) = %q, %v", r, ok)
	}
	if l, ok := LowerTierOf(Hive); !ok || l != Lair {
		t.Errorf("LowerTierOf(Hive) = %q, %v", l, ok)
	}
	if p, ok := MorphPrecursor(Baneling); !ok || p != Zergling {
		t.Errorf("MorphPrecursor(Baneling) = %q, %v", p, ok)
	}
}
