package world

import "testing"

func TestApplyDefaults_PartialRules(t *testing.T) {
	cfg := Config{Rules: Rules{MoonDecay: 3, WallCost: 2}}
	cfg.applyDefaults()

	want := DefaultRules()
	want.MoonDecay = 3
	want.WallCost = 2
	if cfg.Rules != want {
		t.Fatalf("rules=%+v want %+v", cfg.Rules, want)
	}
}

func TestApplyDefaults_ZeroRules(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	if cfg.Rules != DefaultRules() {
		t.Fatalf("rules=%+v want defaults", cfg.Rules)
	}
}
