package tuning

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if d.Grid.Width != 30 || d.Grid.Height != 20 || d.ViewRadius != 3 || d.Rules.MoonDecay != 2 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if len(d.Species) != 2 {
		t.Fatalf("species=%d want 2", len(d.Species))
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
grid:
  width: 12
moon_len: 7
species:
  - name: green
    color: "#00ff00"
    num_creatures: 2
    num_packs: 1
    policy: idle
`
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Grid.Width != 12 || tu.Grid.Height != 20 || tu.MoonLen != 7 || tu.NumFood != 60 {
		t.Fatalf("merge wrong: %+v", tu)
	}
	if len(tu.Species) != 1 || tu.Species[0].Name != "green" || tu.Species[0].StartFood != 0 {
		t.Fatalf("species=%+v", tu.Species)
	}

	cfg, err := tu.WorldConfig("w9", 5)
	if err != nil {
		t.Fatalf("world config: %v", err)
	}
	if cfg.ID != "w9" || cfg.Seed != 5 || cfg.Width != 12 || cfg.Rules.WallCost != 1 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Species[0].Color != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("color=%+v", cfg.Species[0].Color)
	}
}

func TestLoad_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	raw := `
species:
  - name: a
    color: red
  - name: a
    color: "#000000"
    policy: telepathy
`
	_ = os.WriteFile(p, []byte(raw), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#e04040")
	if err != nil || c != (color.RGBA{R: 0xe0, G: 0x40, B: 0x40, A: 255}) {
		t.Fatalf("c=%v err=%v", c, err)
	}
	for _, bad := range []string{"e04040", "#e0404", "#zzzzzz", ""} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
