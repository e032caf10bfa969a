package tuning

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"survivalsim.ai/internal/sim/world"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`
	WorldID         string `yaml:"world_id"`
	Seed            int64  `yaml:"seed"`

	Grid         Grid    `yaml:"grid"`
	TickRateHz   int     `yaml:"tick_rate_hz"`
	MoonLen      int     `yaml:"moon_len"`
	NumFood      int     `yaml:"num_food"`
	ChanceRegrow float64 `yaml:"chance_regrow"`
	ViewRadius   int     `yaml:"view_radius"`

	Rules   Rules     `yaml:"rules"`
	Species []Species `yaml:"species"`
}

type Grid struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Rules struct {
	AttackGain    int     `yaml:"attack_gain"`
	AttackDamage  int     `yaml:"attack_damage"`
	WallCost      int     `yaml:"wall_cost"`
	MoonDecay     int     `yaml:"moon_decay"`
	RewardBase    float64 `yaml:"reward_base"`
	RewardScale   float64 `yaml:"reward_scale"`
	PackFootprint int     `yaml:"pack_footprint"`
}

type Species struct {
	Name         string `yaml:"name"`
	Color        string `yaml:"color"`
	NumCreatures int    `yaml:"num_creatures"`
	NumPacks     int    `yaml:"num_packs"`
	StartFood    int    `yaml:"start_food"`
	// Policy names an in-process policy (see policy.ByName) or "remote".
	Policy string `yaml:"policy"`
}

var Policies = []string{"idle", "random", "forager", "hunter", "remote"}

// Defaults returns the embedded defaults.yaml.
func Defaults() Tuning {
	var t Tuning
	if err := yaml.Unmarshal(defaultsYAML, &t); err != nil {
		panic(fmt.Sprintf("embedded defaults.yaml: %v", err))
	}
	return t
}

// Load reads path over Defaults. Keys missing from the file keep their
// default; a species list in the file replaces the default list.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := Parse(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes raw over t. Sequences such as species replace what t held.
func Parse(raw []byte, t *Tuning) error {
	if err := yaml.Unmarshal(raw, t); err != nil {
		return err
	}
	return t.Validate()
}

func (t Tuning) Validate() error {
	var errs []error
	if t.Grid.Width <= 0 || t.Grid.Height <= 0 {
		errs = append(errs, fmt.Errorf("grid %dx%d must be positive", t.Grid.Width, t.Grid.Height))
	}
	if t.TickRateHz < 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz %d must be >= 0", t.TickRateHz))
	}
	seen := map[string]bool{}
	for i, s := range t.Species {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("species[%d]: empty name", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("species[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
		if _, err := ParseColor(s.Color); err != nil {
			errs = append(errs, fmt.Errorf("species[%d]: %w", i, err))
		}
		if !validPolicy(s.Policy) {
			errs = append(errs, fmt.Errorf("species[%d]: unknown policy %q", i, s.Policy))
		}
	}
	return errors.Join(errs...)
}

func validPolicy(p string) bool {
	if p == "" {
		return true
	}
	for _, x := range Policies {
		if x == p {
			return true
		}
	}
	return false
}

// WorldConfig maps the tuning onto a world.Config. Empty id and zero seed
// keep the tuning's own values.
func (t Tuning) WorldConfig(id string, seed int64) (world.Config, error) {
	if id == "" {
		id = t.WorldID
	}
	if seed == 0 {
		seed = t.Seed
	}
	cfg := world.Config{
		ID:           id,
		Width:        t.Grid.Width,
		Height:       t.Grid.Height,
		Seed:         seed,
		TickRateHz:   t.TickRateHz,
		MoonLen:      t.MoonLen,
		NumFood:      t.NumFood,
		ChanceRegrow: t.ChanceRegrow,
		ViewRadius:   t.ViewRadius,
		Rules: world.Rules{
			AttackGain:    t.Rules.AttackGain,
			AttackDamage:  t.Rules.AttackDamage,
			WallCost:      t.Rules.WallCost,
			MoonDecay:     t.Rules.MoonDecay,
			RewardBase:    t.Rules.RewardBase,
			RewardScale:   t.Rules.RewardScale,
			PackFootprint: t.Rules.PackFootprint,
		},
	}
	for i, s := range t.Species {
		c, err := ParseColor(s.Color)
		if err != nil {
			return cfg, fmt.Errorf("species[%d]: %w", i, err)
		}
		cfg.Species = append(cfg.Species, world.SpeciesConfig{
			Name:         s.Name,
			Color:        c,
			NumCreatures: s.NumCreatures,
			NumPacks:     s.NumPacks,
			StartFood:    s.StartFood,
		})
	}
	return cfg, nil
}

// ParseColor parses "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 || len(h) == len(s) {
		return color.RGBA{}, fmt.Errorf("bad color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
