package world

import (
	"fmt"
	"image/color"
)

type Config struct {
	ID         string
	Width      int
	Height     int
	Seed       int64
	TickRateHz int

	// Steps per moon.
	MoonLen int
	// Bushes scattered at construction.
	NumFood int
	// Probability that an eaten bush stays eaten at a moon boundary.
	ChanceRegrow float64
	// Policy views are (2*ViewRadius+1)^2 tiles.
	ViewRadius int

	Rules   Rules
	Species []SpeciesConfig
}

type SpeciesConfig struct {
	Name         string
	Color        color.RGBA
	NumCreatures int
	NumPacks     int
	StartFood    int
}

// Rules holds the numeric constants of action resolution and reward shaping.
type Rules struct {
	AttackGain    int
	AttackDamage  int
	WallCost      int
	MoonDecay     int
	RewardBase    float64
	RewardScale   float64
	PackFootprint int
}

func DefaultRules() Rules {
	return Rules{
		AttackGain:    1,
		AttackDamage:  1,
		WallCost:      1,
		MoonDecay:     2,
		RewardBase:    2,
		RewardScale:   1,
		PackFootprint: 4,
	}
}

// applyDefaults fills each zero field from DefaultRules, so a zero constant
// always means the default.
func (r *Rules) applyDefaults() {
	d := DefaultRules()
	if r.AttackGain == 0 {
		r.AttackGain = d.AttackGain
	}
	if r.AttackDamage == 0 {
		r.AttackDamage = d.AttackDamage
	}
	if r.WallCost == 0 {
		r.WallCost = d.WallCost
	}
	if r.MoonDecay == 0 {
		r.MoonDecay = d.MoonDecay
	}
	if r.RewardBase == 0 {
		r.RewardBase = d.RewardBase
	}
	if r.RewardScale == 0 {
		r.RewardScale = d.RewardScale
	}
	if r.PackFootprint <= 0 {
		r.PackFootprint = d.PackFootprint
	}
}

// buildCost is the food a wall consumes; building always needs food > 0.
func (r Rules) buildCost() int {
	if r.WallCost < 1 {
		return 1
	}
	return r.WallCost
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.Width <= 0 {
		c.Width = 30
	}
	if c.Height <= 0 {
		c.Height = 20
	}
	if c.MoonLen <= 0 {
		c.MoonLen = 100
	}
	if c.ViewRadius <= 0 {
		c.ViewRadius = 3
	}
	c.Rules.applyDefaults()
}

func (c Config) validate() error {
	if c.ChanceRegrow < 0 || c.ChanceRegrow > 1 {
		return fmt.Errorf("%w: chance_regrow %v not in [0,1]", ErrBadConfig, c.ChanceRegrow)
	}
	if c.NumFood < 0 {
		return fmt.Errorf("%w: negative num_food", ErrBadConfig)
	}
	if c.NumFood > c.Width*c.Height {
		return fmt.Errorf("%w: num_food %d exceeds %d cells", ErrBadConfig, c.NumFood, c.Width*c.Height)
	}
	if c.Rules.AttackGain < 0 || c.Rules.AttackDamage < 0 || c.Rules.MoonDecay < 0 {
		return fmt.Errorf("%w: negative rule constant", ErrBadConfig)
	}
	f := c.Rules.PackFootprint
	for i, sc := range c.Species {
		if sc.NumCreatures < 0 || sc.NumPacks < 0 {
			return fmt.Errorf("%w: species %d: negative counts", ErrBadConfig, i)
		}
		if sc.NumPacks > 0 && (c.Width < f || c.Height < f) {
			return fmt.Errorf("%w: species %d: grid %dx%d smaller than pack footprint %d", ErrBadConfig, i, c.Width, c.Height, f)
		}
		if sc.NumCreatures > f*f {
			return fmt.Errorf("%w: species %d: %d creatures do not fit a %dx%d pack", ErrBadConfig, i, sc.NumCreatures, f, f)
		}
	}
	return nil
}
