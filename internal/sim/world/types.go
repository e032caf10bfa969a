package world

import "survivalsim.ai/internal/sim/grid"

type DeathReason string

const (
	DeathNoFood DeathReason = "NO_FOOD"
	DeathDesync DeathReason = "DESYNC"
)

type Death struct {
	Species int         `json:"species"`
	Member  int         `json:"member"`
	Pos     grid.Pos    `json:"pos"`
	Food    int         `json:"food"`
	Reason  DeathReason `json:"reason"`
}

type RecordedAction struct {
	Species int    `json:"species"`
	Member  int    `json:"member"`
	Action  Action `json:"action"`
}

type TickLogEntry struct {
	Tick     uint64           `json:"tick"`
	Moon     uint64           `json:"moon"`
	Actions  []RecordedAction `json:"actions,omitempty"`
	Rejected int              `json:"rejected,omitempty"`
	Deaths   []Death          `json:"deaths,omitempty"`
	Digest   string           `json:"digest"`
}

type SpeciesSummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Population int    `json:"population"`
	TotalFood  int    `json:"total_food"`
}

type BushSummary struct {
	Fed   int `json:"fed"`
	Eaten int `json:"eaten"`
	Walls int `json:"walls"`
}

type MoonLogEntry struct {
	Moon    uint64           `json:"moon"`
	EndTick uint64           `json:"end_tick"`
	Species []SpeciesSummary `json:"species"`
	Bushes  BushSummary      `json:"bushes"`
	Deaths  []Death          `json:"deaths,omitempty"`
	Extinct bool             `json:"extinct"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type MoonLogger interface {
	WriteMoon(entry MoonLogEntry) error
}
