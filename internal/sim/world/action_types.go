package world

import (
	"encoding/json"
	"fmt"

	"survivalsim.ai/internal/sim/grid"
)

type ActionKind uint8

const (
	ActDoNothing ActionKind = iota
	ActMove
	ActAttack
	ActBuildWall
)

var actionNames = [...]string{
	ActDoNothing: "DO_NOTHING",
	ActMove:      "MOVE",
	ActAttack:    "ATTACK",
	ActBuildWall: "BUILD_WALL",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("ACTION_%d", uint8(k))
}

func ParseActionKind(s string) (ActionKind, bool) {
	for i, n := range actionNames {
		if n == s {
			return ActionKind(i), true
		}
	}
	return 0, false
}

// Action is one creature's choice for a step. Dir is ignored for DoNothing.
type Action struct {
	Kind ActionKind
	Dir  grid.Dir
}

func DoNothing() Action           { return Action{Kind: ActDoNothing} }
func Move(d grid.Dir) Action      { return Action{Kind: ActMove, Dir: d} }
func Attack(d grid.Dir) Action    { return Action{Kind: ActAttack, Dir: d} }
func BuildWall(d grid.Dir) Action { return Action{Kind: ActBuildWall, Dir: d} }

func (a Action) String() string {
	if a.Kind == ActDoNothing {
		return a.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Dir)
}

type actionJSON struct {
	Type string `json:"type"`
	DX   int    `json:"dx,omitempty"`
	DY   int    `json:"dy,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	v := actionJSON{Type: a.Kind.String()}
	if a.Kind != ActDoNothing {
		v.DX, v.DY = a.Dir.DX, a.Dir.DY
	}
	return json.Marshal(v)
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var v actionJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	k, ok := ParseActionKind(v.Type)
	if !ok {
		return fmt.Errorf("unknown action type %q", v.Type)
	}
	*a = Action{Kind: k}
	if k != ActDoNothing {
		a.Dir = grid.Dir{DX: v.DX, DY: v.DY}
	}
	return nil
}
