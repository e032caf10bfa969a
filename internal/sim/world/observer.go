package world

import (
	"encoding/json"
	"fmt"
	"image/color"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/encoding"
	"survivalsim.ai/internal/sim/grid"
)

// ObserverJoinRequest registers a read-only observer. Out receives one
// encoded FRAME per tick; slow readers only ever see the latest frame.
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
}

type observerJoinReq = ObserverJoinRequest

type observerClient struct {
	id  string
	out chan []byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	c := &observerClient{id: req.SessionID, out: req.Out}
	w.observers[c.id] = c
	if b, err := json.Marshal(w.Frame()); err == nil {
		sendLatest(c.out, b)
	}
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func (w *World) broadcastFrame() {
	if len(w.observers) == 0 {
		return
	}
	b, err := json.Marshal(w.Frame())
	if err != nil {
		w.logf("frame marshal: %v", err)
		return
	}
	for _, c := range w.observers {
		sendLatest(c.out, b)
	}
}

// Frame renders the whole grid for observers.
func (w *World) Frame() protocol.FrameMsg {
	width, height := w.grid.Width(), w.grid.Height()
	codes := make([]uint16, 0, width*height)
	var creatures []protocol.CreatureInfo
	var walls []protocol.WallInfo

	w.grid.Each(func(p grid.Pos, t grid.Tile) {
		codes = append(codes, frameCell(t))
		switch t.Kind {
		case grid.KindCreature:
			creatures = append(creatures, protocol.CreatureInfo{X: int(p.X), Y: int(p.Y), Species: t.Species, Food: t.Food})
		case grid.KindWall:
			walls = append(walls, protocol.WallInfo{X: int(p.X), Y: int(p.Y), Species: t.Species})
		}
	})

	species := make([]protocol.SpeciesInfo, 0, len(w.species))
	for _, s := range w.species {
		sum := w.speciesSummary(s)
		species = append(species, protocol.SpeciesInfo{
			ID:         s.id,
			Name:       s.name,
			Color:      ColorHex(s.color),
			Population: sum.Population,
			TotalFood:  sum.TotalFood,
		})
	}

	return protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		WorldID:         w.cfg.ID,
		Tick:            w.tick.Load(),
		Moon:            w.moon,
		TimeLeft:        w.timeLeft,
		Width:           width,
		Height:          height,
		Rows:            encoding.EncodeRows(codes, width),
		Creatures:       creatures,
		Walls:           walls,
		Species:         species,
		Extinct:         w.Extinct(),
	}
}

func frameCell(t grid.Tile) uint16 {
	switch t.Kind {
	case grid.KindBush:
		if t.HasFood {
			return protocol.CellBushFed
		}
		return protocol.CellBushEaten
	case grid.KindWall:
		return protocol.CellWall
	case grid.KindCreature:
		return protocol.CellCreature
	default:
		return protocol.CellEmpty
	}
}

func ColorHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
