// Package term draws observer frames onto a tcell screen.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/encoding"
)

const (
	glyphEmpty     = '·'
	glyphBushFed   = '♣'
	glyphBushEaten = ','
	glyphWall      = '#'
)

// headerRows is the status line drawn above the grid.
const headerRows = 1

var (
	styleHeader    = tcell.StyleDefault.Bold(true)
	styleEmpty     = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	styleBushFed   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleBushEaten = tcell.StyleDefault.Foreground(tcell.ColorOlive)
)

// Renderer owns the last frame it drew so Redraw can repaint after a resize.
type Renderer struct {
	screen tcell.Screen
	last   *protocol.FrameMsg
}

func New(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Draw decodes f and paints it. Cells outside the screen are clipped.
func (r *Renderer) Draw(f protocol.FrameMsg) error {
	codes, err := encoding.DecodeRows(f.Rows, f.Width)
	if err != nil {
		return fmt.Errorf("decode frame tick=%d: %w", f.Tick, err)
	}
	if len(codes) != f.Width*f.Height {
		return fmt.Errorf("decode frame tick=%d: %d cells for %dx%d", f.Tick, len(codes), f.Width, f.Height)
	}

	styles := make(map[int]tcell.Style, len(f.Species))
	for _, s := range f.Species {
		styles[s.ID] = tcell.StyleDefault.Foreground(tcell.GetColor(s.Color))
	}

	r.screen.Clear()
	r.text(0, 0, styleHeader, fmt.Sprintf("%s  tick %d  moon %d  left %d", f.WorldID, f.Tick, f.Moon, f.TimeLeft))

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			ch, st := cellGlyph(codes[y*f.Width+x])
			r.screen.SetContent(x, y+headerRows, ch, nil, st)
		}
	}
	for _, w := range f.Walls {
		r.screen.SetContent(w.X, w.Y+headerRows, glyphWall, nil, styles[w.Species])
	}
	for _, c := range f.Creatures {
		r.screen.SetContent(c.X, c.Y+headerRows, creatureGlyph(c.Food), nil, styles[c.Species].Bold(true))
	}

	row := f.Height + headerRows + 1
	for _, s := range f.Species {
		line := fmt.Sprintf("%-10s pop %3d  food %4d", s.Name, s.Population, s.TotalFood)
		if s.Population == 0 {
			line += "  extinct"
		}
		r.text(0, row, styles[s.ID], line)
		row++
	}
	if f.Extinct {
		r.text(0, row, styleHeader, "all species extinct")
	}

	r.last = &f
	r.screen.Show()
	return nil
}

// Redraw repaints the last frame, or does nothing before the first one.
func (r *Renderer) Redraw() error {
	if r.last == nil {
		return nil
	}
	return r.Draw(*r.last)
}

// Message shows a single line, used before the first frame arrives.
func (r *Renderer) Message(msg string) {
	r.screen.Clear()
	r.text(0, 0, styleHeader, msg)
	r.screen.Show()
}

func (r *Renderer) text(x, y int, st tcell.Style, s string) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, st)
		x++
	}
}

func cellGlyph(code uint16) (rune, tcell.Style) {
	switch code {
	case protocol.CellBushFed:
		return glyphBushFed, styleBushFed
	case protocol.CellBushEaten:
		return glyphBushEaten, styleBushEaten
	case protocol.CellWall:
		return glyphWall, tcell.StyleDefault
	case protocol.CellCreature:
		return '@', tcell.StyleDefault
	default:
		return glyphEmpty, styleEmpty
	}
}

// creatureGlyph shows food as a digit; 9 stands for anything above.
func creatureGlyph(food int) rune {
	switch {
	case food < 0:
		return 'x'
	case food > 9:
		return '9'
	default:
		return rune('0' + food)
	}
}
