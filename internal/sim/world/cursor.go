package world

// Cursor walks one species' members for a single step. It snapshots the
// member indices live when it is created; rosters only shrink at cleanup,
// so those indices stay valid for state extraction and action application
// throughout the step.
type Cursor struct {
	w       *World
	s       *Species
	indices []int
	at      int
}

func (w *World) Cursor(species int) *Cursor {
	s := w.species[species]
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	return &Cursor{w: w, s: s, indices: idx, at: -1}
}

// Next advances to the next member still alive. Members marked dead earlier
// in the step (food below zero) are skipped; cleanup removes them.
func (c *Cursor) Next() bool {
	for c.at+1 < len(c.indices) {
		c.at++
		if !c.markedDead(c.indices[c.at]) {
			return true
		}
	}
	return false
}

func (c *Cursor) markedDead(i int) bool {
	t := c.w.grid.At(c.s.members[i])
	return t.IsCreatureOf(c.s.id) && t.Food < 0
}

// Index is the roster index of the current member.
func (c *Cursor) Index() int { return c.indices[c.at] }

func (c *Cursor) Species() *Species { return c.s }

func (c *Cursor) State() (State, error) {
	i := c.Index()
	view, err := c.s.View(i, c.w.cfg.ViewRadius)
	if err != nil {
		return State{}, err
	}
	food, err := c.s.Food(i)
	if err != nil {
		return State{}, err
	}
	return State{
		View:      view,
		Food:      food,
		TimeLeft:  c.w.timeLeft,
		BuildCost: c.w.cfg.Rules.buildCost(),
	}, nil
}

func (c *Cursor) Apply(a Action) error {
	err := c.s.HandleAction(a, c.Index())
	if err == nil {
		c.w.stats.recordAction(a)
	}
	return err
}
