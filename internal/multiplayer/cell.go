package multiplayer

// Cell holds one saved simulation state. Sessions hand cells out in requests;
// the caller fills them on save and reads them on load.
type Cell struct {
	frame    int32
	data     []byte
	checksum uint16
	full     bool
}

// Save stores a serialized state and its checksum. The data is copied.
func (c *Cell) Save(frame int32, data []byte, checksum uint16) {
	c.frame = frame
	c.data = append(c.data[:0], data...)
	c.checksum = checksum
	c.full = true
}

// Data returns the saved bytes, or nil if nothing was saved.
// The slice is owned by the cell and stays valid until the next Save.
func (c *Cell) Data() []byte {
	if !c.full {
		return nil
	}
	return c.data
}

// Frame returns the frame of the saved state.
func (c *Cell) Frame() int32 {
	return c.frame
}

// Checksum returns the checksum of the saved state.
func (c *Cell) Checksum() uint16 {
	return c.checksum
}

// Empty reports whether nothing has been saved in the cell.
func (c *Cell) Empty() bool {
	return !c.full
}

// holds reports whether the cell holds exactly this frame.
func (c *Cell) holds(frame int32) bool {
	return c.full && c.frame == frame
}

// cellRing is a ring of cells addressed by frame number.
type cellRing struct {
	cells []Cell
}

func newCellRing(size int) *cellRing {
	if size < 1 {
		size = 1
	}
	return &cellRing{cells: make([]Cell, size)}
}

// at returns the cell that stores frame.
func (r *cellRing) at(frame int32) *Cell {
	n := int32(len(r.cells)) //nolint:gosec // ring sizes are small
	idx := frame % n
	if idx < 0 {
		idx += n
	}
	return &r.cells[idx]
}
