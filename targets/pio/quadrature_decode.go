package pio

// quadratureDelta maps (previous AB << 2 | current AB) to a count step.
// Entries of 0 on a changed state are double transitions: a missed edge.
var quadratureDelta = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// QuadratureDecoder turns successive A/B pin samples into a signed count
type QuadratureDecoder struct {
	state  uint8
	count  int32
	missed uint32
}

// Reset sets the count to zero and adopts ab as the current pin state
func (d *QuadratureDecoder) Reset(ab uint8) {
	d.state = ab & 0x3
	d.count = 0
	d.missed = 0
}

// Update applies one pin sample (bit 0 = A, bit 1 = B)
func (d *QuadratureDecoder) Update(ab uint8) {
	ab &= 0x3
	if ab == d.state {
		return
	}
	idx := d.state<<2 | ab
	if delta := quadratureDelta[idx]; delta != 0 {
		d.count += int32(delta)
	} else {
		d.missed++
	}
	d.state = ab
}

// Count returns the accumulated count
func (d *QuadratureDecoder) Count() int32 {
	return d.count
}

// Missed returns how many samples skipped a state
func (d *QuadratureDecoder) Missed() uint32 {
	return d.missed
}
