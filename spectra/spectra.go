package spectra

import (
	"fmt"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

// BandData holds every row of one band. Resolution and Mask are optional;
// when present they have one entry per row.
type BandData struct {
	Wave       []float64
	Flux       [][]float64
	Ivar       [][]float64
	Resolution [][][]float64 // [row][diag][sample]
	Mask       [][]uint32
}

// NumRows returns the number of rows in the band.
func (d *BandData) NumRows() int { return len(d.Flux) }

// NumDiags returns the number of resolution diagonals, or 0 without
// resolution data.
func (d *BandData) NumDiags() int {
	if len(d.Resolution) == 0 {
		return 0
	}
	return len(d.Resolution[0])
}

// Validate checks array shapes against the wavelength grid.
func (d *BandData) Validate() error {
	if err := band.Grid(d.Wave).Validate(); err != nil {
		return err
	}
	nwave := len(d.Wave)
	nrow := len(d.Flux)
	if len(d.Ivar) != nrow {
		return fmt.Errorf("%w: %d flux rows, %d ivar rows", ErrShapeMismatch, nrow, len(d.Ivar))
	}
	if d.Resolution != nil && len(d.Resolution) != nrow {
		return fmt.Errorf("%w: %d flux rows, %d resolution rows", ErrShapeMismatch, nrow, len(d.Resolution))
	}
	if d.Mask != nil && len(d.Mask) != nrow {
		return fmt.Errorf("%w: %d flux rows, %d mask rows", ErrShapeMismatch, nrow, len(d.Mask))
	}
	ndiag := d.NumDiags()
	for i := 0; i < nrow; i++ {
		if len(d.Flux[i]) != nwave || len(d.Ivar[i]) != nwave {
			return fmt.Errorf("%w: row %d has %d flux and %d ivar samples, grid has %d",
				ErrShapeMismatch, i, len(d.Flux[i]), len(d.Ivar[i]), nwave)
		}
		if err := ValidateIvar(d.Ivar[i]); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if d.Resolution != nil {
			if len(d.Resolution[i]) != ndiag {
				return fmt.Errorf("%w: row %d has %d diagonals, want %d", ErrShapeMismatch, i, len(d.Resolution[i]), ndiag)
			}
			for k, diag := range d.Resolution[i] {
				if len(diag) != nwave {
					return fmt.Errorf("%w: row %d diagonal %d has %d samples, grid has %d",
						ErrShapeMismatch, i, k, len(diag), nwave)
				}
			}
		}
		if d.Mask != nil && len(d.Mask[i]) != nwave {
			return fmt.Errorf("%w: row %d mask has %d samples, grid has %d", ErrShapeMismatch, i, len(d.Mask[i]), nwave)
		}
	}
	return nil
}

// Spectra is a set of rows observed in one or more bands. TargetIDs has
// one entry per row; several rows may share a target id.
type Spectra struct {
	TargetIDs []int64
	Bands     map[band.Band]*BandData
}

// NumRows returns the number of rows.
func (s *Spectra) NumRows() int { return len(s.TargetIDs) }

// BandList returns the bands present, blue to red.
func (s *Spectra) BandList() []band.Band {
	out := make([]band.Band, 0, len(s.Bands))
	for b := range s.Bands {
		out = append(out, b)
	}
	band.Sort(out)
	return out
}

// Index builds the target-to-row index.
func (s *Spectra) Index() *TargetIndex {
	return NewTargetIndex(s.TargetIDs)
}

// Grids returns the wavelength grid of every band.
func (s *Spectra) Grids() map[band.Band][]float64 {
	out := make(map[band.Band][]float64, len(s.Bands))
	for b, d := range s.Bands {
		out[b] = d.Wave
	}
	return out
}

// Validate checks every band against its grid and the row count.
func (s *Spectra) Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrMissingBand)
	}
	for _, b := range s.BandList() {
		if !b.Valid() {
			return fmt.Errorf("%w: %v", band.ErrUnknownBand, b)
		}
		d := s.Bands[b]
		if d == nil {
			return fmt.Errorf("%w: %v has no data", ErrMissingBand, b)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("band %v: %w", b, err)
		}
		if d.NumRows() != s.NumRows() {
			return fmt.Errorf("%w: band %v has %d rows, %d target ids",
				ErrShapeMismatch, b, d.NumRows(), s.NumRows())
		}
	}
	return nil
}

// Slice returns rows [start, start+n) as new Spectra. Wavelength grids are
// shared; per-row arrays are copied.
func (s *Spectra) Slice(start, n int) (*Spectra, error) {
	if start < 0 || n < 0 || start+n > s.NumRows() {
		return nil, fmt.Errorf("%w: rows [%d,%d) out of %d", ErrShapeMismatch, start, start+n, s.NumRows())
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: zero rows requested", ErrEmptySelection)
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = start + i
	}
	return s.SelectRows(rows)
}

// SelectRows returns the given rows, in the given order, as new Spectra.
func (s *Spectra) SelectRows(rows []int) (*Spectra, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: zero rows requested", ErrEmptySelection)
	}
	out := &Spectra{
		TargetIDs: make([]int64, len(rows)),
		Bands:     make(map[band.Band]*BandData, len(s.Bands)),
	}
	for i, r := range rows {
		if r < 0 || r >= s.NumRows() {
			return nil, fmt.Errorf("%w: row %d out of %d", ErrShapeMismatch, r, s.NumRows())
		}
		out.TargetIDs[i] = s.TargetIDs[r]
	}
	for b, d := range s.Bands {
		nd := &BandData{
			Wave: d.Wave,
			Flux: make([][]float64, len(rows)),
			Ivar: make([][]float64, len(rows)),
		}
		if d.Resolution != nil {
			nd.Resolution = make([][][]float64, len(rows))
		}
		if d.Mask != nil {
			nd.Mask = make([][]uint32, len(rows))
		}
		for i, r := range rows {
			nd.Flux[i] = CloneRow(d.Flux[r])
			nd.Ivar[i] = CloneRow(d.Ivar[r])
			if d.Resolution != nil {
				nd.Resolution[i] = CloneMatrix(d.Resolution[r])
			}
			if d.Mask != nil {
				nd.Mask[i] = append([]uint32(nil), d.Mask[r]...)
			}
		}
		out.Bands[b] = nd
	}
	return out, nil
}

// CloneRow returns a copy of x.
func CloneRow(x []float64) []float64 {
	if x == nil {
		return nil
	}
	out := make([]float64, len(x))
	copy(out, x)
	return out
}

// CloneMatrix returns a deep copy of m.
func CloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = CloneRow(row)
	}
	return out
}
