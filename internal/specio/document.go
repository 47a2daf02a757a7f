package specio

import (
	"fmt"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/model"
)

// Document is the input interchange format.
type Document struct {
	TargetIDs []int64                 `json:"target_ids"`
	Bands     map[string]BandDocument `json:"bands"`
	Templates []TemplateDocument      `json:"templates,omitempty"`
}

// BandDocument holds the arrays of one band.
type BandDocument struct {
	Wave       []float64     `json:"wave"`
	Flux       [][]float64   `json:"flux"`
	Ivar       [][]float64   `json:"ivar"`
	Resolution [][][]float64 `json:"resolution,omitempty"`
	Mask       [][]uint32    `json:"mask,omitempty"`
}

// TemplateDocument is a rest-frame model for one target.
type TemplateDocument struct {
	TargetID int64     `json:"target_id"`
	Z        float64   `json:"z"`
	Wave     []float64 `json:"wave"`
	Flux     []float64 `json:"flux"`
}

// Spectra converts the document and validates the result.
func (d *Document) Spectra() (*spectra.Spectra, error) {
	if len(d.Bands) == 0 {
		return nil, fmt.Errorf("%w: no bands", ErrDecode)
	}
	s := &spectra.Spectra{
		TargetIDs: d.TargetIDs,
		Bands:     make(map[band.Band]*spectra.BandData, len(d.Bands)),
	}
	for name, bd := range d.Bands {
		b, err := band.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if _, dup := s.Bands[b]; dup {
			return nil, fmt.Errorf("%w: band %v given twice", ErrDecode, b)
		}
		s.Bands[b] = &spectra.BandData{
			Wave:       bd.Wave,
			Flux:       bd.Flux,
			Ivar:       bd.Ivar,
			Resolution: bd.Resolution,
			Mask:       bd.Mask,
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ModelTemplates converts the templates of the document.
func (d *Document) ModelTemplates() []model.Template {
	if len(d.Templates) == 0 {
		return nil
	}
	out := make([]model.Template, len(d.Templates))
	for i, t := range d.Templates {
		out[i] = model.Template{TargetID: t.TargetID, Wave: t.Wave, Flux: t.Flux, Z: t.Z}
	}
	return out
}

// FromSpectra builds a document from s and optional templates. Arrays are
// shared, not copied.
func FromSpectra(s *spectra.Spectra, templates []model.Template) *Document {
	d := &Document{
		TargetIDs: s.TargetIDs,
		Bands:     make(map[string]BandDocument, len(s.Bands)),
	}
	for b, bd := range s.Bands {
		d.Bands[b.String()] = BandDocument{
			Wave:       bd.Wave,
			Flux:       bd.Flux,
			Ivar:       bd.Ivar,
			Resolution: bd.Resolution,
			Mask:       bd.Mask,
		}
	}
	for _, t := range templates {
		d.Templates = append(d.Templates, TemplateDocument{
			TargetID: t.TargetID, Z: t.Z, Wave: t.Wave, Flux: t.Flux,
		})
	}
	return d
}

// Product is the output interchange format.
type Product struct {
	Wave       []float64   `json:"wave"`
	TargetIDs  []int64     `json:"target_ids"`
	Flux       [][]float64 `json:"flux"`
	Ivar       [][]float64 `json:"ivar"`
	Sigma      [][]float64 `json:"sigma"`
	Mask       [][]uint32  `json:"mask,omitempty"`
	Model      [][]float64 `json:"model,omitempty"`
	Thumbnails []Thumbnail `json:"thumbnails,omitempty"`
}

// Thumbnail is a smoothed, decimated rendition of one merged row.
type Thumbnail struct {
	TargetID int64     `json:"target_id"`
	Wave     []float64 `json:"wave"`
	Flux     []float64 `json:"flux"`
}
