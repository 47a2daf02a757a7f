package coadd

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spectra/spectra"
)

// Exposures holds nspec measurements of one target in one band. Resolution
// ([nspec][ndiag][nwave]) and Mask ([nspec][nwave]) are optional.
type Exposures struct {
	Flux       [][]float64
	Ivar       [][]float64
	Resolution [][][]float64
	Mask       [][]uint32
}

// Result is the coadded spectrum. Wave is the input grid; every other
// field is freshly allocated. Resolution and Mask are nil when the input
// had none.
type Result struct {
	Wave       []float64
	Flux       []float64
	Ivar       []float64
	Resolution [][]float64
	Mask       []uint32

	// ZeroWeight counts samples where every exposure had zero ivar.
	ZeroWeight int
}

// Coadd combines the exposures in in, all sampled on wave.
func Coadd(wave []float64, in Exposures) (Result, error) {
	ndiag, err := validate(len(wave), in)
	if err != nil {
		return Result{}, err
	}

	if len(in.Flux) == 1 {
		return passThrough(wave, in), nil
	}

	nspec := len(in.Flux)
	nwave := len(wave)

	weighted := make([]float64, nwave)
	weights := make([]float64, nwave)
	unweighted := make([]float64, nwave)
	divisor := make([]float64, nwave)

	var outRes [][]float64
	if in.Resolution != nil {
		outRes = make([][]float64, ndiag)
		for k := range outRes {
			outRes[k] = make([]float64, nwave)
		}
	}

	for i := 0; i < nspec; i++ {
		vecmath.MulAddBlock(weighted, in.Flux[i], in.Ivar[i], weighted)
		vecmath.AddBlockInPlace(weights, in.Ivar[i])
		vecmath.AddBlockInPlace(unweighted, in.Flux[i])
		for k := range outRes {
			vecmath.MulAddBlock(outRes[k], in.Resolution[i][k], in.Ivar[i], outRes[k])
		}
	}

	res := Result{
		Wave:       wave,
		Flux:       make([]float64, nwave),
		Ivar:       weights,
		Resolution: outRes,
	}

	// divisor holds 1/weight, or 1 where the weight is zero.
	for j, w := range weights {
		if w > 0 {
			res.Flux[j] = weighted[j] / w
			divisor[j] = 1 / w
		} else {
			res.Flux[j] = unweighted[j] / float64(nspec)
			divisor[j] = 1
			res.ZeroWeight++
		}
	}
	for k := range outRes {
		vecmath.MulBlockInPlace(outRes[k], divisor)
	}

	if in.Mask != nil {
		res.Mask = orMasks(in.Mask, nwave)
	}

	return res, nil
}

func passThrough(wave []float64, in Exposures) Result {
	res := Result{
		Wave: wave,
		Flux: spectra.CloneRow(in.Flux[0]),
		Ivar: spectra.CloneRow(in.Ivar[0]),
	}
	if in.Resolution != nil {
		res.Resolution = spectra.CloneMatrix(in.Resolution[0])
	}
	if in.Mask != nil {
		res.Mask = append([]uint32(nil), in.Mask[0]...)
	}
	for _, v := range res.Ivar {
		if v == 0 {
			res.ZeroWeight++
		}
	}
	return res
}

func validate(nwave int, in Exposures) (int, error) {
	nspec := len(in.Flux)
	if nspec == 0 {
		return 0, fmt.Errorf("%w: no exposures", spectra.ErrEmptySelection)
	}
	if len(in.Ivar) != nspec {
		return 0, fmt.Errorf("%w: %d flux rows, %d ivar rows", spectra.ErrShapeMismatch, nspec, len(in.Ivar))
	}
	if in.Resolution != nil && len(in.Resolution) != nspec {
		return 0, fmt.Errorf("%w: %d flux rows, %d resolution rows", spectra.ErrShapeMismatch, nspec, len(in.Resolution))
	}
	if in.Mask != nil && len(in.Mask) != nspec {
		return 0, fmt.Errorf("%w: %d flux rows, %d mask rows", spectra.ErrShapeMismatch, nspec, len(in.Mask))
	}

	ndiag := 0
	if in.Resolution != nil {
		ndiag = len(in.Resolution[0])
	}
	for i := 0; i < nspec; i++ {
		if len(in.Flux[i]) != nwave {
			return 0, fmt.Errorf("%w: exposure %d flux has %d samples, want %d", spectra.ErrShapeMismatch, i, len(in.Flux[i]), nwave)
		}
		if len(in.Ivar[i]) != nwave {
			return 0, fmt.Errorf("%w: exposure %d ivar has %d samples, want %d", spectra.ErrShapeMismatch, i, len(in.Ivar[i]), nwave)
		}
		if err := spectra.ValidateIvar(in.Ivar[i]); err != nil {
			return 0, fmt.Errorf("exposure %d: %w", i, err)
		}
		if in.Resolution != nil {
			if len(in.Resolution[i]) != ndiag {
				return 0, fmt.Errorf("%w: exposure %d has %d diagonals, want %d", spectra.ErrShapeMismatch, i, len(in.Resolution[i]), ndiag)
			}
			for k, d := range in.Resolution[i] {
				if len(d) != nwave {
					return 0, fmt.Errorf("%w: exposure %d diagonal %d has %d samples, want %d", spectra.ErrShapeMismatch, i, k, len(d), nwave)
				}
			}
		}
		if in.Mask != nil && len(in.Mask[i]) != nwave {
			return 0, fmt.Errorf("%w: exposure %d mask has %d samples, want %d", spectra.ErrShapeMismatch, i, len(in.Mask[i]), nwave)
		}
	}
	return ndiag, nil
}

func orMasks(masks [][]uint32, nwave int) []uint32 {
	out := make([]uint32, nwave)
	for _, m := range masks {
		for j, v := range m {
			out[j] |= v
		}
	}
	return out
}
