// Package wavelength converts air wavelengths to vacuum and shifts
// rest-frame wavelengths to the observed frame.
//
// All wavelengths are in Angstrom.
package wavelength

// airVacCutoff is the wavelength below which air and vacuum are treated as
// identical.
const airVacCutoff = 2000.0

// AirToVac converts an air wavelength to vacuum using two fixed-point
// iterations of the standard refraction formula. Wavelengths below 2000 Å
// are returned unchanged.
func AirToVac(w float64) float64 {
	if w < airVacCutoff {
		return w
	}
	vac := w
	for iter := 0; iter < 2; iter++ {
		sigma2 := (1e4 / vac) * (1e4 / vac)
		fact := 1 + 5.792105e-2/(238.0185-sigma2) + 1.67917e-3/(57.362-sigma2)
		vac = w * fact
	}
	return vac
}

// AirToVacSlice converts every element of air.
func AirToVacSlice(air []float64) []float64 {
	out := make([]float64, len(air))
	for i, w := range air {
		out[i] = AirToVac(w)
	}
	return out
}

// Redshift returns rest-frame wavelengths observed at redshift z:
// rest·(1+z).
func Redshift(rest []float64, z float64) []float64 {
	out := make([]float64, len(rest))
	s := 1 + z
	for i, w := range rest {
		out[i] = w * s
	}
	return out
}
