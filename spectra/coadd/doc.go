// Package coadd combines several exposures of the same target in the same
// band into one inverse-variance weighted spectrum.
//
// For every wavelength sample the coadded flux is
//
//	flux = Σ f_i·v_i / Σ v_i
//
// and the coadded inverse variance is Σ v_i, which is exact for
// independent per-exposure noise. Samples where every exposure has zero
// weight fall back to the plain mean of the exposure fluxes and keep a zero
// weight, so they stay finite but carry no information.
//
// The resolution kernel is approximated by the inverse-variance weighted
// average of the per-exposure kernels. This is not the exact combined
// line-spread function; it is adequate for overlaying model curves.
//
// Masks are combined with a bitwise OR: a flag raised by any exposure is
// kept.
//
// Common workflows:
//   - Coadd(wave, exposures) for one target and one band
//   - Targets(ctx, spectra, opts...) for every target of a Spectra set
package coadd
