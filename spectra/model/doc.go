// Package model resamples redshift-fit model spectra onto the band grids of
// observed spectra and stitches them like the data.
//
// For every target the rest-frame template is shifted to the fitted
// redshift, resampled onto each band grid with a flux-conserving kernel,
// blurred with that target's resolution matrix (raw models are
// unconvolved, observed flux is not) and finally stitched with the same
// midpoint rule as package merge, so model and data overlay sample for
// sample.
//
// Templates are paired with spectra rows by target id, not by position.
package model
