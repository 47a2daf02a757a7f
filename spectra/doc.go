// Package spectra holds the data model shared by the coaddition packages:
// per-band flux, inverse-variance, resolution and mask arrays for a set of
// rows (exposures), the target-to-row index, and the error taxonomy.
//
// Arrays are row-major: Flux[row][sample]. Derived products are always
// freshly allocated; nothing in this module mutates its inputs.
//
// Sub-packages:
//   - band: band enumeration and wavelength grid validation
//   - coadd: inverse-variance coaddition of exposures within a band
//   - merge: midpoint stitching of bands onto one wavelength grid
//   - model: resampling and stitching of redshift-fit model curves
//   - resolution: band-diagonal resolution matrices
//   - noise: noise and signal-to-noise derived from inverse variance
//   - smooth: Gaussian smoothing and thumbnail decimation
//   - wavelength: air/vacuum conversion and redshifting
package spectra
