// Package merge stitches the spectra of several bands onto one wavelength
// grid.
//
// Adjacent bands overlap at their edges but do not share a sampling, so
// they are not coadded jointly. Instead each pair of spectrally adjacent
// bands is split at the midpoint between the last sample of the bluer band
// and the first sample of the redder band:
//
//	bluest band:  w <  s1
//	middle band:  s1 <= w < s2
//	reddest band: s2 <= w
//
// The retained slices are concatenated without interpolation or
// re-weighting, so every output sample is an input sample and no
// correlated errors are introduced at the boundary.
//
// A Plan captures the split for one instrument configuration and can be
// applied to any number of rows. Cache memoizes plans by grid fingerprint.
package merge
