// Package smooth provides Gaussian smoothing of spectra and decimated
// thumbnails for compact display.
//
// Gaussian uses a kernel truncated at four standard deviations and extends
// the signal at both ends with its nearest sample, so output and input have
// the same length and the edges are not pulled towards zero. Short kernels
// are applied directly; long kernels go through an FFT.
package smooth
