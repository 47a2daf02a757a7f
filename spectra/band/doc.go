// Package band enumerates the spectrograph bands (arms) and validates
// their wavelength grids.
//
// A band is a fixed wavelength coverage sampled on an ascending grid that
// is shared by every exposure and target of one instrument configuration.
// Bands are a closed set so that per-band tables are checked exhaustively
// instead of being looked up by free-form strings.
package band
