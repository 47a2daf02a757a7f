// Package specio reads and writes the JSON interchange documents of the
// speccoadd tool.
//
// An input Document carries target ids, per-band arrays and optional model
// templates. An output Product carries the merged spectra and everything
// derived from them. Paths ending in ".zst" are zstd-compressed
// transparently.
package specio
