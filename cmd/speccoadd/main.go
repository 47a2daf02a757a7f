// Command speccoadd coadds multi-exposure, multi-band spectra.
//
// Usage:
//
//	speccoadd [global flags] <command> [flags] [args]
//
// Commands:
//
//	run    coadd exposures, merge bands and write a product document
//	info   print per-row statistics of an input document
//	bands  print the band table
//
// Examples:
//
//	speccoadd run -o coadd.json.zst frames.json
//	speccoadd run --targets 39627 --thumb-factor 15 frames.json.zst
//	speccoadd --config speccoadd.yaml run -o out.json frames.json
//	speccoadd info frames.json
//	speccoadd bands
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
