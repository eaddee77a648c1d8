// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// card-dump displays the content of datacard shape files.
//
// Usage: card-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> card-dump ./cards/haa_4l.root
//	=== ./cards/haa_4l.root ===
//	data_obs_SR          TH1D  nbins=20  integral=12
//	haa_SR               TH1D  nbins=20  integral=1.5
//	haa_SR_lumiUp        TH1D  nbins=20  integral=1.53
//	[...]
package main // import "github.com/go-lpc/haa/cmd/card-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/haa/internal/hist"
	"github.com/go-lpc/haa/shapefile"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook/rootcnv"
)

func main() {
	log.SetPrefix("card-dump: ")
	log.SetFlags(0)

	var (
		bins = flag.Bool("bins", false, "display bin contents")
	)

	flag.Usage = func() {
		fmt.Printf(`card-dump displays the content of datacard shape files.

Usage: card-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> card-dump ./cards/haa_4l.root
 === ./cards/haa_4l.root ===
 data_obs_SR          TH1D  nbins=20  integral=12
 haa_SR               TH1D  nbins=20  integral=1.5
 haa_SR_lumiUp        TH1D  nbins=20  integral=1.53
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input shape file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *bins)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, bins bool) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := shapefile.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	fmt.Fprintf(wbuf, "=== %s ===\n", fname)
	err = f.Walk(func(path string, obj root.Object) error {
		switch o := obj.(type) {
		case rhist.H2:
			h := hist.Unwrap(rootcnv.H2D(o))
			fmt.Fprintf(wbuf, "%-20s %-5s nbins=%-3d integral=%g\n",
				path, obj.Class(), h.Len(), hist.Integral(h),
			)
		case rhist.H1:
			h := rootcnv.H1D(o)
			fmt.Fprintf(wbuf, "%-20s %-5s nbins=%-3d integral=%g\n",
				path, obj.Class(), h.Len(), hist.Integral(h),
			)
			if !bins {
				return nil
			}
			for i := 0; i < h.Len(); i++ {
				fmt.Fprintf(wbuf, "  bin=%-3d content=%g error=%g\n",
					i, hist.Content(h, i), hist.Error(h, i),
				)
			}
		default:
			fmt.Fprintf(wbuf, "%-20s %-5s\n", path, obj.Class())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not walk %q: %w", fname, err)
	}

	return nil
}
