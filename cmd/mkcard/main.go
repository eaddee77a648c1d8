// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mkcard builds combine datacards from YAML descriptions.
//
// Usage: mkcard [OPTIONS] card1.yaml [card2.yaml [...]]
//
// Example:
//
//	$> mkcard -o ./cards -blind ./haa_4l_2018.yaml ./haa_2l2t_2018.yaml
//	mkcard: haa_4l_2018.yaml: writing datacards to "cards/haa_4l"...
//	mkcard: haa_2l2t_2018.yaml: writing datacards to "cards/haa_2l2t"...
package main // import "github.com/go-lpc/haa/cmd/mkcard"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/haa/cardcfg"
	"github.com/go-lpc/haa/datacard"
	"golang.org/x/sync/errgroup"
)

const usage = `mkcard builds combine datacards from YAML descriptions.

Usage: mkcard [OPTIONS] card1.yaml [card2.yaml [...]]

Example:

 $> mkcard -o ./cards -blind ./haa_4l_2018.yaml ./haa_2l2t_2018.yaml

options:
`

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	log.SetPrefix("mkcard: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("mkcard", flag.ExitOnError)

		odir  = fset.String("o", ".", "path to output directory")
		blind = fset.Bool("blind", false, "replace observations by the sum of backgrounds")
		sig   = fset.String("add-signal", "", "signal process added to blind observations")
		ws    = fset.String("ws", "", "name of the workspace snapshot (none if empty)")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input card description")
	}

	var opts []datacard.WriteOption
	if *blind {
		opts = append(opts, datacard.WithBlind(*sig))
	}
	if *ws != "" {
		opts = append(opts, datacard.WithWorkspace(*ws))
	}

	err = run(*odir, fset.Args(), opts...)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// run processes every card description concurrently.
// Each description owns its own datacard.
func run(odir string, fnames []string, opts ...datacard.WriteOption) error {
	var grp errgroup.Group
	for i := range fnames {
		fname := fnames[i]
		grp.Go(func() error {
			err := process(odir, fname, opts...)
			if err != nil {
				return fmt.Errorf("could not process %q: %w", fname, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

func process(odir, fname string, opts ...datacard.WriteOption) error {
	msg := log.New(os.Stderr, "mkcard: "+filepath.Base(fname)+": ", 0)

	cfg, err := cardcfg.Load(fname)
	if err != nil {
		return err
	}

	card, err := cfg.Card(datacard.WithLogger(msg))
	if err != nil {
		return err
	}

	msg.Printf("writing datacards to %q...", filepath.Join(odir, cfg.Output.Name))
	err = cfg.Write(card, odir, opts...)
	if err != nil {
		return err
	}

	return nil
}
