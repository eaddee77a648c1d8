// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cardcfg

import (
	"fmt"
	"path/filepath"

	"github.com/go-lpc/haa/datacard"
	"github.com/go-lpc/haa/shapefile"
	"go-hep.org/x/hep/hbook"
)

// loader loads histograms from ROOT files, keeping each file open
// until close is called.
type loader struct {
	dir   string
	files map[string]*shapefile.Reader
}

func newLoader(dir string) *loader {
	return &loader{dir: dir, files: make(map[string]*shapefile.Reader)}
}

func (ld *loader) close() {
	for _, f := range ld.files {
		_ = f.Close()
	}
}

func (ld *loader) hist(ref string) (*hbook.H1D, *hbook.H2D, error) {
	r, err := shapefile.ParseRef(ref)
	if err != nil {
		return nil, nil, err
	}
	fname := r.File
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(ld.dir, fname)
	}
	f, ok := ld.files[fname]
	if !ok {
		f, err = shapefile.Open(fname)
		if err != nil {
			return nil, nil, err
		}
		ld.files[fname] = f
	}
	return f.Hist(r.Path)
}

func (ld *loader) value(ref string) (datacard.Value, error) {
	h1, h2, err := ld.hist(ref)
	if err != nil {
		return datacard.Value{}, err
	}
	if h2 != nil {
		return datacard.Hist2D(h2), nil
	}
	return datacard.Hist1D(h1), nil
}

func (ld *loader) yield(y Yield, expected bool) (datacard.Value, error) {
	switch {
	case y.Rate != nil:
		return datacard.Scalar(*y.Rate), nil
	case y.Hist != "":
		return ld.value(y.Hist)
	case y.Ref != "" && expected:
		return datacard.WorkspaceRef(y.Ref), nil
	case y.Ref != "":
		return datacard.Value{}, fmt.Errorf("cardcfg: ref %q not allowed for observed data (use rate or hist)", y.Ref)
	}
	if !expected {
		return datacard.Value{}, fmt.Errorf("cardcfg: no rate or hist")
	}
	return datacard.Value{}, fmt.Errorf("cardcfg: no rate, hist or ref")
}

func (ld *loader) effect(sv SystValue) (datacard.Value, error) {
	switch {
	case sv.Value != nil:
		return datacard.Scalar(*sv.Value), nil

	case sv.Lo != nil && sv.Hi != nil:
		return datacard.Asym(*sv.Lo, *sv.Hi), nil

	case sv.Hist != "":
		return ld.value(sv.Hist)

	case sv.Up != "" && sv.Down != "":
		up, err := ld.value(sv.Up)
		if err != nil {
			return datacard.Value{}, err
		}
		down, err := ld.value(sv.Down)
		if err != nil {
			return datacard.Value{}, err
		}
		return datacard.AsymHist1D(up.Hist(), down.Hist()), nil
	}
	return datacard.Value{}, fmt.Errorf("cardcfg: no value, lo/hi, hist or up/down")
}
