// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hist provides helpers to manipulate hbook histograms the way
// datacard shapes need them: ROOT-like integrals, 2D unwrapping, bin-wise
// sums and Poisson-counted pseudo-data.
package hist // import "github.com/go-lpc/haa/internal/hist"

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

// Integral returns the sum of weights of the in-range bins of h.
// Under- and overflows are not included, as for ROOT's TH1::Integral().
func Integral(h *hbook.H1D) float64 {
	sum := 0.0
	for i := range h.Binning.Bins {
		sum += h.Binning.Bins[i].SumW()
	}
	return sum
}

// Content returns the sum of weights of the i-th in-range bin.
func Content(h *hbook.H1D, i int) float64 {
	return h.Binning.Bins[i].SumW()
}

// Error returns the statistical error of the i-th in-range bin.
func Error(h *hbook.H1D, i int) float64 {
	return math.Sqrt(h.Binning.Bins[i].SumW2())
}

// Name returns the name annotation of h.
func Name(h *hbook.H1D) string {
	if h.Ann == nil {
		return ""
	}
	v, _ := h.Ann["name"].(string)
	return v
}

// Clone returns a deep copy of h, named name.
func Clone(h *hbook.H1D, name string) *hbook.H1D {
	o := &hbook.H1D{
		Binning: h.Binning,
		Ann:     make(hbook.Annotation, len(h.Ann)+1),
	}
	o.Binning.Bins = append([]hbook.Bin1D(nil), h.Binning.Bins...)
	for k, v := range h.Ann {
		o.Ann[k] = v
	}
	o.Ann["name"] = name
	return o
}

func setBin(b *hbook.Bin1D, sumw, sumw2 float64, n int64) {
	x := 0.5 * (b.XMin() + b.XMax())
	b.Dist.Dist.N = n
	b.Dist.Dist.SumW = sumw
	b.Dist.Dist.SumW2 = sumw2
	b.Dist.Stats.SumWX = sumw * x
	b.Dist.Stats.SumWX2 = sumw * x * x
}

// resync recomputes the global distribution of h from its bins.
func resync(h *hbook.H1D) {
	var d hbook.Dist1D
	for i := range h.Binning.Bins {
		addDist(&d, &h.Binning.Bins[i].Dist)
	}
	for i := range h.Binning.Outflows {
		addDist(&d, &h.Binning.Outflows[i])
	}
	h.Binning.Dist = d
}

func addDist(dst, src *hbook.Dist1D) {
	dst.Dist.N += src.Dist.N
	dst.Dist.SumW += src.Dist.SumW
	dst.Dist.SumW2 += src.Dist.SumW2
	dst.Stats.SumWX += src.Stats.SumWX
	dst.Stats.SumWX2 += src.Stats.SumWX2
}

// Unwrap flattens the 2D histogram h into a 1D histogram with nx*ny
// unit-width bins. The content of the 2D bin (ix,iy) (0-based, in-range)
// is stored at the 1D bin index ix*ny+iy.
//
// The 2D outflows are not carried over: hbook aggregates them per
// region, not per row or column.
func Unwrap(h *hbook.H2D) *hbook.H1D {
	var (
		xs = lowEdges(h.Binning.Bins, func(b hbook.Bin2D) float64 { return b.XRange.Min })
		ys = lowEdges(h.Binning.Bins, func(b hbook.Bin2D) float64 { return b.YRange.Min })
		nx = len(xs)
		ny = len(ys)
		n  = nx * ny
	)

	o := hbook.NewH1D(n, 0, float64(n))
	if o.Ann == nil {
		o.Ann = make(hbook.Annotation)
	}
	if name, ok := h.Ann["name"]; ok {
		o.Ann["name"] = name
	}
	for _, b := range h.Binning.Bins {
		var (
			ix = sort.SearchFloat64s(xs, b.XRange.Min)
			iy = sort.SearchFloat64s(ys, b.YRange.Min)
		)
		setBin(&o.Binning.Bins[ix*ny+iy], b.SumW(), b.SumW2(), b.Entries())
	}
	resync(o)
	return o
}

func lowEdges(bins []hbook.Bin2D, edge func(b hbook.Bin2D) float64) []float64 {
	set := make(map[float64]struct{})
	for _, b := range bins {
		set[edge(b)] = struct{}{}
	}
	o := make([]float64, 0, len(set))
	for v := range set {
		o = append(o, v)
	}
	sort.Float64s(o)
	return o
}

// Sum returns the bin-wise sum of all the provided histograms, which
// must share the same binning. The inputs are not modified.
func Sum(name string, hs ...*hbook.H1D) (*hbook.H1D, error) {
	if len(hs) == 0 {
		return nil, fmt.Errorf("hist: no histogram to sum")
	}
	o := Clone(hs[0], name)
	for _, h := range hs[1:] {
		err := compatible(o, h)
		if err != nil {
			return nil, err
		}
		for i := range o.Binning.Bins {
			addDist(&o.Binning.Bins[i].Dist, &h.Binning.Bins[i].Dist)
		}
		for i := range o.Binning.Outflows {
			addDist(&o.Binning.Outflows[i], &h.Binning.Outflows[i])
		}
	}
	resync(o)
	return o, nil
}

func compatible(a, b *hbook.H1D) error {
	if na, nb := len(a.Binning.Bins), len(b.Binning.Bins); na != nb {
		return fmt.Errorf("hist: bin count mismatch (%d != %d)", na, nb)
	}
	for i := range a.Binning.Bins {
		var (
			ba = &a.Binning.Bins[i]
			bb = &b.Binning.Bins[i]
		)
		if ba.XMin() != bb.XMin() || ba.XMax() != bb.XMax() {
			return fmt.Errorf("hist: bin %d edges mismatch ([%v, %v] != [%v, %v])",
				i, ba.XMin(), ba.XMax(), bb.XMin(), bb.XMax(),
			)
		}
	}
	return nil
}

// Poisson turns h into counted data, in place: each bin content is
// truncated to an integer count n, with an error of sqrt(n).
func Poisson(h *hbook.H1D) {
	for i := range h.Binning.Bins {
		b := &h.Binning.Bins[i]
		n := count(b.SumW())
		setBin(b, n, n, int64(n))
	}
	for i := range h.Binning.Outflows {
		d := &h.Binning.Outflows[i]
		n := count(d.Dist.SumW)
		if d.Dist.SumW != 0 {
			f := n / d.Dist.SumW
			d.Stats.SumWX *= f
			d.Stats.SumWX2 *= f
		}
		d.Dist.N = int64(n)
		d.Dist.SumW = n
		d.Dist.SumW2 = n
	}
	resync(h)
}

func count(sumw float64) float64 {
	n := math.Trunc(sumw)
	if n < 0 {
		return 0
	}
	return n
}

// Mirror returns the down variation that is the mirror image of up
// around nominal, bin per bin. Negative contents are clamped at zero.
func Mirror(name string, nominal, up *hbook.H1D) (*hbook.H1D, error) {
	err := compatible(nominal, up)
	if err != nil {
		return nil, err
	}
	o := Clone(up, name)
	for i := range o.Binning.Bins {
		b := &o.Binning.Bins[i]
		v := 2*nominal.Binning.Bins[i].SumW() - up.Binning.Bins[i].SumW()
		if v < 0 {
			v = 0
		}
		setBin(b, v, up.Binning.Bins[i].SumW2(), up.Binning.Bins[i].Entries())
	}
	resync(o)
	return o, nil
}
