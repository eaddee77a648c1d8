// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"fmt"
	"strings"

	"github.com/go-lpc/haa/internal/hist"
	"go-hep.org/x/hep/hbook"
)

// Kind describes the payload of a Value.
type Kind uint8

const (
	KindNone       Kind = iota // absent value
	KindScalar                 // a number
	KindShape                  // a 1D histogram
	KindRef                    // a reference to a workspace object
	KindAsymScalar             // a lo/hi pair of numbers
	KindAsymShape              // an up/down pair of 1D histograms
	KindParams                 // verbatim param tokens
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindScalar:
		return "scalar"
	case KindShape:
		return "shape"
	case KindRef:
		return "ref"
	case KindAsymScalar:
		return "asym-scalar"
	case KindAsymShape:
		return "asym-shape"
	case KindParams:
		return "params"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value holds a yield, an observation or a systematic effect.
// The zero Value is the absent value.
type Value struct {
	kind   Kind
	lo, hi float64
	h1, h2 *hbook.H1D
	ref    string
	params []string
}

// Scalar returns a numeric value.
func Scalar(v float64) Value { return Value{kind: KindScalar, lo: v} }

// Asym returns an asymmetric numeric value, rendered as "lo/hi".
func Asym(lo, hi float64) Value { return Value{kind: KindAsymScalar, lo: lo, hi: hi} }

// Hist1D returns a shape value. A nil histogram yields the absent value.
func Hist1D(h *hbook.H1D) Value {
	if h == nil {
		return Value{}
	}
	return Value{kind: KindShape, h1: h}
}

// Hist2D returns a shape value, unwrapping h into a 1D histogram.
func Hist2D(h *hbook.H2D) Value {
	if h == nil {
		return Value{}
	}
	return Hist1D(hist.Unwrap(h))
}

// AsymHist1D returns an up/down pair of shapes.
func AsymHist1D(up, down *hbook.H1D) Value {
	if up == nil || down == nil {
		return Value{}
	}
	return Value{kind: KindAsymShape, h1: up, h2: down}
}

// AsymHist2D returns an up/down pair of shapes, unwrapping both
// histograms into 1D ones.
func AsymHist2D(up, down *hbook.H2D) Value {
	if up == nil || down == nil {
		return Value{}
	}
	return AsymHist1D(hist.Unwrap(up), hist.Unwrap(down))
}

// WorkspaceRef returns a reference to an object (e.g. a PDF) already
// stored in a workspace.
func WorkspaceRef(name string) Value { return Value{kind: KindRef, ref: name} }

// Params returns a list of tokens, written verbatim on param lines.
func Params(toks ...string) Value {
	return Value{kind: KindParams, params: append([]string(nil), toks...)}
}

func (v Value) Kind() Kind { return v.kind }

// Float returns the number held by a scalar value.
func (v Value) Float() float64 { return v.lo }

// Bounds returns the lo/hi pair of an asymmetric scalar value.
func (v Value) Bounds() (lo, hi float64) { return v.lo, v.hi }

// Hist returns the histogram held by a shape value.
func (v Value) Hist() *hbook.H1D { return v.h1 }

// UpDown returns the histograms held by an asymmetric shape value.
func (v Value) UpDown() (up, down *hbook.H1D) { return v.h1, v.h2 }

// Ref returns the workspace object name held by a reference value.
func (v Value) Ref() string { return v.ref }

// Tokens returns the tokens held by a params value.
func (v Value) Tokens() []string { return v.params }

// IsZero reports whether v is absent, a zero scalar or an empty shape.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindNone:
		return true
	case KindScalar:
		return v.lo == 0
	case KindShape:
		return hist.Integral(v.h1) == 0
	}
	return false
}

// Yield returns the rate carried by v: the number for scalars, the
// integral for shapes, and 1 for workspace references.
func (v Value) Yield() (float64, error) {
	switch v.kind {
	case KindNone:
		return 0, nil
	case KindScalar:
		return v.lo, nil
	case KindShape:
		return hist.Integral(v.h1), nil
	case KindRef:
		return 1, nil
	}
	return 0, fmt.Errorf("datacard: no yield for %v value: %w", v.kind, ErrType)
}

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "<none>"
	case KindScalar:
		return format(v.lo)
	case KindAsymScalar:
		return format(v.lo) + "/" + format(v.hi)
	case KindShape:
		return "hist(" + hist.Name(v.h1) + ")"
	case KindAsymShape:
		return "hist(" + hist.Name(v.h1) + "," + hist.Name(v.h2) + ")"
	case KindRef:
		return "ref(" + v.ref + ")"
	case KindParams:
		return strings.Join(v.params, " ")
	}
	return v.kind.String()
}
