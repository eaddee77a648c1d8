// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"fmt"

	"github.com/go-lpc/haa/internal/hist"
	"go-hep.org/x/hep/hbook"
)

// SetExpected sets the expected yield of process in bin.
// The value may be a scalar, a shape or a workspace reference.
// The All wildcard sets the yield for every registered process (or bin).
func (c *Card) SetExpected(process, bin string, v Value) error {
	err := c.check([]string{process}, []string{bin})
	if err != nil {
		return c.warn(fmt.Errorf("datacard: could not set expected yield: %w", err))
	}
	switch v.kind {
	case KindNone, KindScalar, KindShape, KindRef:
	default:
		return c.warn(fmt.Errorf(
			"datacard: could not set expected yield for (%s, %s) from %v value: %w",
			process, bin, v.kind, ErrType,
		))
	}

	for _, p := range expand([]string{process}, c.Processes()) {
		for _, b := range expand([]string{bin}, c.bins) {
			c.exp[key{p, b}] = v
		}
	}
	return nil
}

// Expected returns the expected yield of process in bin,
// or a zero scalar if none was set.
func (c *Card) Expected(process, bin string) Value {
	v, ok := c.exp[key{process, bin}]
	if !ok || v.kind == KindNone {
		return Scalar(0)
	}
	return v
}

// SetObserved sets the observed data in bin, as a count or a shape.
func (c *Card) SetObserved(bin string, v Value) error {
	err := c.check(nil, []string{bin})
	if err != nil {
		return c.warn(fmt.Errorf("datacard: could not set observation: %w", err))
	}
	switch v.kind {
	case KindNone, KindScalar, KindShape:
	default:
		return c.warn(fmt.Errorf(
			"datacard: could not set observation for %s from %v value: %w",
			bin, v.kind, ErrType,
		))
	}
	for _, b := range expand([]string{bin}, c.bins) {
		c.obs[b] = v
	}
	return nil
}

// Observed returns the observed data in bin.
//
// When blind is set, the stored observation is ignored and the sum of
// all the background expectations in bin is returned instead, plus the
// expectation of the addSignal process when not empty.
// A summed shape is turned into counted data: each bin content is
// truncated to an integer n, with an error of sqrt(n).
func (c *Card) Observed(bin string, blind bool, addSignal string) (Value, error) {
	if !blind {
		v, ok := c.obs[bin]
		if !ok || v.kind == KindNone {
			return Scalar(0), nil
		}
		return v, nil
	}

	procs := c.Backgrounds()
	if addSignal != "" {
		if !c.IsSignal(addSignal) {
			c.msg.Printf("datacard: signal %q not registered, not added to blind observation", addSignal)
		} else {
			procs = append(procs, addSignal)
		}
	}

	var (
		sum float64
		hs  []*hbook.H1D
	)
	for _, p := range procs {
		v := c.Expected(p, bin)
		switch v.kind {
		case KindScalar:
			if v.lo == 0 {
				continue
			}
			if len(hs) > 0 {
				return Value{}, c.mixed(bin, p)
			}
			sum += v.lo
		case KindShape:
			if sum != 0 {
				return Value{}, c.mixed(bin, p)
			}
			hs = append(hs, v.h1)
		default:
			return Value{}, c.warn(fmt.Errorf(
				"datacard: could not sum %v expectation of %q in bin %q: %w",
				v.kind, p, bin, ErrType,
			))
		}
	}

	if len(hs) == 0 {
		return Scalar(sum), nil
	}

	h, err := hist.Sum("data_obs_"+bin, hs...)
	if err != nil {
		return Value{}, c.warn(fmt.Errorf("datacard: could not sum expectations in bin %q: %w", bin, err))
	}
	hist.Poisson(h)
	return Hist1D(h), nil
}

func (c *Card) mixed(bin, proc string) error {
	return c.warn(fmt.Errorf(
		"datacard: could not sum expectations in bin %q: %q mixes counts and shapes: %w",
		bin, proc, ErrType,
	))
}
