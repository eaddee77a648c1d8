// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the kind of a systematic uncertainty, as written in the datacard.
type Mode string

const (
	LnN       Mode = "lnN"
	Shape     Mode = "shape"
	Param     Mode = "param"
	FlatParam Mode = "flatParam"
)

// GmN returns the gamma-distributed mode for a control region with n events.
func GmN(n int) Mode { return Mode("gmN " + strconv.Itoa(n)) }

// ParseMode parses the textual form of a mode ("lnN", "gmN 10", ...).
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	switch Mode(s) {
	case LnN, Shape, Param, FlatParam:
		return Mode(s), nil
	}
	if strings.HasPrefix(s, "gmN") {
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, "gmN")))
		if err != nil || n < 0 {
			return "", fmt.Errorf("datacard: invalid gmN mode %q", s)
		}
		return GmN(n), nil
	}
	return "", fmt.Errorf("datacard: invalid systematic mode %q", s)
}

func (m Mode) isParam() bool { return m == Param || m == FlatParam }
func (m Mode) isGmN() bool   { return strings.HasPrefix(string(m), "gmN") }

// Correlation tells how a systematic is split into datacard rows.
type Correlation uint8

const (
	Correlated       Correlation = iota // one row
	PerProcess                          // one row per process
	PerBin                              // one row per bin
	PerProcessAndBin                    // one row per (process, bin)
)

// ParseCorrelation parses "correlated", "process", "bin" or "process-bin".
// The empty string means Correlated.
func ParseCorrelation(s string) (Correlation, error) {
	switch s {
	case "", "correlated":
		return Correlated, nil
	case "process":
		return PerProcess, nil
	case "bin":
		return PerBin, nil
	case "process-bin":
		return PerProcessAndBin, nil
	}
	return Correlated, fmt.Errorf("datacard: invalid correlation %q", s)
}

// RowName returns the name of the datacard row holding the effect of
// the systematic name on process in bin.
func RowName(name string, corr Correlation, process, bin string) string {
	switch corr {
	case PerProcess:
		return name + "_" + process
	case PerBin:
		return name + "_" + bin
	case PerProcessAndBin:
		return name + "_" + process + "_" + bin
	}
	return name
}

// Entry sets the effect of a systematic on a set of processes and bins.
// An empty list, or a list holding All, matches everything.
type Entry struct {
	Processes []string
	Bins      []string
	Value     Value
}

func (e Entry) match(process, bin string) bool {
	return (len(e.Processes) == 0 || contains(e.Processes, process)) &&
		(len(e.Bins) == 0 || contains(e.Bins, bin))
}

// Systematic describes a systematic uncertainty.
type Systematic struct {
	Name    string
	Mode    Mode
	Corr    Correlation
	Entries []Entry
	Params  []string // tokens of param and flatParam modes
}

// AddSystematic registers a systematic uncertainty.
//
// For the param and flatParam modes, the tokens of the entries' Params
// values are stored verbatim, without any validation.
// For all other modes, every process and bin of every entry must be
// registered: otherwise the whole systematic is rejected.
func (c *Card) AddSystematic(name string, mode Mode, corr Correlation, entries ...Entry) error {
	if _, dup := c.systs[name]; dup {
		return c.warn(fmt.Errorf("datacard: systematic %q already registered: %w", name, ErrDuplicate))
	}

	syst := &Systematic{Name: name, Mode: mode, Corr: corr}
	if mode.isParam() {
		for _, e := range entries {
			syst.Params = append(syst.Params, e.Value.Tokens()...)
		}
		c.systs[name] = syst
		return nil
	}

	for _, e := range entries {
		err := c.check(e.Processes, e.Bins)
		if err != nil {
			return c.warn(fmt.Errorf("datacard: could not add systematic %q: %w", name, err))
		}
	}
	syst.Entries = append(syst.Entries, entries...)
	c.systs[name] = syst
	return nil
}

// AddParam registers a param or flatParam systematic, written verbatim.
func (c *Card) AddParam(name string, mode Mode, toks ...string) error {
	if !mode.isParam() {
		return c.warn(fmt.Errorf("datacard: systematic %q: mode %q is not a param mode: %w", name, mode, ErrType))
	}
	return c.AddSystematic(name, mode, Correlated, Entry{Value: Params(toks...)})
}

// Systematic returns the row name and the effect of the systematic name
// on process in bin. The first matching entry wins; without any match,
// the multiplicative identity (a scalar 1) is returned.
func (c *Card) Systematic(name, process, bin string) (string, Value, bool) {
	syst, ok := c.systs[name]
	if !ok {
		return "", Value{}, false
	}
	row := RowName(syst.Name, syst.Corr, process, bin)
	if syst.Mode.isParam() {
		return row, Params(syst.Params...), true
	}
	for _, e := range syst.Entries {
		if e.match(process, bin) {
			return row, e.Value, true
		}
	}
	return row, Scalar(1), true
}

// AddGroup records a named group of systematics.
// Adding to an existing group appends to it.
func (c *Card) AddGroup(name string, systs ...string) error {
	if _, ok := c.groups.syst[name]; !ok {
		c.groups.names = append(c.groups.names, name)
	}
	c.groups.syst[name] = append(c.groups.syst[name], systs...)
	return nil
}
