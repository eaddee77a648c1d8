// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"fmt"
)

// AddBin registers a new analysis bin.
// Registering twice the same bin is a no-op.
func (c *Card) AddBin(name string) error {
	if c.isBin[name] {
		return c.warn(fmt.Errorf("datacard: bin %q already registered: %w", name, ErrDuplicate))
	}
	c.isBin[name] = true
	c.bins = append(c.bins, name)
	return nil
}

// AddProcess registers a new process, as signal or background.
// A process keeps its first classification: registering it again
// is a no-op.
func (c *Card) AddProcess(name string, signal bool) error {
	if _, dup := c.isSig[name]; dup {
		return c.warn(fmt.Errorf("datacard: process %q already registered: %w", name, ErrDuplicate))
	}
	c.isSig[name] = signal
	switch {
	case signal:
		c.sigs = append(c.sigs, name)
	default:
		c.bkgs = append(c.bkgs, name)
	}
	return nil
}

// Bins returns the registered bins, in registration order.
func (c *Card) Bins() []string { return append([]string(nil), c.bins...) }

// Signals returns the registered signal processes, in registration order.
func (c *Card) Signals() []string { return append([]string(nil), c.sigs...) }

// Backgrounds returns the registered background processes, in registration order.
func (c *Card) Backgrounds() []string { return append([]string(nil), c.bkgs...) }

// Processes returns all the registered processes, signals first.
func (c *Card) Processes() []string {
	o := make([]string, 0, len(c.sigs)+len(c.bkgs))
	o = append(o, c.sigs...)
	return append(o, c.bkgs...)
}

// IsSignal reports whether name is a registered signal process.
func (c *Card) IsSignal(name string) bool { return c.isSig[name] }

func (c *Card) hasProcess(name string) bool {
	_, ok := c.isSig[name]
	return ok
}

// check verifies that all processes and bins are registered,
// accepting the All wildcard.
func (c *Card) check(procs, bins []string) error {
	for _, p := range procs {
		if p == All {
			continue
		}
		if !c.hasProcess(p) {
			return fmt.Errorf("datacard: process %q not registered: %w", p, ErrUnknownProcess)
		}
	}
	for _, b := range bins {
		if b == All {
			continue
		}
		if !c.isBin[b] {
			return fmt.Errorf("datacard: bin %q not registered: %w", b, ErrUnknownBin)
		}
	}
	return nil
}

// expand resolves the All wildcard against the registered names.
func expand(names, registered []string) []string {
	for _, n := range names {
		if n == All {
			return registered
		}
	}
	return names
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v || x == All {
			return true
		}
	}
	return false
}
