// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import "fmt"

// RateParam is an external rate-scaling parameter for a process in a bin.
type RateParam struct {
	Name    string
	Bin     string
	Process string
}

// AddRateParam records a rate parameter for process in bin.
func (c *Card) AddRateParam(name, bin, process string) error {
	if name == "" || bin == "" || process == "" {
		return c.warn(fmt.Errorf("datacard: invalid rate parameter (name=%q, bin=%q, process=%q)", name, bin, process))
	}
	c.rates = append(c.rates, RateParam{Name: name, Bin: bin, Process: process})
	return nil
}

// ShapeOverride replaces the default "$PROCESS_$BIN" shape name of
// process in bin.
type ShapeOverride struct {
	Bin     string
	Process string
	Name    string
}

// AddShape overrides the shape name of process in bin.
func (c *Card) AddShape(bin, process, name string) error {
	if bin == "" || process == "" || name == "" {
		return c.warn(fmt.Errorf("datacard: invalid shape override (bin=%q, process=%q, name=%q)", bin, process, name))
	}
	c.shapes = append(c.shapes, ShapeOverride{Bin: bin, Process: process, Name: name})
	return nil
}
