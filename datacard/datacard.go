// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package datacard builds combine datacards.
//
// A Card accumulates analysis bins, signal and background processes,
// expected and observed yields, systematic uncertainties, rate
// parameters and shape overrides. Card.Write then serializes it into
// the combine text format, together with a ROOT file holding every
// histogram the datacard refers to.
//
// Setters are lenient: an invalid call is logged, leaves the card
// untouched and returns an error the caller is free to ignore.
package datacard // import "github.com/go-lpc/haa/datacard"

import (
	"errors"
	"io"
	"log"
	"os"
)

// All selects every registered bin or process.
const All = "all"

var (
	ErrDuplicate      = errors.New("duplicate entry")
	ErrUnknownBin     = errors.New("unknown bin")
	ErrUnknownProcess = errors.New("unknown process")
	ErrType           = errors.New("invalid value type")
)

// Option configures a Card.
type Option func(*Card)

// WithLogger sets the logger used to report warnings.
func WithLogger(msg *log.Logger) Option {
	return func(c *Card) {
		if msg == nil {
			msg = log.New(io.Discard, "", 0)
		}
		c.msg = msg
	}
}

type key struct {
	proc string
	bin  string
}

// Card models a combine datacard.
type Card struct {
	msg *log.Logger

	bins  []string
	sigs  []string
	bkgs  []string
	isBin map[string]bool
	isSig map[string]bool // process name -> is signal

	exp map[key]Value
	obs map[string]Value

	systs  map[string]*Systematic
	groups struct {
		names []string
		syst  map[string][]string
	}
	rates  []RateParam
	shapes []ShapeOverride
}

// New returns a new, empty, datacard.
func New(opts ...Option) *Card {
	c := &Card{
		msg:   log.New(os.Stderr, "datacard: ", 0),
		isBin: make(map[string]bool),
		isSig: make(map[string]bool),
		exp:   make(map[key]Value),
		obs:   make(map[string]Value),
		systs: make(map[string]*Systematic),
	}
	c.groups.syst = make(map[string][]string)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Card) warn(err error) error {
	c.msg.Printf("%v", err)
	return err
}
