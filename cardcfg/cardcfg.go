// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cardcfg describes datacards with YAML files.
//
// Example:
//
//	bins: [PP, FP]
//	signals: [haa_m15]
//	backgrounds: [ZZ, fakes]
//	expected:
//	  - {process: haa_m15, bin: PP, hist: "inputs.root:haa_m15/PP"}
//	  - {process: ZZ, bin: PP, rate: 4.2}
//	  - {process: fakes, bin: FP, ref: "fakes_FP_pdf"}
//	observed:
//	  - {bin: PP, hist: "inputs.root:data/PP"}
//	systematics:
//	  - name: lumi
//	    mode: lnN
//	    values:
//	      - {value: 1.025}
//	  - name: stat
//	    mode: shape
//	    correlation: process-bin
//	    values:
//	      - {processes: [ZZ], bins: [PP], up: "inputs.root:ZZ/PP_up", down: "inputs.root:ZZ/PP_down"}
//	  - name: mh
//	    mode: param
//	    params: ["125", "1"]
//	rate-params:
//	  - {name: norm_fakes, bin: FP, process: fakes}
//	groups:
//	  theory: [lumi]
//	output:
//	  name: haa_4l
//	  blind: true
//	  workspace: w
//
// Histogram references are written as "file.root:path/to/hist", with
// file paths relative to the YAML file.
package cardcfg // import "github.com/go-lpc/haa/cardcfg"

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-lpc/haa/datacard"
	"gopkg.in/yaml.v3"
)

// Config describes a datacard.
type Config struct {
	Bins        []string            `yaml:"bins"`
	Signals     []string            `yaml:"signals"`
	Backgrounds []string            `yaml:"backgrounds"`
	Expected    []Yield             `yaml:"expected"`
	Observed    []Yield             `yaml:"observed"`
	Systematics []Systematic        `yaml:"systematics"`
	RateParams  []RateParam         `yaml:"rate-params"`
	Shapes      []Shape             `yaml:"shapes"`
	Groups      map[string][]string `yaml:"groups"`
	Output      Output              `yaml:"output"`

	dir string // directory holding the YAML file
}

// Yield is an expected or observed yield. Exactly one of Rate, Hist
// and Ref should be set (Ref only for expected yields).
type Yield struct {
	Process string   `yaml:"process"`
	Bin     string   `yaml:"bin"`
	Rate    *float64 `yaml:"rate"`
	Hist    string   `yaml:"hist"`
	Ref     string   `yaml:"ref"`
}

// Systematic describes a systematic uncertainty.
type Systematic struct {
	Name        string      `yaml:"name"`
	Mode        string      `yaml:"mode"`
	Correlation string      `yaml:"correlation"`
	Values      []SystValue `yaml:"values"`
	Params      []string    `yaml:"params"`
}

// SystValue is the effect of a systematic on a set of processes and bins.
type SystValue struct {
	Processes []string `yaml:"processes"`
	Bins      []string `yaml:"bins"`

	Value *float64 `yaml:"value"`
	Lo    *float64 `yaml:"lo"`
	Hi    *float64 `yaml:"hi"`
	Hist  string   `yaml:"hist"`
	Up    string   `yaml:"up"`
	Down  string   `yaml:"down"`
}

// RateParam describes a rate parameter.
type RateParam struct {
	Name    string `yaml:"name"`
	Bin     string `yaml:"bin"`
	Process string `yaml:"process"`
}

// Shape overrides the shape name of a process in a bin.
type Shape struct {
	Bin     string `yaml:"bin"`
	Process string `yaml:"process"`
	Name    string `yaml:"name"`
}

// Output describes how the datacard is written.
type Output struct {
	Name      string              `yaml:"name"`
	Blind     bool                `yaml:"blind"`
	AddSignal string              `yaml:"add-signal"`
	Workspace string              `yaml:"workspace"`
	Bins      map[string][]string `yaml:"bins"`
	Processes map[string][]string `yaml:"processes"`
}

// Load reads the YAML datacard description fname.
func Load(fname string) (*Config, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("cardcfg: could not read %q: %w", fname, err)
	}

	var cfg Config
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return nil, fmt.Errorf("cardcfg: could not decode %q: %w", fname, err)
	}
	cfg.dir = filepath.Dir(fname)

	if cfg.Output.Name == "" {
		name := filepath.Base(fname)
		cfg.Output.Name = name[:len(name)-len(filepath.Ext(name))]
	}

	return &cfg, nil
}

// Card builds the datacard described by cfg.
//
// Invalid registrations are reported by the datacard logger and skipped.
// Unreadable histograms and invalid modes are errors.
func (cfg *Config) Card(opts ...datacard.Option) (*datacard.Card, error) {
	var (
		card = datacard.New(opts...)
		hs   = newLoader(cfg.dir)
	)
	defer hs.close()

	for _, bin := range cfg.Bins {
		_ = card.AddBin(bin)
	}
	for _, proc := range cfg.Signals {
		_ = card.AddProcess(proc, true)
	}
	for _, proc := range cfg.Backgrounds {
		_ = card.AddProcess(proc, false)
	}

	for _, y := range cfg.Expected {
		v, err := hs.yield(y, true)
		if err != nil {
			return nil, fmt.Errorf("cardcfg: invalid expected yield (%s, %s): %w", y.Process, y.Bin, err)
		}
		_ = card.SetExpected(y.Process, y.Bin, v)
	}

	for _, y := range cfg.Observed {
		v, err := hs.yield(y, false)
		if err != nil {
			return nil, fmt.Errorf("cardcfg: invalid observation (%s): %w", y.Bin, err)
		}
		_ = card.SetObserved(y.Bin, v)
	}

	for _, syst := range cfg.Systematics {
		mode, err := datacard.ParseMode(syst.Mode)
		if err != nil {
			return nil, fmt.Errorf("cardcfg: invalid systematic %q: %w", syst.Name, err)
		}
		corr, err := datacard.ParseCorrelation(syst.Correlation)
		if err != nil {
			return nil, fmt.Errorf("cardcfg: invalid systematic %q: %w", syst.Name, err)
		}

		if mode == datacard.Param || mode == datacard.FlatParam {
			_ = card.AddParam(syst.Name, mode, syst.Params...)
			continue
		}

		entries := make([]datacard.Entry, 0, len(syst.Values))
		for _, sv := range syst.Values {
			v, err := hs.effect(sv)
			if err != nil {
				return nil, fmt.Errorf("cardcfg: invalid systematic %q: %w", syst.Name, err)
			}
			entries = append(entries, datacard.Entry{
				Processes: sv.Processes,
				Bins:      sv.Bins,
				Value:     v,
			})
		}
		_ = card.AddSystematic(syst.Name, mode, corr, entries...)
	}

	for _, rp := range cfg.RateParams {
		_ = card.AddRateParam(rp.Name, rp.Bin, rp.Process)
	}

	for _, shape := range cfg.Shapes {
		_ = card.AddShape(shape.Bin, shape.Process, shape.Name)
	}

	names := make([]string, 0, len(cfg.Groups))
	for name := range cfg.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = card.AddGroup(name, cfg.Groups[name]...)
	}

	return card, nil
}

// WriteOptions returns the datacard write options described by the
// output section of cfg.
func (cfg *Config) WriteOptions() []datacard.WriteOption {
	var opts []datacard.WriteOption
	if cfg.Output.Blind {
		opts = append(opts, datacard.WithBlind(cfg.Output.AddSignal))
	}
	if cfg.Output.Workspace != "" {
		opts = append(opts, datacard.WithWorkspace(cfg.Output.Workspace))
	}
	return opts
}

// Write writes the datacards of card under the directory odir.
func (cfg *Config) Write(card *datacard.Card, odir string, opts ...datacard.WriteOption) error {
	var (
		base = filepath.Join(odir, cfg.Output.Name)
		wopt = append(cfg.WriteOptions(), opts...)
	)
	if len(cfg.Output.Bins) == 0 && len(cfg.Output.Processes) == 0 {
		return card.Write(base, datacard.Selection{}, wopt...)
	}
	return card.WriteGroups(base, cfg.Output.Bins, cfg.Output.Processes, wopt...)
}
