// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/haa/internal/hist"
	"github.com/go-lpc/haa/shapefile"
	"go-hep.org/x/hep/hbook"
)

// WriteOption configures how a Card is written.
type WriteOption func(*writeConfig)

type writeConfig struct {
	blind     bool
	addSignal string

	snapshot bool
	ws       string
}

func newWriteConfig(opts []WriteOption) writeConfig {
	cfg := writeConfig{ws: "w"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBlind replaces the observations by the sum of the backgrounds,
// plus the addSignal process when not empty.
func WithBlind(addSignal string) WriteOption {
	return func(cfg *writeConfig) {
		cfg.blind = true
		cfg.addSignal = addSignal
	}
}

// WithWorkspace saves a snapshot of all the shapes in the workspace
// directory name of the shape file. Observations then read their
// counts from the shape file.
func WithWorkspace(name string) WriteOption {
	return func(cfg *writeConfig) {
		cfg.snapshot = true
		if name != "" {
			cfg.ws = name
		}
	}
}

// Selection restricts the bins and processes written in a datacard.
// An empty list, or a list holding All, selects everything.
type Selection struct {
	Bins      []string
	Processes []string
}

// Write writes the datacard base.txt and, when shapes are needed, the
// companion shape file base.root.
func (c *Card) Write(base string, sel Selection, opts ...WriteOption) error {
	base = strings.TrimSuffix(base, ".txt")
	var (
		cfg   = newWriteConfig(opts)
		froot = base + ".root"
	)

	doc, err := c.build(filepath.Base(froot), sel, cfg)
	if err != nil {
		return fmt.Errorf("datacard: could not build %q: %w", base, err)
	}

	if dir := filepath.Dir(base); dir != "" {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("datacard: could not create output directory: %w", err)
		}
	}

	if doc.hasShapes {
		err = doc.writeShapes(froot, cfg)
		if err != nil {
			return fmt.Errorf("datacard: could not write shapes of %q: %w", base, err)
		}
	}

	f, err := os.Create(base + ".txt")
	if err != nil {
		return fmt.Errorf("datacard: could not create datacard: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	doc.render(w)

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("datacard: could not flush datacard %q: %w", f.Name(), err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("datacard: could not close datacard %q: %w", f.Name(), err)
	}

	return nil
}

// WriteGroups writes one datacard per group of bins and per group of
// processes. Each datacard is named after base, suffixed with
// "_<group>" for each of the non-empty group maps. A nil map selects
// every bin (or process) in a single, unsuffixed, group.
func (c *Card) WriteGroups(base string, bins, procs map[string][]string, opts ...WriteOption) error {
	base = strings.TrimSuffix(base, ".txt")
	for _, bg := range groupsOf(bins) {
		for _, pg := range groupsOf(procs) {
			var (
				name = base + bg.suffix + pg.suffix
				sel  = Selection{Bins: bg.names, Processes: pg.names}
			)
			err := c.Write(name, sel, opts...)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

type group struct {
	suffix string
	names  []string
}

func groupsOf(m map[string][]string) []group {
	if len(m) == 0 {
		return []group{{}}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := make([]group, len(keys))
	for i, k := range keys {
		o[i] = group{suffix: "_" + k, names: m[k]}
	}
	return o
}

// document is the fully resolved content of a datacard.
type document struct {
	nbins int

	hasShapes bool
	shapes    []string

	obs   [][]string
	rates [][]string
	systs [][]string

	rparams []string
	params  []string
	groups  []string

	hists queue
}

// queue holds the histograms to write in the shape file,
// in insertion order. Re-adding a name overwrites it.
type queue struct {
	names []string
	hists map[string]*hbook.H1D
}

func (q *queue) add(name string, h *hbook.H1D) {
	if q.hists == nil {
		q.hists = make(map[string]*hbook.H1D)
	}
	if _, dup := q.hists[name]; !dup {
		q.names = append(q.names, name)
	}
	q.hists[name] = hist.Clone(h, name)
}

func (c *Card) selectBins(names []string) []string {
	if len(names) == 0 {
		return c.Bins()
	}
	for _, n := range names {
		if n != All && !c.isBin[n] {
			c.msg.Printf("datacard: bin %q not registered, ignored", n)
		}
	}
	var o []string
	for _, b := range c.bins {
		if contains(names, b) {
			o = append(o, b)
		}
	}
	return o
}

func (c *Card) selectProcesses(names []string) (sigs, bkgs []string) {
	if len(names) == 0 {
		return c.Signals(), c.Backgrounds()
	}
	for _, n := range names {
		if n != All && !c.hasProcess(n) {
			c.msg.Printf("datacard: process %q not registered, ignored", n)
		}
	}
	for _, p := range c.sigs {
		if contains(names, p) {
			sigs = append(sigs, p)
		}
	}
	for _, p := range c.bkgs {
		if contains(names, p) {
			bkgs = append(bkgs, p)
		}
	}
	return sigs, bkgs
}

func (c *Card) build(fname string, sel Selection, cfg writeConfig) (*document, error) {
	var (
		bins       = c.selectBins(sel.Bins)
		sigs, bkgs = c.selectProcesses(sel.Processes)
		procs      = append(append([]string(nil), sigs...), bkgs...)
		doc        = &document{nbins: len(bins)}
	)

	// observations.
	var (
		binRow = []string{"bin"}
		obsRow = []string{"observation"}
	)
	for _, bin := range bins {
		v, err := c.Observed(bin, cfg.blind, cfg.addSignal)
		if err != nil {
			return nil, err
		}
		var cell string
		switch v.kind {
		case KindScalar:
			cell = format(v.lo)
		case KindShape:
			doc.hists.add("data_obs_"+bin, v.h1)
			switch {
			case cfg.snapshot:
				cell = "-1"
			default:
				cell = format(hist.Integral(v.h1))
			}
		default:
			return nil, c.warn(fmt.Errorf(
				"datacard: could not render observation of bin %q from %v value: %w",
				bin, v.kind, ErrType,
			))
		}
		binRow = append(binRow, bin)
		obsRow = append(obsRow, cell)
	}
	doc.obs = [][]string{binRow, obsRow}

	// rates.
	num := make(map[string]int, len(procs))
	for i, p := range sigs {
		num[p] = i - (len(sigs) - 1)
	}
	for i, p := range bkgs {
		num[p] = i + 1
	}

	var (
		cols    []key
		bins2   = []string{"bin"}
		names   = []string{"process"}
		numbers = []string{"process"}
		rates   = []string{"rate"}
	)
	for _, bin := range bins {
		for _, p := range procs {
			v := c.Expected(p, bin)
			if v.IsZero() {
				continue
			}
			var rate string
			switch v.kind {
			case KindScalar:
				rate = format(v.lo)
			case KindShape:
				doc.hists.add(p+"_"+bin, v.h1)
				rate = format(hist.Integral(v.h1))
			case KindRef:
				rate = "1"
			default:
				return nil, c.warn(fmt.Errorf(
					"datacard: could not render rate of (%s, %s) from %v value: %w",
					p, bin, v.kind, ErrType,
				))
			}
			cols = append(cols, key{p, bin})
			bins2 = append(bins2, bin)
			names = append(names, p)
			numbers = append(numbers, strconv.Itoa(num[p]))
			rates = append(rates, rate)
		}
	}
	doc.rates = [][]string{bins2, names, numbers, rates}

	// systematics.
	produced, err := c.buildSysts(doc, cols)
	if err != nil {
		return nil, err
	}

	// shapes.
	var overrides []ShapeOverride
	for _, o := range c.shapes {
		if contains(bins, o.Bin) && contains(procs, o.Process) {
			overrides = append(overrides, o)
		}
	}
	doc.hasShapes = len(doc.hists.names) > 0 || cfg.snapshot || len(overrides) > 0
	switch {
	case doc.hasShapes:
		for _, bin := range bins {
			doc.shapes = append(doc.shapes, fmt.Sprintf(
				"shapes * %[1]s %[2]s $PROCESS_%[1]s $PROCESS_%[1]s_$SYSTEMATIC",
				bin, fname,
			))
		}
		for _, o := range overrides {
			doc.shapes = append(doc.shapes, fmt.Sprintf(
				"shapes %[1]s %[2]s %[3]s %[4]s %[4]s_$SYSTEMATIC",
				o.Process, o.Bin, fname, o.Name,
			))
		}
	default:
		doc.shapes = []string{"shapes * * FAKE"}
	}

	// rate parameters.
	for _, rp := range c.rates {
		if !contains(bins, rp.Bin) || !contains(procs, rp.Process) {
			continue
		}
		doc.rparams = append(doc.rparams, fmt.Sprintf(
			"%s rateParam %s %s %s:%s", rp.Name, rp.Bin, rp.Process, fname, cfg.ws,
		))
	}

	// groups.
	for _, name := range c.groups.names {
		var rows []string
		for _, syst := range c.groups.syst[name] {
			rows = append(rows, produced[syst]...)
		}
		if len(rows) == 0 {
			c.msg.Printf("datacard: group %q has no systematic in this datacard", name)
			continue
		}
		doc.groups = append(doc.groups, name+" group = "+strings.Join(rows, " "))
	}

	return doc, nil
}

type systRow struct {
	name  string
	syst  *Systematic
	cells []string
}

// buildSysts resolves every systematic against every column and fills
// the systematics and params rows of doc. It returns the names of the
// rows produced by each systematic.
func (c *Card) buildSysts(doc *document, cols []key) (map[string][]string, error) {
	names := make([]string, 0, len(c.systs))
	for name := range c.systs {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		rows     []*systRow
		index    = make(map[string]*systRow)
		produced = make(map[string][]string)
	)
	for _, name := range names {
		syst := c.systs[name]
		if syst.Mode.isParam() {
			line := append([]string{syst.Name, string(syst.Mode)}, syst.Params...)
			doc.params = append(doc.params, strings.Join(line, " "))
			produced[name] = []string{syst.Name}
			continue
		}

		for i, col := range cols {
			rname, v, _ := c.Systematic(name, col.proc, col.bin)
			row, ok := index[rname]
			switch {
			case !ok:
				row = &systRow{name: rname, syst: syst, cells: make([]string, len(cols))}
				for j := range row.cells {
					row.cells[j] = "-"
				}
				index[rname] = row
				rows = append(rows, row)
			case row.syst != syst:
				return nil, c.warn(fmt.Errorf(
					"datacard: row %q produced by systematics %q and %q: %w",
					rname, row.syst.Name, syst.Name, ErrDuplicate,
				))
			}
			cell, err := c.cell(&doc.hists, syst.Mode, rname, col, v)
			if err != nil {
				return nil, c.warn(fmt.Errorf(
					"datacard: could not render row %q for (%s, %s): %w",
					rname+" "+string(syst.Mode), col.proc, col.bin, err,
				))
			}
			row.cells[i] = cell
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	for _, row := range rows {
		if isIdentity(row.cells) {
			continue
		}
		produced[row.syst.Name] = append(produced[row.syst.Name], row.name)
		doc.systs = append(doc.systs, append(
			[]string{row.name + " " + string(row.syst.Mode)}, row.cells...,
		))
	}
	return produced, nil
}

func isIdentity(cells []string) bool {
	for _, cell := range cells {
		if cell != "-" {
			return false
		}
	}
	return true
}

// cell renders the effect v of the systematic row on the column col,
// queueing the shapes it needs.
func (c *Card) cell(q *queue, mode Mode, row string, col key, v Value) (string, error) {
	switch v.kind {
	case KindScalar:
		if v.lo == 1 {
			return "-", nil
		}
		return format(v.lo), nil

	case KindAsymScalar:
		if mode.isGmN() {
			return "", fmt.Errorf("asymmetric value for %q mode: %w", mode, ErrType)
		}
		return format(v.lo) + "/" + format(v.hi), nil

	case KindShape, KindAsymShape:
		if mode != Shape {
			return "", fmt.Errorf("histogram value for %q mode: %w", mode, ErrType)
		}
		var (
			name     = col.proc + "_" + col.bin + "_" + row
			up, down = v.h1, v.h2
		)
		if v.kind == KindShape {
			nominal := c.Expected(col.proc, col.bin)
			if nominal.kind != KindShape {
				return "", fmt.Errorf("could not mirror shape: nominal is a %v value: %w", nominal.kind, ErrType)
			}
			var err error
			down, err = hist.Mirror(name+"Down", nominal.h1, up)
			if err != nil {
				return "", fmt.Errorf("could not mirror shape: %w", err)
			}
		}
		q.add(name+"Up", up)
		q.add(name+"Down", down)
		return "1", nil
	}
	return "", fmt.Errorf("%v value: %w", v.kind, ErrType)
}

func (doc *document) render(w io.Writer) {
	fmt.Fprintf(w, "imax %d number of bins\n", doc.nbins)
	fmt.Fprintln(w, "jmax * number of processes")
	fmt.Fprintln(w, "kmax * number of nuissances")
	fmt.Fprintln(w, separator)

	for _, line := range doc.shapes {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, separator)

	tbl := newTable(doc.obs, doc.rates, doc.systs)
	tbl.write(w, doc.obs)
	fmt.Fprintln(w, separator)

	tbl.write(w, doc.rates)
	fmt.Fprintln(w, separator)

	tbl.write(w, doc.systs)

	for _, block := range [][]string{doc.rparams, doc.params, doc.groups} {
		for _, line := range block {
			fmt.Fprintln(w, line)
		}
	}
}

func (doc *document) writeShapes(fname string, cfg writeConfig) error {
	f, err := shapefile.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	if cfg.snapshot {
		_, err = f.Workspace(cfg.ws)
		if err != nil {
			return err
		}
		for _, name := range doc.hists.names {
			err = f.PutWorkspace(cfg.ws, name, doc.hists.hists[name])
			if err != nil {
				return err
			}
		}
	}

	for _, name := range doc.hists.names {
		err = f.Put(name, doc.hists.hists[name])
		if err != nil {
			return err
		}
	}

	return f.Close()
}
