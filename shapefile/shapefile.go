// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shapefile reads and writes the ROOT files holding the
// histograms (shapes) a datacard refers to.
package shapefile // import "github.com/go-lpc/haa/shapefile"

import (
	"fmt"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// Writer writes shapes into a ROOT file.
type Writer struct {
	f    *riofs.File
	dirs map[string]riofs.Directory
}

// Create creates a new ROOT file, ready to store shapes.
func Create(fname string) (*Writer, error) {
	f, err := groot.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("shapefile: could not create %q: %w", fname, err)
	}
	return &Writer{f: f, dirs: make(map[string]riofs.Directory)}, nil
}

// Put writes h as a TH1D under the provided name, at the top of the file.
func (w *Writer) Put(name string, h *hbook.H1D) error {
	return put(w.f, name, h)
}

// Workspace returns the workspace directory ws, creating it if needed.
func (w *Writer) Workspace(ws string) (riofs.Directory, error) {
	if dir, ok := w.dirs[ws]; ok {
		return dir, nil
	}
	dir, err := riofs.Dir(w.f).Mkdir(ws)
	if err != nil {
		return nil, fmt.Errorf("shapefile: could not create workspace %q: %w", ws, err)
	}
	w.dirs[ws] = dir
	return dir, nil
}

// PutWorkspace writes h as a TH1D under the provided name, inside the
// workspace directory ws.
func (w *Writer) PutWorkspace(ws, name string, h *hbook.H1D) error {
	dir, err := w.Workspace(ws)
	if err != nil {
		return err
	}
	return put(dir, name, h)
}

// Put2D writes h as a TH2D under the provided name, at the top of the file.
func (w *Writer) Put2D(name string, h *hbook.H2D) error {
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = name
	err := w.f.Put(name, rhist.NewH2DFrom(h))
	if err != nil {
		return fmt.Errorf("shapefile: could not write %q: %w", name, err)
	}
	return nil
}

func put(dir riofs.Directory, name string, h *hbook.H1D) error {
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = name
	err := dir.Put(name, rhist.NewH1DFrom(h))
	if err != nil {
		return fmt.Errorf("shapefile: could not write %q: %w", name, err)
	}
	return nil
}

// Close flushes and closes the underlying ROOT file.
// Closing an already closed Writer is a no-op.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	err := f.Close()
	if err != nil {
		return fmt.Errorf("shapefile: could not close file: %w", err)
	}
	return nil
}

// Reader reads histograms from a ROOT file.
type Reader struct {
	f *riofs.File
}

// Open opens the named ROOT file for reading.
func Open(fname string) (*Reader, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("shapefile: could not open %q: %w", fname, err)
	}
	return &Reader{f: f}, nil
}

// Close closes the underlying ROOT file.
// Closing an already closed Reader is a no-op.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	f := r.f
	r.f = nil
	return f.Close()
}

// Get retrieves the object at path (e.g. "dir/name") from the file.
func (r *Reader) Get(path string) (root.Object, error) {
	obj, err := riofs.Dir(r.f).Get(path)
	if err != nil {
		return nil, fmt.Errorf("shapefile: could not find %q: %w", path, err)
	}
	return obj, nil
}

// Hist retrieves the histogram at path. Exactly one of the returned
// histograms is non-nil when err is nil.
func (r *Reader) Hist(path string) (*hbook.H1D, *hbook.H2D, error) {
	obj, err := r.Get(path)
	if err != nil {
		return nil, nil, err
	}
	switch h := obj.(type) {
	case rhist.H2:
		return nil, rootcnv.H2D(h), nil
	case rhist.H1:
		return rootcnv.H1D(h), nil, nil
	default:
		return nil, nil, fmt.Errorf("shapefile: %q is not a histogram (type=%T)", path, obj)
	}
}

// H1D retrieves the 1D histogram at path.
func (r *Reader) H1D(path string) (*hbook.H1D, error) {
	h1, _, err := r.Hist(path)
	if err != nil {
		return nil, err
	}
	if h1 == nil {
		return nil, fmt.Errorf("shapefile: %q is not a 1D histogram", path)
	}
	return h1, nil
}

// Walk calls fn for every non-directory object in the file, recursing
// into directories. Paths are slash-separated, relative to the top of the file.
func (r *Reader) Walk(fn func(path string, obj root.Object) error) error {
	return walk(r.f, "", fn)
}

func walk(dir riofs.Directory, prefix string, fn func(path string, obj root.Object) error) error {
	for _, k := range dir.Keys() {
		obj, err := k.Object()
		if err != nil {
			return fmt.Errorf("shapefile: could not load %q: %w", prefix+k.Name(), err)
		}
		path := prefix + k.Name()
		if sub, ok := obj.(riofs.Directory); ok {
			err = walk(sub, path+"/", fn)
			if err != nil {
				return err
			}
			continue
		}
		err = fn(path, obj)
		if err != nil {
			return err
		}
	}
	return nil
}

// Ref is a reference to a histogram stored in a ROOT file,
// written as "file.root:path/to/hist".
type Ref struct {
	File string
	Path string
}

// ParseRef parses a "file.root:path/to/hist" reference.
func ParseRef(s string) (Ref, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Ref{}, fmt.Errorf("shapefile: invalid histogram reference %q", s)
	}
	return Ref{File: s[:i], Path: s[i+1:]}, nil
}

func (ref Ref) String() string { return ref.File + ":" + ref.Path }
