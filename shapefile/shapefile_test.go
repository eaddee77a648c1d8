// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shapefile

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
)

func TestRoundTrip(t *testing.T) {
	tmp, err := os.MkdirTemp("", "haa-shapefile-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "shapes.root")

	h := hbook.NewH1D(3, 0, 3)
	h.Fill(0.5, 1)
	h.Fill(1.5, 2)
	h.Fill(2.5, 3)

	w, err := Create(fname)
	if err != nil {
		t.Fatalf("could not create shape file: %+v", err)
	}
	defer w.Close()

	err = w.PutWorkspace("w", "bg_A", h)
	if err != nil {
		t.Fatalf("could not write workspace shape: %+v", err)
	}
	err = w.Put("bg_A", h)
	if err != nil {
		t.Fatalf("could not write shape: %+v", err)
	}
	err = w.Put("data_obs_A", h)
	if err != nil {
		t.Fatalf("could not write shape: %+v", err)
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close shape file: %+v", err)
	}

	r, err := Open(fname)
	if err != nil {
		t.Fatalf("could not open shape file: %+v", err)
	}
	defer r.Close()

	for _, path := range []string{"bg_A", "w/bg_A", "data_obs_A"} {
		got, err := r.H1D(path)
		if err != nil {
			t.Fatalf("could not read %q: %+v", path, err)
		}
		if got, want := got.Len(), 3; got != want {
			t.Fatalf("%s: invalid number of bins: got=%d, want=%d", path, got, want)
		}
		for i, want := range []float64{1, 2, 3} {
			if got := got.Binning.Bins[i].SumW(); got != want {
				t.Fatalf("%s: bin %d: got=%v, want=%v", path, i, got, want)
			}
		}
	}

	var paths []string
	err = r.Walk(func(path string, obj root.Object) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("could not walk shape file: %+v", err)
	}
	sort.Strings(paths)
	if got, want := paths, []string{"bg_A", "data_obs_A", "w/bg_A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid walk:\ngot= %q\nwant=%q", got, want)
	}

	_, err = r.H1D("missing")
	if err == nil {
		t.Fatalf("expected an error reading a missing key")
	}
}

func TestHist2D(t *testing.T) {
	tmp, err := os.MkdirTemp("", "haa-shapefile-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "inputs.root")
	f, err := Create(fname)
	if err != nil {
		t.Fatalf("could not create file: %+v", err)
	}
	defer f.Close()

	h2 := hbook.NewH2D(2, 0, 2, 2, 0, 2)
	h2.Fill(0.5, 1.5, 4)
	h2.Ann["name"] = "h2"
	err = f.Put2D("h2", h2)
	if err != nil {
		t.Fatalf("could not write 2D histogram: %+v", err)
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close file: %+v", err)
	}

	r, err := Open(fname)
	if err != nil {
		t.Fatalf("could not open file: %+v", err)
	}
	defer r.Close()

	h1, got, err := r.Hist("h2")
	if err != nil {
		t.Fatalf("could not read 2D histogram: %+v", err)
	}
	if h1 != nil || got == nil {
		t.Fatalf("invalid histogram kinds: h1=%v, h2=%v", h1, got)
	}
	if got, want := got.SumW(), 4.0; got != want {
		t.Fatalf("invalid sumw: got=%v, want=%v", got, want)
	}

	_, err = r.H1D("h2")
	if err == nil {
		t.Fatalf("expected an error reading a 2D histogram as 1D")
	}
}

func TestParseRef(t *testing.T) {
	for _, tc := range []struct {
		ref  string
		want Ref
		err  bool
	}{
		{ref: "in.root:h", want: Ref{File: "in.root", Path: "h"}},
		{ref: "dir/in.root:sub/h", want: Ref{File: "dir/in.root", Path: "sub/h"}},
		{ref: "in.root", err: true},
		{ref: ":h", err: true},
		{ref: "in.root:", err: true},
	} {
		t.Run(tc.ref, func(t *testing.T) {
			got, err := ParseRef(tc.ref)
			switch {
			case err != nil && !tc.err:
				t.Fatalf("could not parse %q: %+v", tc.ref, err)
			case err == nil && tc.err:
				t.Fatalf("expected an error for %q", tc.ref)
			case err == nil:
				if got != tc.want {
					t.Fatalf("invalid ref: got=%#v, want=%#v", got, tc.want)
				}
				if got, want := got.String(), tc.ref; got != want {
					t.Fatalf("invalid round-trip: got=%q, want=%q", got, want)
				}
			}
		})
	}
}

func TestEmptyWorkspace(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.root")

	w, err := Create(fname)
	if err != nil {
		t.Fatalf("could not create shape file: %+v", err)
	}
	defer w.Close()

	dir, err := w.Workspace("w")
	if err != nil {
		t.Fatalf("could not create workspace: %+v", err)
	}
	again, err := w.Workspace("w")
	if err != nil {
		t.Fatalf("could not retrieve workspace: %+v", err)
	}
	if dir != again {
		t.Fatalf("workspace created twice")
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close shape file: %+v", err)
	}

	r, err := Open(fname)
	if err != nil {
		t.Fatalf("could not open shape file: %+v", err)
	}
	defer r.Close()

	_, err = r.Get("w")
	if err != nil {
		t.Fatalf("could not find workspace: %+v", err)
	}

	n := 0
	err = r.Walk(func(path string, obj root.Object) error {
		n++
		return nil
	})
	if err != nil {
		t.Fatalf("could not walk shape file: %+v", err)
	}
	if n != 0 {
		t.Fatalf("invalid number of objects: got=%d, want=0", n)
	}
}
