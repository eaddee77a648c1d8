// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cardcfg

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/haa/datacard"
	"github.com/go-lpc/haa/shapefile"
	"go-hep.org/x/hep/hbook"
)

const testCard = `
bins: [PP, FP]
signals: [haa_m15]
backgrounds: [ZZ, fakes]
expected:
  - {process: haa_m15, bin: PP, hist: "inputs.root:haa_PP"}
  - {process: ZZ, bin: PP, rate: 4.5}
  - {process: ZZ, bin: FP, hist: "inputs.root:zz_FP_2d"}
  - {process: fakes, bin: FP, rate: 12}
  - {process: ttbar, bin: FP, rate: 1}
observed:
  - {bin: PP, rate: 5}
  - {bin: FP, rate: 15}
systematics:
  - name: lumi
    mode: lnN
    values:
      - {value: 1.025}
  - name: fake_rate
    mode: lnN
    correlation: bin
    values:
      - {processes: [fakes], lo: 0.8, hi: 1.3}
  - name: mh
    mode: param
    params: ["125", "1"]
rate-params:
  - {name: norm_fakes, bin: FP, process: fakes}
groups:
  fakes: [fake_rate]
output:
  name: haa_4l
`

func writeInputs(t *testing.T, dir string) {
	t.Helper()

	f, err := shapefile.Create(filepath.Join(dir, "inputs.root"))
	if err != nil {
		t.Fatalf("could not create inputs: %+v", err)
	}
	defer f.Close()

	h1 := hbook.NewH1D(2, 0, 2)
	h1.Fill(0.5, 1)
	h1.Fill(1.5, 2)
	err = f.Put("haa_PP", h1)
	if err != nil {
		t.Fatalf("could not write 1D input: %+v", err)
	}

	h2 := hbook.NewH2D(2, 0, 2, 2, 0, 2)
	h2.Fill(0.5, 0.5, 1)
	h2.Fill(1.5, 1.5, 3)
	err = f.Put2D("zz_FP_2d", h2)
	if err != nil {
		t.Fatalf("could not write 2D input: %+v", err)
	}

	err = f.Close()
	if err != nil {
		t.Fatalf("could not close inputs: %+v", err)
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)

	fname := filepath.Join(dir, "card.yaml")
	err := os.WriteFile(fname, []byte(testCard), 0644)
	if err != nil {
		t.Fatalf("could not write card description: %+v", err)
	}

	cfg, err := Load(fname)
	if err != nil {
		t.Fatalf("could not load card description: %+v", err)
	}

	card, err := cfg.Card(datacard.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("could not build datacard: %+v", err)
	}

	v := card.Expected("ZZ", "FP")
	if got, want := v.Kind(), datacard.KindShape; got != want {
		t.Fatalf("invalid ZZ/FP kind: got=%v, want=%v", got, want)
	}
	if got, want := v.Hist().Len(), 4; got != want {
		t.Fatalf("invalid ZZ/FP unwrapped bins: got=%d, want=%d", got, want)
	}
	if got := card.Expected("ttbar", "FP"); !got.IsZero() {
		t.Fatalf("unregistered process was stored: %v", got)
	}

	odir := filepath.Join(dir, "cards")
	err = cfg.Write(card, odir)
	if err != nil {
		t.Fatalf("could not write datacard: %+v", err)
	}

	raw, err := os.ReadFile(filepath.Join(odir, "haa_4l.txt"))
	if err != nil {
		t.Fatalf("could not read datacard: %+v", err)
	}
	for _, want := range []string{
		"imax 2 number of bins\n",
		"shapes * PP haa_4l.root $PROCESS_PP $PROCESS_PP_$SYSTEMATIC\n",
		"\nrate             3       4.5     4       12\n",
		"\nfake_rate_FP lnN -       -       -       0.8/1.3\n",
		"\nnorm_fakes rateParam FP fakes haa_4l.root:w\n",
		"\nmh param 125 1\n",
		"\nfakes group = fake_rate_FP\n",
	} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("missing %q in datacard:\n%s", want, raw)
		}
	}

	r, err := shapefile.Open(filepath.Join(odir, "haa_4l.root"))
	if err != nil {
		t.Fatalf("could not open shape file: %+v", err)
	}
	defer r.Close()

	for _, name := range []string{"haa_m15_PP", "ZZ_FP"} {
		_, err := r.H1D(name)
		if err != nil {
			t.Fatalf("could not read %q: %+v", name, err)
		}
	}
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)

	for _, tc := range []struct {
		name string
		card string
		want string
	}{
		{
			name: "missing-hist",
			card: "bins: [A]\nbackgrounds: [bg]\nexpected:\n  - {process: bg, bin: A, hist: \"inputs.root:nope\"}\n",
			want: `cardcfg: invalid expected yield (bg, A)`,
		},
		{
			name: "missing-file",
			card: "bins: [A]\nobserved:\n  - {bin: A, hist: \"nope.root:h\"}\n",
			want: `cardcfg: invalid observation (A)`,
		},
		{
			name: "empty-yield",
			card: "bins: [A]\nbackgrounds: [bg]\nexpected:\n  - {process: bg, bin: A}\n",
			want: `cardcfg: no rate, hist or ref`,
		},
		{
			name: "observed-ref",
			card: "bins: [A]\nobserved:\n  - {bin: A, ref: data_obs_pdf}\n",
			want: `cardcfg: ref "data_obs_pdf" not allowed for observed data`,
		},
		{
			name: "empty-observation",
			card: "bins: [A]\nobserved:\n  - {bin: A}\n",
			want: `cardcfg: no rate or hist`,
		},
		{
			name: "bad-mode",
			card: "systematics:\n  - {name: x, mode: lnU}\n",
			want: `cardcfg: invalid systematic "x": datacard: invalid systematic mode "lnU"`,
		},
		{
			name: "bad-correlation",
			card: "systematics:\n  - {name: x, mode: lnN, correlation: year}\n",
			want: `cardcfg: invalid systematic "x": datacard: invalid correlation "year"`,
		},
		{
			name: "empty-effect",
			card: "systematics:\n  - name: x\n    mode: lnN\n    values:\n      - {processes: [all]}\n",
			want: `cardcfg: no value, lo/hi, hist or up/down`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(dir, tc.name+".yaml")
			err := os.WriteFile(fname, []byte(tc.card), 0644)
			if err != nil {
				t.Fatalf("could not write card description: %+v", err)
			}

			cfg, err := Load(fname)
			if err != nil {
				t.Fatalf("could not load card description: %+v", err)
			}
			if got, want := cfg.Output.Name, tc.name; got != want {
				t.Fatalf("invalid default output name: got=%q, want=%q", got, want)
			}

			_, err = cfg.Card(datacard.WithLogger(log.New(io.Discard, "", 0)))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got := err.Error(); !strings.Contains(got, tc.want) {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, tc.want)
			}
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	if err == nil {
		t.Fatalf("expected an error loading a missing file")
	}

	fname := filepath.Join(dir, "bad.yaml")
	err = os.WriteFile(fname, []byte("bins: {a: [\n"), 0644)
	if err != nil {
		t.Fatalf("could not write card description: %+v", err)
	}
	_, err = Load(fname)
	if err == nil {
		t.Fatalf("expected an error decoding an invalid file")
	}
}

func TestWriteOptions(t *testing.T) {
	for _, tc := range []struct {
		out  Output
		want int
	}{
		{out: Output{}, want: 0},
		{out: Output{Blind: true}, want: 1},
		{out: Output{Blind: true, AddSignal: "haa", Workspace: "w"}, want: 2},
	} {
		cfg := Config{Output: tc.out}
		if got := len(cfg.WriteOptions()); got != tc.want {
			t.Errorf("invalid number of options: got=%d, want=%d", got, tc.want)
		}
	}
}
