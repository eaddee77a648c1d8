// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datacard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

var separator = strings.Repeat("-", 80)

// format renders v with the shortest decimal representation that
// round-trips.
func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// table holds rows sharing the same column layout: a label followed
// by cells.
type table struct {
	label int // width of the label column
	cell  int // width of the other columns
}

func newTable(blocks ...[][]string) table {
	var tbl table
	for _, rows := range blocks {
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			if n := len(row[0]); n > tbl.label {
				tbl.label = n
			}
			for _, cell := range row[1:] {
				if n := len(cell); n > tbl.cell {
					tbl.cell = n
				}
			}
		}
	}
	return tbl
}

func (tbl table) write(w io.Writer, rows [][]string) {
	var line strings.Builder
	for _, row := range rows {
		line.Reset()
		fmt.Fprintf(&line, "%-*s", tbl.label+1, row[0])
		for _, cell := range row[1:] {
			fmt.Fprintf(&line, "%-*s", tbl.cell+1, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}
