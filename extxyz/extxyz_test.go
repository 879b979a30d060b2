/*
 * extxyz_test.go, part of dump-extxyz.
 *
 * Copyright 2026 ikmkht
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

package extxyz

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"testing"

	dump "github.com/ikmkht/dump-extxyz"
	"gonum.org/v1/gonum/mat"
)

// a box with the origin at zero, so packed coordinates come out unshifted.
func zerobox(x, y, z float64) *dump.Box {
	return &dump.Box{Xlo: 0, Xhi: x, Ylo: 0, Yhi: y, Zlo: 0, Zhi: z}
}

// packs n records by hand: id i+1, type 1, and easily-checked coordinates.
func testRecords(n int) []float64 {
	buf := make([]float64, n*sizeOne)
	m := 0
	for i := 0; i < n; i++ {
		buf[m] = float64(i + 1)
		buf[m+1] = 1
		buf[m+2] = 1.25 + float64(i)
		buf[m+3] = -2.5
		buf[m+4] = 3.125
		m += sizeOne
	}
	return buf
}

func TestDefaultLabels(Te *testing.T) {
	for _, ntypes := range []int{1, 3, 7} {
		W, err := NewWriter(&bytes.Buffer{}, ntypes)
		if err != nil {
			Te.Error(err)
		}
		for i := 1; i <= ntypes; i++ {
			if W.Label(i) != strconv.Itoa(i) {
				Te.Errorf("default label for type %d is %q", i, W.Label(i))
			}
		}
	}
}

func TestModifyElements(Te *testing.T) {
	W, err := NewWriter(&bytes.Buffer{}, 4)
	if err != nil {
		Te.Error(err)
	}
	//an unknown keyword consumes nothing and is not an error
	n, err := W.Modify([]string{"every", "100"})
	if n != 0 || err != nil {
		Te.Errorf("unknown keyword consumed %d tokens, err %v", n, err)
	}
	//too few labels against the default table: nothing replaced
	if _, err = W.Modify([]string{"element", "C"}); err == nil {
		Te.Error("element list shorter than the type count got through")
	}
	if derr, ok := err.(dump.DumpError); !ok || !derr.Critical() {
		Te.Errorf("label mismatch should be a critical DumpError, got %v", err)
	}
	if W.Label(2) != "2" {
		Te.Errorf("failed replacement touched the table: type 2 is now %q", W.Label(2))
	}
	//full replacement
	n, err = W.Modify([]string{"element", "C", "H", "O", "N"})
	if err != nil {
		Te.Error(err)
	}
	if n != 5 {
		Te.Errorf("element + 4 labels should consume 5 tokens, consumed %d", n)
	}
	for i, want := range []string{"C", "H", "O", "N"} {
		if W.Label(i+1) != want {
			Te.Errorf("type %d labeled %q, want %q", i+1, W.Label(i+1), want)
		}
	}
	//too few labels against the custom table: the custom table survives
	if _, err = W.Modify([]string{"element", "Fe", "Cu"}); err == nil {
		Te.Error("element list shorter than the type count got through")
	}
	if W.Label(1) != "C" || W.Label(4) != "N" {
		Te.Error("failed replacement touched the custom table")
	}
}

// an error bubbling up through Modify must keep the names of both callers.
func TestModifyDecoration(Te *testing.T) {
	W, err := NewWriter(&bytes.Buffer{}, 3)
	if err != nil {
		Te.Fatal(err)
	}
	_, err = W.Modify([]string{"element", "C"})
	if err == nil {
		Te.Fatal("element list shorter than the type count got through")
	}
	deco := err.(dump.Error).Decorate("")
	found := map[string]bool{}
	for _, d := range deco {
		found[d] = true
	}
	if !found["SetElements"] || !found["Modify"] {
		Te.Errorf("decoration lost a caller: %v", deco)
	}
}

func TestPack(Te *testing.T) {
	box := &dump.Box{Xlo: 1.0, Xhi: 11.0, Ylo: -2.0, Yhi: 8.0, Zlo: 0.0, Zhi: 10.0}
	x := mat.NewDense(1, 3, []float64{3.0, 3.0, 3.0})
	ids, types := []int{7}, []int{2}

	W, _ := NewWriter(&bytes.Buffer{}, 2)
	buf, err := W.Pack(nil, ids, types, x, box)
	if err != nil {
		Te.Error(err)
	}
	want := []float64{7, 2, 2.0, 5.0, 3.0}
	for i, v := range want {
		if buf[i] != v {
			Te.Errorf("axis-aligned pack slot %d: got %g, want %g", i, buf[i], v)
		}
	}

	Wt, _ := NewWriter(&bytes.Buffer{}, 2)
	Wt.SetTriclinic(true)
	buf, err = Wt.Pack(buf, ids, types, x, box)
	if err != nil {
		Te.Error(err)
	}
	want = []float64{7, 2, 3.0, 3.0, 3.0}
	for i, v := range want {
		if buf[i] != v {
			Te.Errorf("triclinic pack slot %d: got %g, want %g", i, buf[i], v)
		}
	}

	//the usual abuse
	if _, err = W.Pack(nil, ids, types, nil, box); err == nil {
		Te.Error("nil coordinates got through")
	}
	if _, err = W.Pack(nil, []int{1, 2}, types, x, box); err == nil {
		Te.Error("mismatched id count got through")
	}
}

func TestHeader(Te *testing.T) {
	out := &bytes.Buffer{}
	W, _ := NewWriter(out, 1)
	if err := W.WriteHeader(42, zerobox(10, 5, 2)); err != nil {
		Te.Error(err)
	}
	want := "42\nLattice=\"10 0.0 0.0 0.0 5 0.0 0.0 0.0 2\" \n"
	if out.String() != want {
		Te.Errorf("header:\n%q\nwant:\n%q", out.String(), want)
	}

	//the triclinic header is the same diagonal-only descriptor
	outt := &bytes.Buffer{}
	Wt, _ := NewWriter(outt, 1)
	Wt.SetTriclinic(true)
	if err := Wt.WriteHeader(42, zerobox(10, 5, 2)); err != nil {
		Te.Error(err)
	}
	if outt.String() != want {
		Te.Errorf("triclinic header diverged:\n%q", outt.String())
	}

	//not the coordinating process: nothing at all
	outn := &bytes.Buffer{}
	Wn, _ := NewWriter(outn, 1)
	Wn.SetCoordinator(false)
	if err := Wn.WriteHeader(42, zerobox(10, 5, 2)); err != nil {
		Te.Error(err)
	}
	if outn.Len() != 0 {
		Te.Errorf("non-coordinator wrote a header: %q", outn.String())
	}
}

// The buffered and the line-by-line write modes must produce the same bytes.
func TestBufferedMatchesLines(Te *testing.T) {
	for _, n := range []int{0, 1, 1000} {
		buf := testRecords(n)
		outb := &bytes.Buffer{}
		Wb, _ := NewWriter(outb, 1)
		if err := Wb.WriteData(n, buf); err != nil {
			Te.Error(err)
		}
		outl := &bytes.Buffer{}
		Wl, _ := NewWriter(outl, 1)
		Wl.SetBuffered(false)
		if err := Wl.WriteData(n, buf); err != nil {
			Te.Error(err)
		}
		if !bytes.Equal(outb.Bytes(), outl.Bytes()) {
			Te.Errorf("buffered and line-by-line output differ for n=%d", n)
		}
		fmt.Println("write modes agree on", n, "records,", outb.Len(), "bytes")
	}
}

func TestFormatOverride(Te *testing.T) {
	out := &bytes.Buffer{}
	W, _ := NewWriter(out, 2)
	W.SetFormat("%s %8.3f %8.3f %8.3f")
	if _, err := W.Modify([]string{"element", "C", "O"}); err != nil {
		Te.Error(err)
	}
	buf := []float64{7, 2, 2.0, 5.0, 3.0}
	if err := W.WriteData(1, buf); err != nil {
		Te.Error(err)
	}
	want := fmt.Sprintf("%s %8.3f %8.3f %8.3f\n", "O", 2.0, 5.0, 3.0)
	if out.String() != want {
		Te.Errorf("got %q, want %q", out.String(), want)
	}
}

// A format override can make lines wider than the conservative per-line
// bound; near the end of the buffer such a line needs its own growth check,
// or its tail gets cut. The two write modes must still agree byte for byte.
func TestWideFormatBuffered(Te *testing.T) {
	//200 bytes per line: 5242 lines land exactly where the per-line bound
	//is still satisfied but the full line no longer fits the increment.
	format := "%s %65.6f %65.6f %65.6f"
	n := 5500
	buf := testRecords(n)
	outb := &bytes.Buffer{}
	Wb, _ := NewWriter(outb, 1)
	Wb.SetFormat(format)
	if err := Wb.WriteData(n, buf); err != nil {
		Te.Error(err)
	}
	outl := &bytes.Buffer{}
	Wl, _ := NewWriter(outl, 1)
	Wl.SetFormat(format)
	Wl.SetBuffered(false)
	if err := Wl.WriteData(n, buf); err != nil {
		Te.Error(err)
	}
	if !bytes.Equal(outb.Bytes(), outl.Bytes()) {
		Te.Error("buffered and line-by-line output differ under a wide format")
	}
	fmt.Println("write modes agree on", outb.Len(), "bytes of wide lines")
}

// Formatting more than the initial buffer increment must grow the buffer
// and still return the right length.
func TestStringBufferGrowth(Te *testing.T) {
	n := 100000 //well past one growth increment at ~20 bytes a line
	buf := testRecords(n)
	W, _ := NewWriter(io.Discard, 1)
	nchars := W.ConvertString(n, buf)
	if nchars < 0 {
		Te.Fatal("ConvertString hit the size ceiling on a modest batch")
	}
	out := &bytes.Buffer{}
	Wl, _ := NewWriter(out, 1)
	Wl.SetBuffered(false)
	if err := Wl.WriteData(n, buf); err != nil {
		Te.Error(err)
	}
	if nchars != out.Len() {
		Te.Errorf("ConvertString returned %d, line-by-line wrote %d bytes", nchars, out.Len())
	}
	if !bytes.Equal(W.Buffer()[:nchars], out.Bytes()) {
		Te.Error("buffer content and line-by-line output differ")
	}
	if W.maxsbuf <= delta {
		Te.Errorf("buffer never grew past one increment: %d", W.maxsbuf)
	}
	fmt.Println("grew the string buffer to", W.maxsbuf, "bytes for", nchars, "bytes of output")
}

// Pushing the buffer capacity past the (lowered) 32-bit style ceiling must
// report the sentinel, leaving the records formatted before the failure
// intact in the buffer.
func TestStringBufferCeiling(Te *testing.T) {
	old := maxSmallInt
	maxSmallInt = delta //one increment and nothing more
	defer func() { maxSmallInt = old }()

	n := 70000
	buf := testRecords(n)
	W, _ := NewWriter(io.Discard, 1)
	if nchars := W.ConvertString(n, buf); nchars != -1 {
		Te.Fatalf("expected the -1 sentinel, got %d", nchars)
	}

	//replay the growth rule to know how much must have been formatted
	expected := &bytes.Buffer{}
	Wl, _ := NewWriter(expected, 1)
	Wl.SetBuffered(false)
	if err := Wl.WriteData(n, buf); err != nil {
		Te.Error(err)
	}
	offset, maxsbuf, m := 0, 0, 0
	lines := expected.Bytes()
	for i := 0; i < n; i++ {
		if offset+oneLine > maxsbuf {
			if int64(maxsbuf)+delta > maxSmallInt {
				break
			}
			maxsbuf += delta
		}
		next := bytes.IndexByte(lines[m:], '\n') + 1
		offset += next
		m += next
	}
	if offset == 0 {
		Te.Fatal("the replay formatted nothing, the test is broken")
	}
	if !bytes.Equal(W.Buffer()[:offset], lines[:offset]) {
		Te.Error("records formatted before the ceiling were corrupted")
	}
	fmt.Println("ceiling hit after", offset, "bytes, earlier records intact")
}

// a failed growth must not move the capacity either
func TestGrowStringCeiling(Te *testing.T) {
	old := maxSmallInt
	maxSmallInt = delta - 1
	defer func() { maxSmallInt = old }()
	W, _ := NewWriter(io.Discard, 1)
	if W.growString() {
		Te.Error("growth past the ceiling reported success")
	}
	if W.maxsbuf != 0 || W.sbuf != nil {
		Te.Error("failed growth mutated the buffer")
	}
}

func TestWriteString(Te *testing.T) {
	out := &bytes.Buffer{}
	W, _ := NewWriter(out, 1)
	if err := W.WriteString(nil); err != nil {
		Te.Error(err)
	}
	if out.Len() != 0 {
		Te.Error("nil write produced output")
	}
	if err := W.WriteString([]byte("H 0 0 0\n")); err != nil {
		Te.Error(err)
	}
	if out.String() != "H 0 0 0\n" {
		Te.Errorf("got %q", out.String())
	}
}

func BenchmarkConvertString(B *testing.B) {
	n := 10000
	buf := testRecords(n)
	W, _ := NewWriter(io.Discard, 1)
	B.ResetTimer()
	for i := 0; i < B.N; i++ {
		if W.ConvertString(n, buf) < 0 {
			B.Fatal("size ceiling hit")
		}
	}
}

func BenchmarkWriteLines(B *testing.B) {
	n := 10000
	buf := testRecords(n)
	W, _ := NewWriter(io.Discard, 1)
	W.SetBuffered(false)
	B.ResetTimer()
	for i := 0; i < B.N; i++ {
		if err := W.WriteData(n, buf); err != nil {
			B.Fatal(err)
		}
	}
}
