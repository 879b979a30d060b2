/*
 * read.go, part of dump-extxyz.
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
 *
 */

package extxyz

import (
	"bufio"
	"compress/gzip"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// Reader reads back a dump file written by this package, frame by frame.
// Unlike the Writer, which gets an open sink from the engine, the Reader
// opens the file itself: dump files compressed after the fact with zstd
// (.zst/.zstd extension) or gzip (.gz) are decompressed transparently,
// anything else is read as plain text.
type Reader struct {
	f        *os.File
	z        io.ReadCloser //nil when the file is plain text
	h        *bufio.Reader
	natoms   int
	filename string
	readable bool
}

// This will cause additional indirections, but each Read on the decoder
// takes long enough to make those delays irrelevant.
// Also, why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

// Close closes the object. It can not be used after this call
func (z zstdql) Close() error {
	z.closeql()
	return nil
}

// New opens an extxyz dump file for reading and returns a handle to it.
func New(name string) (*Reader, error) {
	R := new(Reader)
	R.natoms = -1 //just so we know if things don't work
	R.filename = name
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), R.filename, []string{"os.Open", "New"}, true}
	}
	intermediate := bufio.NewReader(R.f)
	temp := strings.Split(name, ".")
	switch strings.ToLower(temp[len(temp)-1]) {
	case "zst", "zstd":
		d, err := zstd.NewReader(intermediate)
		if err != nil {
			return nil, Error{"Can't prepare decompression: " + err.Error(), R.filename, []string{"New"}, true}
		}
		R.z = &zstdql{d.Close, d}
	case "gz":
		R.z, err = gzip.NewReader(intermediate)
		if err != nil {
			return nil, Error{"Can't prepare decompression: " + err.Error(), R.filename, []string{"New"}, true}
		}
	default:
		//plain text, hopefully
	}
	if R.z != nil {
		R.h = bufio.NewReader(R.z)
	} else {
		R.h = intermediate
	}
	R.readable = true
	return R, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (R *Reader) Readable() bool {
	return R.readable
}

// Len returns the number of particles in the last frame read, or -1 if no
// frame has been read yet. Frames in a dump may differ in particle count.
func (R *Reader) Len() int {
	return R.natoms
}

// Close closes the file and marks the handle unreadable.
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	if R.z != nil {
		R.z.Close()
	}
	R.f.Close()
	R.readable = false
}

// Next reads the next frame, returning the per-particle labels in file
// order. If c is not nil it must have 3 columns and at least as many rows
// as the frame has particles; the coordinates are stored there. A nil c
// skips the frame, still checking it for correctness. If box is given with
// at least 9 elements, the lattice descriptor is parsed into box[0] in
// row-major order. Returns a dump.LastFrameError at the normal end of the
// file.
func (R *Reader) Next(c *mat.Dense, box ...[]float64) ([]string, error) {
	if !R.readable {
		return nil, Error{TrajUnIniRead, R.filename, []string{"Next"}, true}
	}
	line, err := R.h.ReadString('\n')
	if err != nil {
		//EOF with nothing read is not an actual error, the dump just ended.
		if err == io.EOF && line == "" {
			R.Close()
			return nil, newlastFrameError(R.filename, "Next")
		}
		return nil, Error{ReadError + ": " + err.Error(), R.filename, []string{"Next"}, true}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, Error{WrongFormat + ": can't read the particle count: " + err.Error(), R.filename, []string{"Next"}, true}
	}
	if natoms < 0 {
		return nil, Error{WrongFormat + ": negative particle count in frame: " + strconv.Itoa(natoms), R.filename, []string{"Next"}, true}
	}
	R.natoms = natoms
	comment, err := R.h.ReadString('\n')
	if err != nil {
		return nil, Error{ReadError + ": frame cut short at the comment line", R.filename, []string{"Next"}, true}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		readLattice(comment, box[0], R.filename)
	}
	if c != nil {
		r, cols := c.Dims()
		if cols != 3 || r < natoms {
			return nil, Error{NotEnoughSpace, R.filename, []string{"Next"}, true}
		}
	}
	labels := make([]string, natoms)
	for i := 0; i < natoms; i++ {
		line, err = R.h.ReadString('\n')
		if err != nil {
			return nil, Error{ReadError + ": frame cut short at particle line " + strconv.Itoa(i), R.filename, []string{"Next"}, true}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, Error{WrongFormat + ": too few fields in: " + line, R.filename, []string{"Next"}, true}
		}
		labels[i] = fields[0]
		if c == nil {
			continue //frame skipped, content read but not saved
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, Error{WrongFormat + ": can't parse coordinate: " + err.Error(), R.filename, []string{"Next"}, true}
			}
			c.Set(i, j, v)
		}
	}
	return labels, nil
}

// readLattice parses the Lattice="..." descriptor of a comment line into
// the 9 elements of b. A missing or malformed descriptor zeroes b and logs
// a notice; no error is returned, frames without box information are legal.
func readLattice(comment string, b []float64, filename string) {
	zero := func() {
		for i := range b[:9] {
			b[i] = 0.0
		}
	}
	open := strings.Index(comment, "Lattice=\"")
	if open < 0 {
		zero()
		log.Printf("Dump file %s does not contain box information in a frame", filename) //just a heads-up
		return
	}
	rest := comment[open+len("Lattice=\""):]
	closing := strings.Index(rest, "\"")
	if closing < 0 {
		zero()
		log.Printf("Unterminated lattice descriptor in a frame of dump file %s", filename)
		return
	}
	fields := strings.Fields(rest[:closing])
	if len(fields) < 9 {
		zero()
		log.Printf("Dump file %s does not contain (correct) box information: %s", filename, fields)
		return
	}
	for j, v := range fields[:9] {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			//if any value is broken we drop the whole box, it's all or nothing.
			zero()
			log.Printf("Failed to read box in a frame from %s", filename)
			return
		}
		b[j] = f
	}
}

// lastFrameError implements dump.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "extxyz" }

func (E lastFrameError) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
