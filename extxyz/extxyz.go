package extxyz

import (
	"fmt"
	"io"
	"math"
	"strconv"

	dump "github.com/ikmkht/dump-extxyz"
	"gonum.org/v1/gonum/mat"
)

const (
	sizeOne = 5       //float64 slots per particle in a packed buffer: id, type, x, y, z
	oneLine = 128     //conservative upper bound for one formatted line, in bytes
	delta   = 1048576 //growth increment for the string buffer
)

// The string buffer length must stay representable as a signed 32-bit int,
// because engines hand it to aggregation calls that take an int count.
// A variable so tests can lower the ceiling without formatting 2 GiB.
var maxSmallInt int64 = math.MaxInt32

// C's plain %g defaults to 6 significant figures; Go's does not, so the
// precision goes explicit to keep the historical output.
const formatDefault = "%s %.6g %.6g %.6g"

// Writer emits extended-XYZ frames to an already-open sink owned by the
// caller. One Writer serves one dump session on one process; it keeps its
// own type-label table and string buffer and is not safe for concurrent use.
// All session configuration (format override, geometry convention, write
// mode, coordinator flag) must happen before the first frame is emitted;
// it is frozen from then on. Replacing the type labels is the exception
// and takes effect immediately.
type Writer struct {
	out        io.Writer
	ntypes     int
	typenames  []string //1-based, slot 0 unused
	formatUser string
	format     string //frozen line format, newline included
	triclinic  bool
	buffered   bool
	me         bool //is this the coordinating process?
	inited     bool

	sbuf    []byte
	maxsbuf int

	headerChoice func(n int64, box *dump.Box) error
	packChoice   func(dst []float64, ids, types []int, x *mat.Dense, box *dump.Box)
	writeChoice  func(n int, buf []float64) error
}

// NewWriter prepares a dump session writing to out, for particle types
// 1..ntypes. The zero-value session is axis-aligned, buffered and acts as
// the coordinating process.
func NewWriter(out io.Writer, ntypes int) (*Writer, error) {
	if out == nil {
		return nil, Error{NilSink, "", []string{"NewWriter"}, true}
	}
	if ntypes < 1 {
		return nil, Error{fmt.Sprintf("%d particle types given, at least 1 needed", ntypes), "", []string{"NewWriter"}, true}
	}
	W := new(Writer)
	W.out = out
	W.ntypes = ntypes
	W.buffered = true
	W.me = true
	return W, nil
}

// SetFormat replaces the default per-line format with the given one, which
// must consume a string (the label) and three float64 (the coordinates), in
// that order. No newline should be included; one is appended at session
// start. The format is not validated: a template consuming anything other
// than those four values produces garbage lines, on the caller.
func (W *Writer) SetFormat(format string) {
	W.formatUser = format
}

// SetTriclinic selects the general (triclinic) geometry convention:
// coordinates are dumped absolute instead of shifted by the lower box bound.
func (W *Writer) SetTriclinic(t bool) {
	W.triclinic = t
}

// SetBuffered selects between the string-buffer write mode (the default)
// and line-by-line writing for the session.
func (W *Writer) SetBuffered(b bool) {
	W.buffered = b
}

// SetCoordinator tells the session whether it runs on the coordinating
// process. Only the coordinator emits frame headers; exactly one process
// per output file should have this set, which is the engine's problem.
func (W *Writer) SetCoordinator(c bool) {
	W.me = c
}

// initStyle freezes the session configuration on first use: the line
// format, the default label table (unless one was already installed) and
// the per-session strategy choices.
func (W *Writer) initStyle() {
	if W.inited {
		return
	}
	if W.formatUser != "" {
		W.format = W.formatUser + "\n"
	} else {
		W.format = formatDefault + "\n"
	}
	//backward-compatible default: the label of type i is just "i"
	if W.typenames == nil {
		W.typenames = make([]string, W.ntypes+1)
		for itype := 1; itype <= W.ntypes; itype++ {
			W.typenames[itype] = strconv.Itoa(itype)
		}
	}
	if W.buffered {
		W.writeChoice = W.writeString
	} else {
		W.writeChoice = W.WriteLines
	}
	if !W.triclinic {
		W.headerChoice = W.headerOrtho
		W.packChoice = W.packOrtho
	} else {
		W.headerChoice = W.headerTriclinic
		W.packChoice = W.packTriclinic
	}
	W.inited = true
}

// Modify applies a "dump modify" style configuration request and returns
// how many tokens of args it consumed. The only keyword understood here is
// "element", which takes one label per particle type and replaces the whole
// label table at once. Unknown keywords consume nothing, so a caller can
// hand the same token list to several dump styles.
func (W *Writer) Modify(args []string) (int, error) {
	if len(args) == 0 || args[0] != "element" {
		return 0, nil
	}
	if err := W.SetElements(args[1:]); err != nil {
		return 0, errDecorate(err, "Modify")
	}
	return W.ntypes + 1, nil
}

// SetElements replaces the label table with the first ntypes entries of
// names. On failure the previous table, default or custom, stays in place.
func (W *Writer) SetElements(names []string) error {
	if len(names) < W.ntypes {
		return Error{ElementCountMismatch, "", []string{"SetElements"}, true}
	}
	typenames := make([]string, W.ntypes+1)
	for itype := 1; itype <= W.ntypes; itype++ {
		typenames[itype] = names[itype-1]
	}
	W.typenames = typenames
	return nil
}

// Label returns the display label for the given type code. The caller
// guarantees 1 <= code <= ntypes.
func (W *Writer) Label(code int) string {
	W.initStyle()
	return W.typenames[code]
}

// WriteHeader emits the two header lines for a frame with n particles:
// the count, then the lattice descriptor built from the box extents.
// On a non-coordinating process this does nothing.
func (W *Writer) WriteHeader(n int64, box *dump.Box) error {
	W.initStyle()
	if !W.me {
		return nil
	}
	return W.headerChoice(n, box)
}

func (W *Writer) headerOrtho(n int64, box *dump.Box) error {
	x, y, z := box.Extents()
	if _, err := fmt.Fprintf(W.out, "%d\n", n); err != nil {
		return Error{err.Error(), "", []string{"WriteHeader"}, true}
	}
	if _, err := fmt.Fprintf(W.out, "Lattice=\"%g 0.0 0.0 0.0 %g 0.0 0.0 0.0 %g\" \n", x, y, z); err != nil {
		return Error{err.Error(), "", []string{"WriteHeader"}, true}
	}
	return nil
}

// The triclinic header is currently the same diagonal-only descriptor as
// the axis-aligned one. Tilt factors never make it into the file, so the
// lattice line of a genuinely non-orthogonal box is wrong; kept this way
// for compatibility with the historical output.
func (W *Writer) headerTriclinic(n int64, box *dump.Box) error {
	return W.headerOrtho(n, box)
}

// Pack fills dst with one 5-slot record per particle (identifier, type
// code, x, y, z) from the engine arrays: ids, types and the n×3 coordinate
// matrix x. In the axis-aligned convention the coordinates are shifted by
// the lower box bound on each axis; in the triclinic one they pass through
// unchanged. dst is grown if needed and returned, so a nil dst works.
func (W *Writer) Pack(dst []float64, ids, types []int, x *mat.Dense, box *dump.Box) ([]float64, error) {
	W.initStyle()
	if x == nil {
		return dst, Error{NilCoordinates, "", []string{"Pack"}, true}
	}
	r, c := x.Dims()
	if c != 3 {
		return dst, Error{fmt.Sprintf("coordinate matrix has %d columns, 3 expected", c), "", []string{"Pack"}, true}
	}
	if r != len(ids) || len(types) != len(ids) {
		return dst, Error{MismatchedSizes, "", []string{"Pack"}, true}
	}
	if cap(dst) < r*sizeOne {
		dst = make([]float64, r*sizeOne)
	} else {
		dst = dst[:r*sizeOne]
	}
	W.packChoice(dst, ids, types, x, box)
	return dst, nil
}

func (W *Writer) packOrtho(dst []float64, ids, types []int, x *mat.Dense, box *dump.Box) {
	m := 0
	for i := range ids {
		dst[m] = float64(ids[i])
		dst[m+1] = float64(types[i])
		dst[m+2] = x.At(i, 0) - box.Xlo
		dst[m+3] = x.At(i, 1) - box.Ylo
		dst[m+4] = x.At(i, 2) - box.Zlo
		m += sizeOne
	}
}

func (W *Writer) packTriclinic(dst []float64, ids, types []int, x *mat.Dense, box *dump.Box) {
	m := 0
	for i := range ids {
		dst[m] = float64(ids[i])
		dst[m+1] = float64(types[i])
		dst[m+2] = x.At(i, 0)
		dst[m+3] = x.At(i, 1)
		dst[m+4] = x.At(i, 2)
		m += sizeOne
	}
}

// ConvertString formats n packed records from mybuf into the session's
// string buffer and returns the total formatted length in bytes, or -1 if
// growing the buffer would push its capacity past the 32-bit signed limit.
// Records formatted before hitting the limit stay intact in the buffer.
// The buffer grows by a fixed increment whenever fewer than oneLine bytes
// remain; it never shrinks during the session. A format override whose
// lines exceed oneLine still grows by whatever the line actually needs,
// so the buffered output never diverges from the line-by-line one.
func (W *Writer) ConvertString(n int, mybuf []float64) int {
	W.initStyle()
	offset := 0
	m := 0
	for i := 0; i < n; i++ {
		if offset+oneLine > W.maxsbuf {
			if !W.growString() {
				return -1
			}
		}
		line := fmt.Sprintf(W.format, W.typenames[int(mybuf[m+1])], mybuf[m+2], mybuf[m+3], mybuf[m+4])
		for offset+len(line) > W.maxsbuf {
			if !W.growString() {
				return -1
			}
		}
		offset += copy(W.sbuf[offset:], line)
		m += sizeOne
	}
	return offset
}

func (W *Writer) growString() bool {
	if int64(W.maxsbuf)+delta > maxSmallInt {
		return false
	}
	W.maxsbuf += delta
	grown := make([]byte, W.maxsbuf)
	copy(grown, W.sbuf)
	W.sbuf = grown
	return true
}

// Buffer exposes the session's string buffer, so an engine can aggregate
// the per-process buffers itself after calling ConvertString. Only the
// prefix up to the length ConvertString returned holds formatted data.
func (W *Writer) Buffer() []byte {
	return W.sbuf
}

// WriteData formats and emits n packed records from buf through the write
// mode chosen for the session.
func (W *Writer) WriteData(n int, buf []float64) error {
	W.initStyle()
	return W.writeChoice(n, buf)
}

// the buffered write mode: convert into the string buffer, then emit the
// formatted bytes in one call.
func (W *Writer) writeString(n int, buf []float64) error {
	nchars := W.ConvertString(n, buf)
	if nchars < 0 {
		return Error{StringBufferTooBig, "", []string{"WriteData"}, false}
	}
	return W.WriteString(W.sbuf[:nchars])
}

// WriteString emits already-formatted bytes to the sink unchanged. A nil
// slice is a no-op; an engine aggregating several processes may legally
// hand nil to the ones that contributed nothing.
func (W *Writer) WriteString(b []byte) error {
	if b == nil {
		return nil
	}
	if _, err := W.out.Write(b); err != nil {
		return Error{err.Error(), "", []string{"WriteString"}, true}
	}
	return nil
}

// WriteLines formats n packed records from buf and writes each line
// straight to the sink, with no intermediate buffer.
func (W *Writer) WriteLines(n int, buf []float64) error {
	W.initStyle()
	m := 0
	for i := 0; i < n; i++ {
		_, err := fmt.Fprintf(W.out, W.format, W.typenames[int(buf[m+1])], buf[m+2], buf[m+3], buf[m+4])
		if err != nil {
			return Error{err.Error(), "", []string{"WriteLines"}, true}
		}
		m += sizeOne
	}
	return nil
}

//Errors

// errDecorate is a helper function that asserts that the error is this
// package's Error and decorates it with the caller's name before returning
// it. If used with any other error, it will cause a panic. The concrete
// type is needed here: going through dump.Error would decorate a copy and
// lose the caller's name.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.deco = append(err2.deco, caller)
	return err2
}

// Error is the general structure for extxyz dump errors. It fulfills
// dump.Error and dump.DumpError.
type Error struct {
	message  string
	filename string //the file associated to the session, or an empty string if the sink is not a named file.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("extxyz dump error: %s", err.message)
	}
	return fmt.Sprintf("extxyz dump, file %s, error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing session was associated, if any
func (err Error) FileName() string { return err.filename }

// Format returns the file format (always "extxyz") associated to the error
func (err Error) Format() string { return "extxyz" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	ElementCountMismatch = "Dump modify element names do not match particle types"
	StringBufferTooBig   = "Formatted output too large for the string buffer"
	NilCoordinates       = "Given nil coordinates"
	NilSink              = "Given nil output sink"
	MismatchedSizes      = "Ids, types and coordinates given don't match in size"
	ReadError            = "Error reading frame"
	WrongFormat          = "Wrong format in the extxyz file or frame"
	NotEnoughSpace       = "Not enough space in passed blocks"
	TrajUnIniRead        = "Dump file object uninitialized to read"
)
