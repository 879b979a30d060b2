/*
 * interfaces.go, part of dump-extxyz.
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

package dump

// FrameWriter is the contract an engine drives once per dump step:
// emit the frame header, then hand over the packed record buffer.
// The buffer holds 5 float64 slots per particle: identifier, type code
// and the three coordinates, already selected and sorted by the engine.
type FrameWriter interface {

	//WriteHeader emits the per-step header for n particles. Writers
	//only act on the coordinating process; elsewhere this is a no-op.
	WriteHeader(n int64, box *Box) error

	//WriteData formats and emits n packed records from buf.
	WriteData(n int, buf []float64) error
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call appends the given string (the caller's name, plus any extra info) to the decoration slice and returns it. An empty string just returns the current value.
}

// DumpError is the interface for errors on a dump session.
type DumpError interface {
	Error
	Critical() bool
	FileName() string //the file associated to the failing session, or an empty string if the sink is not a named file.
	Format() string
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so they can be
// filtered in a typeswitch that looks for this interface.
type LastFrameError interface {
	DumpError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other DumpError's
}
