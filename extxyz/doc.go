/*
 * doc.go, part of dump-extxyz.
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

//Package extxyz writes (and reads back) per-step particle dumps in an
//extended-XYZ variant. The writer is meant to be embedded in a simulation
//engine: the engine owns the particle arrays, the box bounds and the output
//file, and drives the writer once per dump step.

/******************** Format Specification   ***************************************************

A dump file contains one frame per step. Each frame starts with a line
holding the number of particles in the step, followed by a comment line
with the lattice descriptor:

	Lattice="xx 0.0 0.0 0.0 yy 0.0 0.0 0.0 zz"

where xx, yy and zz are the box edge lengths along each axis (upper bound
minus lower bound). Only the diagonal of the lattice matrix is written,
also for non-orthogonal boxes; the six off-diagonal entries are always
literal zeros. There is a single trailing space after the closing quote.

After the header comes one line per particle:

	label x y z

label is the display name of the particle type. By default it is the
decimal type code itself ("1", "2", ...); the user may replace the whole
label set with element symbols or any other strings. The coordinates are
written with 6 significant figures by default. In an axis-aligned frame
they are shifted so the box origin is at zero; in a triclinic frame they
are written as-is.

A frame written through the internal string buffer and a frame written
line by line are byte-identical.

***************************************************************************************************/

package extxyz
