/*
 * box.go, part of dump-extxyz.
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

// Box holds the lower and upper simulation box bounds along each Cartesian
// axis, as supplied by the engine for the current step. Tilt factors of
// non-orthogonal boxes are not represented; the formats in this library
// only ever consume the diagonal extents.
type Box struct {
	Xlo, Xhi float64
	Ylo, Yhi float64
	Zlo, Zhi float64
}

// Extents returns the box edge lengths (hi minus lo) along x, y and z.
func (b *Box) Extents() (x, y, z float64) {
	return b.Xhi - b.Xlo, b.Yhi - b.Ylo, b.Zhi - b.Zlo
}
