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

/*
Package dump holds the types a molecular-dynamics engine and a per-step
dump writer share: the simulation box bounds, the per-step writer contract,
and the error interfaces every format sub-package of this library implements.

The actual file formats live in their own sub-packages (currently only
extxyz). A format package receives an already-open sink from the engine,
never opens or closes files for writing on its own, and turns the engine's
flat per-particle record stream into formatted text. The engine remains
responsible for deciding which process writes, for aggregating per-process
buffers, and for everything else that happens around a dump step.
*/
package dump
