/*
Copyright © 2026 the biofvm authors.
This file is part of biofvm.

biofvm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

biofvm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with biofvm.  If not, see <http://www.gnu.org/licenses/>.
*/

package biofvm

import (
	"github.com/spatialmodel/biofvm/internal/hash"
)

// DiffusionDecaySolver advances every substrate through implicit
// diffusion-decay timesteps using locally-one-dimensional splitting:
// one tridiagonal solve per mesh line along x, then y, then z. A third
// of the decay is applied in each of the three substeps.
//
// The factored tridiagonal systems depend only on the timestep, the mesh
// spacing and dimensions, and the substrate coefficients. They are built
// on the first call to Solve and reused until one of those inputs changes
// or Invalidate is called.
type DiffusionDecaySolver struct {
	key    string
	stale  bool
	builds int

	// systems[axis][substrate]
	systems [3][]*thomas
}

// NewDiffusionDecaySolver returns a solver with no cached coefficients.
func NewDiffusionDecaySolver() *DiffusionDecaySolver {
	return &DiffusionDecaySolver{stale: true}
}

// Invalidate marks the cached coefficients as stale so that they are
// rebuilt on the next call to Solve.
func (s *DiffusionDecaySolver) Invalidate() { s.stale = true }

// Stale reports whether the coefficients will be rebuilt before the next
// sweep regardless of the cache key.
func (s *DiffusionDecaySolver) Stale() bool { return s.stale }

// Builds returns the number of times the coefficients have been built.
func (s *DiffusionDecaySolver) Builds() int { return s.builds }

// sweepKey holds every input the tridiagonal coefficients depend on.
type sweepKey struct {
	Dt      float64
	Spacing [3]float64
	Dims    [3]int
	D       []float64
	Decay   []float64
}

// Solve advances the density field of e by Δt. Configuration errors and
// factorization failures are reported before the field is modified.
func (s *DiffusionDecaySolver) Solve(e *Microenvironment, Δt float64) error {
	if err := checkTimestep(Δt); err != nil {
		return err
	}
	if e.Mesh == nil || e.Density == nil {
		return configErrorf("the mesh and density field must be initialized before solving")
	}
	if e.Density.Len() != e.Mesh.Len() || e.Density.NumSubstrates() != len(e.substrates) {
		return configErrorf("density field is %d×%d but the mesh has %d voxels and there are %d substrates",
			e.Density.Len(), e.Density.NumSubstrates(), e.Mesh.Len(), len(e.substrates))
	}
	for _, sub := range e.substrates {
		if err := sub.validate(); err != nil {
			return err
		}
	}
	key := hash.Hash(sweepKey{
		Dt:      Δt,
		Spacing: e.Mesh.Spacing(),
		Dims:    e.Mesh.Dims(),
		D:       e.DiffusionCoefficients(),
		Decay:   e.DecayRates(),
	})
	if s.stale || key != s.key {
		if err := s.build(e, Δt); err != nil {
			return err
		}
		s.key = key
		s.stale = false
	}

	m := e.Mesh
	data, stride := e.Density.raw()
	ns := e.Density.NumSubstrates()
	nw := e.workers()

	// Lines along each axis are identified by the voxel at their start.
	// The line along x through (0, j, k) starts at voxel Nx*(j + Ny*k) and
	// voxels along it are one apart; similarly for y and z.
	type axis struct {
		nLines int
		start  func(line int) int
		step   int
	}
	axes := [3]axis{
		{m.Ny * m.Nz, func(l int) int { return l * m.Nx }, 1},
		{m.Nx * m.Nz, func(l int) int { i, k := l%m.Nx, l/m.Nx; return i + m.Nx*m.Ny*k }, m.Nx},
		{m.Nx * m.Ny, func(l int) int { return l }, m.Nx * m.Ny},
	}
	for a, ax := range axes {
		systems := s.systems[a]
		step := ax.step * stride
		parallelFor(nw, ax.nLines*ns, func(_, begin, end int) {
			for u := begin; u < end; u++ {
				line, sub := u/ns, u%ns
				systems[sub].solve(data, ax.start(line)*stride+sub, step)
			}
		})
	}
	return nil
}

func (s *DiffusionDecaySolver) build(e *Microenvironment, Δt float64) error {
	dims := e.Mesh.Dims()
	h := e.Mesh.Spacing()
	var systems [3][]*thomas
	for a := 0; a < 3; a++ {
		systems[a] = make([]*thomas, len(e.substrates))
		for i, sub := range e.substrates {
			c1 := sub.DiffusionCoefficient * Δt / (h[a] * h[a])
			c2 := sub.DecayRate * Δt / 3
			t, err := newThomas(dims[a], c1, c2)
			if err != nil {
				return err
			}
			systems[a][i] = t
		}
	}
	s.systems = systems
	s.builds++
	return nil
}

// SimulateDiffusionDecay advances all substrates through one diffusion-decay
// timestep of length Δt. If an error is returned the field is unchanged.
func (e *Microenvironment) SimulateDiffusionDecay(Δt float64) error {
	if err := e.allocate(); err != nil {
		return err
	}
	return e.solver.Solve(e, Δt)
}

// DiffusionDecay returns a function that advances all substrates through
// one diffusion-decay timestep of length e.Dt.
func DiffusionDecay() DomainManipulator {
	return func(e *Microenvironment) error {
		return e.SimulateDiffusionDecay(e.Dt)
	}
}
