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
	"fmt"
	"runtime"
	"sync"
)

// Version gives the version number.
const Version = "0.1.0"

// Microenvironment holds the current state of a simulation: the mesh,
// the substrate registry, the density field, and the functions that
// advance them.
type Microenvironment struct {
	// Name is a label for the simulation.
	Name string

	// TimeUnits is a label for the time units of rates and timesteps.
	TimeUnits string

	// Mesh is the computational grid.
	Mesh *CartesianMesh

	// Density holds the substrate concentrations. It is allocated by
	// Init or by the InitialDensities setup step.
	Density *DensityField

	// Dt is the timestep used by the run-time manipulators.
	Dt float64

	// Time is the elapsed simulation time and Iteration is the number
	// of completed timesteps.
	Time      float64
	Iteration int

	// NumWorkers is the number of goroutines used for parallel
	// calculations. If < 1, runtime.GOMAXPROCS(0) is used.
	NumWorkers int

	// InitFuncs are functions to be called in the given order
	// at the beginning of the simulation.
	InitFuncs []DomainManipulator

	// RunFuncs are functions to be called in the given order repeatedly
	// until "Done" is true. Therefore, the simulation will not end until
	// one of the functions sets "Done" to true.
	RunFuncs []DomainManipulator

	// CleanupFuncs are functions to be called in the given order
	// at the end of the simulation.
	CleanupFuncs []DomainManipulator

	// Done specifies whether the simulation is finished.
	Done bool

	substrates []Substrate
	solver     *DiffusionDecaySolver
	bulk       bulkScratch
}

// DomainManipulator is a class of functions that operate on the entire
// microenvironment.
type DomainManipulator func(e *Microenvironment) error

// VoxelManipulator is a class of functions that operate on the substrate
// vector c of a single voxel.
type VoxelManipulator func(e *Microenvironment, voxel int, c []float64, Δt float64)

// Init initializes the simulation by running e.InitFuncs and then making
// sure the mesh, substrates, density field and solver are in place.
func (e *Microenvironment) Init() error {
	for _, f := range e.InitFuncs {
		if err := f(e); err != nil {
			return err
		}
	}
	if e.Mesh == nil {
		return configErrorf("no mesh has been specified")
	}
	if len(e.substrates) == 0 {
		return configErrorf("no substrates have been registered")
	}
	if err := e.allocate(); err != nil {
		return err
	}
	if e.Density.Len() != e.Mesh.Len() || e.Density.NumSubstrates() != len(e.substrates) {
		return configErrorf("density field is %d×%d but the mesh has %d voxels and %d substrates",
			e.Density.Len(), e.Density.NumSubstrates(), e.Mesh.Len(), len(e.substrates))
	}
	for _, s := range e.substrates {
		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Run carries out the simulation by running e.RunFuncs until e.Done is true.
func (e *Microenvironment) Run() error {
	for !e.Done {
		for _, f := range e.RunFuncs {
			if err := f(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running e.CleanupFuncs.
func (e *Microenvironment) Cleanup() error {
	for _, f := range e.CleanupFuncs {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}

// allocate creates the density field and solver if they do not exist yet.
func (e *Microenvironment) allocate() error {
	if e.solver == nil {
		e.solver = NewDiffusionDecaySolver()
	}
	if e.Density != nil {
		return nil
	}
	if e.Mesh == nil {
		return configErrorf("the mesh must be set before the density field is allocated")
	}
	var err error
	e.Density, err = NewDensityField(e.Mesh.Len(), len(e.substrates))
	return err
}

// Solver returns the diffusion-decay solver, creating it if necessary.
func (e *Microenvironment) Solver() *DiffusionDecaySolver {
	if e.solver == nil {
		e.solver = NewDiffusionDecaySolver()
	}
	return e.solver
}

func (e *Microenvironment) workers() int {
	if e.NumWorkers > 0 {
		return e.NumWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// parallelFor splits [0, n) into contiguous ranges, runs f on each range
// concurrently using up to nWorkers goroutines, and waits for all of them
// to finish.
func parallelFor(nWorkers, n int, f func(worker, start, end int)) {
	if nWorkers > n {
		nWorkers = n
	}
	if nWorkers <= 1 {
		if n > 0 {
			f(0, 0, n)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(nWorkers)
	for w := 0; w < nWorkers; w++ {
		start := w * n / nWorkers
		end := (w + 1) * n / nWorkers
		go func(w, start, end int) {
			f(w, start, end)
			wg.Done()
		}(w, start, end)
	}
	wg.Wait()
}

// Calculations returns a function that concurrently runs a series of
// calculations on all of the voxels in the domain.
func Calculations(calculators ...VoxelManipulator) DomainManipulator {
	return func(e *Microenvironment) error {
		if e.Density == nil {
			return fmt.Errorf("biofvm: the density field has not been allocated")
		}
		parallelFor(e.workers(), e.Density.Len(), func(_, start, end int) {
			for n := start; n < end; n++ {
				c := e.Density.Voxel(n)
				for _, f := range calculators {
					f(e, n, c, e.Dt)
				}
			}
		})
		return nil
	}
}

// UseMesh sets the computational mesh.
func UseMesh(m *CartesianMesh) DomainManipulator {
	return func(e *Microenvironment) error {
		if e.Density != nil {
			return configErrorf("cannot replace the mesh after the density field has been allocated")
		}
		e.Mesh = m
		e.invalidate()
		return nil
	}
}

// UniformMesh creates a mesh covering bounds with the given resolution
// along every axis.
func UniformMesh(bounds [6]float64, resolution float64, units string) DomainManipulator {
	return func(e *Microenvironment) error {
		m, err := NewUniformMesh(bounds, resolution, units)
		if err != nil {
			return err
		}
		return UseMesh(m)(e)
	}
}

// AddSubstrates registers the given substrates in order.
func AddSubstrates(substrates ...Substrate) DomainManipulator {
	return func(e *Microenvironment) error {
		for _, s := range substrates {
			if err := e.AddSubstrate(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// InitialDensities allocates the density field if needed and sets every
// voxel to the InitialCondition of each substrate.
func InitialDensities() DomainManipulator {
	return func(e *Microenvironment) error {
		if err := e.allocate(); err != nil {
			return err
		}
		for i, s := range e.substrates {
			e.Density.FillSubstrate(i, s.InitialCondition)
		}
		return nil
	}
}

// SetTimestep sets the timestep used by the run-time manipulators.
func SetTimestep(Δt float64) DomainManipulator {
	return func(e *Microenvironment) error {
		if err := checkTimestep(Δt); err != nil {
			return err
		}
		e.Dt = Δt
		return nil
	}
}
