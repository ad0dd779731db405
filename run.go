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
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// AdvanceTime returns a function that increments the simulation time by
// one timestep and counts the iteration. It should run after all of the
// functions that change the field during a timestep.
func AdvanceTime() DomainManipulator {
	return func(e *Microenvironment) error {
		e.Time += e.Dt
		e.Iteration++
		return nil
	}
}

// StopAt returns a function that marks the simulation as done once the
// elapsed time reaches tMax. Times within half a timestep of tMax count
// as reaching it, so accumulated rounding in e.Time does not add or drop
// a step.
func StopAt(tMax float64) DomainManipulator {
	return func(e *Microenvironment) error {
		if e.Time >= tMax-e.Dt/2 {
			e.Done = true
		}
		return nil
	}
}

// StopAfter returns a function that marks the simulation as done after
// n iterations.
func StopAfter(n int) DomainManipulator {
	return func(e *Microenvironment) error {
		if e.Iteration >= n {
			e.Done = true
		}
		return nil
	}
}

// RunPeriodically returns a function that runs f whenever at least
// interval simulation time has passed since it last ran. f also runs on
// the first call.
func RunPeriodically(interval float64, f DomainManipulator) DomainManipulator {
	first := true
	var last float64
	return func(e *Microenvironment) error {
		if first || e.Time-last >= interval-e.Dt/2 {
			first = false
			last = e.Time
			return f(e)
		}
		return nil
	}
}

// TotalMass returns the total amount of each substrate in the domain
// (Σ concentration × voxel volume).
func (e *Microenvironment) TotalMass() []float64 {
	nS := e.Density.NumSubstrates()
	o := make([]float64, nS)
	data, stride := e.Density.raw()
	for n := 0; n < e.Density.Len(); n++ {
		floats.Add(o, data[n*stride:n*stride+nS])
	}
	floats.Scale(e.Mesh.Dx*e.Mesh.Dy*e.Mesh.Dz, o)
	return o
}

// SimulationStatus holds information about the progress of a simulation.
type SimulationStatus struct {
	Iteration int
	Time, Dt  float64
	TimeUnits string

	Walltime, StepWalltime time.Duration

	// Substrates and Mass hold the name and total mass of each substrate.
	Substrates []string
	Mass       []float64
}

func (s *SimulationStatus) String() string {
	mass := make([]string, len(s.Substrates))
	for i, n := range s.Substrates {
		mass[i] = fmt.Sprintf("%s=%.6g", n, s.Mass[i])
	}
	return fmt.Sprintf("Iteration %-4d  walltime=%6.3gh  Δwalltime=%4.2gs  "+
		"timestep=%g%s  time=%.4g%s  mass: %s",
		s.Iteration, s.Walltime.Hours(), s.StepWalltime.Seconds(),
		s.Dt, s.TimeUnits, s.Time, s.TimeUnits, strings.Join(mass, " "))
}

// Log sends simulation status messages to c.
func Log(c chan *SimulationStatus) DomainManipulator {
	startTime := time.Now()
	timeStepTime := time.Now()

	return func(e *Microenvironment) error {
		c <- &SimulationStatus{
			Iteration:    e.Iteration,
			Time:         e.Time,
			Dt:           e.Dt,
			TimeUnits:    e.TimeUnits,
			Walltime:     time.Since(startTime),
			StepWalltime: time.Since(timeStepTime),
			Substrates:   e.SubstrateNames(),
			Mass:         e.TotalMass(),
		}
		timeStepTime = time.Now()
		return nil
	}
}
