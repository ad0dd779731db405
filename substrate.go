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
	"math"
)

// Substrate is a diffusible species tracked as a concentration field.
type Substrate struct {
	Name  string
	Units string

	DiffusionCoefficient float64 // [spatial units² / time units]
	DecayRate            float64 // [1 / time units]

	// InitialCondition is the concentration the InitialDensities setup
	// step assigns to every voxel.
	InitialCondition float64
}

func (s Substrate) validate() error {
	if !(s.DiffusionCoefficient > 0) || math.IsInf(s.DiffusionCoefficient, 0) {
		return configErrorf("substrate %q: diffusion coefficient is %g but should be >0",
			s.Name, s.DiffusionCoefficient)
	}
	if !(s.DecayRate >= 0) || math.IsInf(s.DecayRate, 0) {
		return configErrorf("substrate %q: decay rate is %g but should be >=0",
			s.Name, s.DecayRate)
	}
	return nil
}

// AddSubstrate registers a new substrate. Substrates cannot be added
// after the density field has been allocated.
func (e *Microenvironment) AddSubstrate(s Substrate) error {
	if e.Density != nil {
		return configErrorf("cannot add substrate %q after the density field has been allocated", s.Name)
	}
	if s.Name == "" {
		return configErrorf("substrate %d has no name", len(e.substrates))
	}
	for _, s2 := range e.substrates {
		if s2.Name == s.Name {
			return configErrorf("duplicate substrate name %q", s.Name)
		}
	}
	e.substrates = append(e.substrates, s)
	e.invalidate()
	return nil
}

// NumSubstrates returns the number of registered substrates.
func (e *Microenvironment) NumSubstrates() int { return len(e.substrates) }

// Substrate returns substrate i.
func (e *Microenvironment) Substrate(i int) Substrate { return e.substrates[i] }

// SubstrateNames returns the substrate names in registry order.
func (e *Microenvironment) SubstrateNames() []string {
	o := make([]string, len(e.substrates))
	for i, s := range e.substrates {
		o[i] = s.Name
	}
	return o
}

// SubstrateIndex returns the registry index of the named substrate.
func (e *Microenvironment) SubstrateIndex(name string) (int, error) {
	for i, s := range e.substrates {
		if s.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("biofvm: no substrate named %q", name)
}

// DiffusionCoefficients returns the diffusion coefficient of every substrate.
func (e *Microenvironment) DiffusionCoefficients() []float64 {
	o := make([]float64, len(e.substrates))
	for i, s := range e.substrates {
		o[i] = s.DiffusionCoefficient
	}
	return o
}

// DecayRates returns the decay rate of every substrate.
func (e *Microenvironment) DecayRates() []float64 {
	o := make([]float64, len(e.substrates))
	for i, s := range e.substrates {
		o[i] = s.DecayRate
	}
	return o
}

// SetDiffusionCoefficient changes the diffusion coefficient of substrate i.
// The new value is checked on the next bulk or diffusion step.
func (e *Microenvironment) SetDiffusionCoefficient(i int, d float64) {
	e.substrates[i].DiffusionCoefficient = d
	e.invalidate()
}

// SetDecayRate changes the decay rate of substrate i.
func (e *Microenvironment) SetDecayRate(i int, λ float64) {
	e.substrates[i].DecayRate = λ
	e.invalidate()
}

func (e *Microenvironment) invalidate() {
	if e.solver != nil {
		e.solver.Invalidate()
	}
}
