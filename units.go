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

	"github.com/ctessum/unit"
)

// Size of one spatial or time unit in SI units, keyed by label. Labels
// not listed here are still accepted but cannot be converted.
var (
	lengthLabels = map[string]float64{
		"m": 1, "meter": 1, "meters": 1,
		"cm": 1.e-2, "mm": 1.e-3,
		"um": 1.e-6, "µm": 1.e-6, "μm": 1.e-6, "micron": 1.e-6, "microns": 1.e-6,
		"nm": 1.e-9,
	}
	timeLabels = map[string]float64{
		"s": 1, "sec": 1, "second": 1, "seconds": 1,
		"min": 60, "minute": 60, "minutes": 60,
		"h": 3600, "hour": 3600, "hours": 3600,
		"day": 86400, "days": 86400,
	}
)

var meter2PerSecond = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -1}

func (e *Microenvironment) siScales() (length, time float64, err error) {
	if e.Mesh == nil {
		return 0, 0, configErrorf("mesh has not been created")
	}
	length, ok := lengthLabels[e.Mesh.Units]
	if !ok {
		return 0, 0, fmt.Errorf("biofvm: unknown spatial units %q", e.Mesh.Units)
	}
	time, ok = timeLabels[e.TimeUnits]
	if !ok {
		return 0, 0, fmt.Errorf("biofvm: unknown time units %q", e.TimeUnits)
	}
	return length, time, nil
}

// DiffusionCoefficientSI returns the diffusion coefficient of substrate i
// in m²/s. It returns an error if the spatial or time units label of e is
// not recognized.
func (e *Microenvironment) DiffusionCoefficientSI(i int) (*unit.Unit, error) {
	l, t, err := e.siScales()
	if err != nil {
		return nil, err
	}
	d := unit.New(e.substrates[i].DiffusionCoefficient*l*l/t, meter2PerSecond)
	return d, d.Check(meter2PerSecond)
}

// DecayRateSI returns the decay rate of substrate i in 1/s.
func (e *Microenvironment) DecayRateSI(i int) (*unit.Unit, error) {
	_, t, err := e.siScales()
	if err != nil {
		return nil, err
	}
	return unit.New(e.substrates[i].DecayRate/t, unit.Herz), nil
}

// DiffusionLength returns sqrt(D/λ) for substrate i in meters: the
// distance over which a steadily supplied concentration falls to 1/e of
// its value. It is +Inf for substrates that do not decay.
func (e *Microenvironment) DiffusionLength(i int) (*unit.Unit, error) {
	d, err := e.DiffusionCoefficientSI(i)
	if err != nil {
		return nil, err
	}
	λ, err := e.DecayRateSI(i)
	if err != nil {
		return nil, err
	}
	if λ.Value() == 0 {
		return unit.New(math.Inf(1), unit.Meter), nil
	}
	l2 := unit.Div(d, λ)
	if err := l2.Check(unit.Meter2); err != nil {
		return nil, err
	}
	return unit.New(math.Sqrt(l2.Value()), unit.Meter), nil
}
