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

// Package uniform contains a bulk source and sink model with the same
// per-substrate rates in every voxel.
package uniform

import (
	"github.com/spatialmodel/biofvm"
)

// Rates fulfils the github.com/spatialmodel/biofvm.RateProvider
// interface. Each slice holds one value per substrate.
type Rates struct {
	Supply, Target, Uptake []float64
}

// SupplyRates implements biofvm.RateProvider.
func (r Rates) SupplyRates(_ *biofvm.Microenvironment, _ int, dst []float64) []float64 {
	return append(dst[:0], r.Supply...)
}

// SupplyTargetDensities implements biofvm.RateProvider.
func (r Rates) SupplyTargetDensities(_ *biofvm.Microenvironment, _ int, dst []float64) []float64 {
	return append(dst[:0], r.Target...)
}

// UptakeRates implements biofvm.RateProvider.
func (r Rates) UptakeRates(_ *biofvm.Microenvironment, _ int, dst []float64) []float64 {
	return append(dst[:0], r.Uptake...)
}
