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

import "math"

// RateProvider supplies the per-voxel bulk source and sink terms. Each
// method appends one value per substrate to dst[:0] and returns the
// result. Implementations must not modify the mesh or the density field.
type RateProvider interface {
	// SupplyRates returns the supply rate S of each substrate [1/time].
	SupplyRates(e *Microenvironment, voxel int, dst []float64) []float64

	// SupplyTargetDensities returns the density T each substrate is
	// supplied towards.
	SupplyTargetDensities(e *Microenvironment, voxel int, dst []float64) []float64

	// UptakeRates returns the uptake rate U of each substrate [1/time].
	UptakeRates(e *Microenvironment, voxel int, dst []float64) []float64
}

// RateFuncs adapts plain functions to the RateProvider interface. The
// scalar supply and uptake rates apply to every substrate. Nil functions
// return zero.
type RateFuncs struct {
	Supply func(e *Microenvironment, voxel int) float64
	Target func(e *Microenvironment, voxel int) []float64
	Uptake func(e *Microenvironment, voxel int) float64
}

// SupplyRates implements RateProvider.
func (r RateFuncs) SupplyRates(e *Microenvironment, voxel int, dst []float64) []float64 {
	return fill(dst, e.NumSubstrates(), r.Supply, e, voxel)
}

// SupplyTargetDensities implements RateProvider.
func (r RateFuncs) SupplyTargetDensities(e *Microenvironment, voxel int, dst []float64) []float64 {
	if r.Target == nil {
		return fill(dst, e.NumSubstrates(), nil, e, voxel)
	}
	return append(dst[:0], r.Target(e, voxel)...)
}

// UptakeRates implements RateProvider.
func (r RateFuncs) UptakeRates(e *Microenvironment, voxel int, dst []float64) []float64 {
	return fill(dst, e.NumSubstrates(), r.Uptake, e, voxel)
}

func fill(dst []float64, n int, f func(*Microenvironment, int) float64, e *Microenvironment, voxel int) []float64 {
	var v float64
	if f != nil {
		v = f(e, voxel)
	}
	dst = dst[:0]
	for i := 0; i < n; i++ {
		dst = append(dst, v)
	}
	return dst
}

// NoSources is a RateProvider with no supply and no uptake anywhere.
type NoSources struct{}

// SupplyRates implements RateProvider.
func (NoSources) SupplyRates(e *Microenvironment, _ int, dst []float64) []float64 {
	return fill(dst, e.NumSubstrates(), nil, e, 0)
}

// SupplyTargetDensities implements RateProvider.
func (NoSources) SupplyTargetDensities(e *Microenvironment, _ int, dst []float64) []float64 {
	return fill(dst, e.NumSubstrates(), nil, e, 0)
}

// UptakeRates implements RateProvider.
func (NoSources) UptakeRates(e *Microenvironment, _ int, dst []float64) []float64 {
	return fill(dst, e.NumSubstrates(), nil, e, 0)
}

// bulkScratch holds the per-voxel update coefficients so that the field
// is only modified once every voxel has been validated.
type bulkScratch struct {
	add, div []float64
}

func (b *bulkScratch) resize(n int) {
	if cap(b.add) < n {
		b.add = make([]float64, n)
		b.div = make([]float64, n)
	}
	b.add = b.add[:n]
	b.div = b.div[:n]
}

// SimulateBulkSourcesAndSinks advances the concentrations in every voxel
// by Δt under the supply and uptake terms from p:
//
//	C ← (C + Δt·S·T) / (1 + Δt·(S + U))
//
// All rates are obtained and checked before any concentration is changed,
// so if an error is returned the field is unchanged. The substrate
// coefficients are checked here too so that a step pairing this update
// with SimulateDiffusionDecay fails before either one writes.
func (e *Microenvironment) SimulateBulkSourcesAndSinks(p RateProvider, Δt float64) error {
	if err := checkTimestep(Δt); err != nil {
		return err
	}
	for _, sub := range e.substrates {
		if err := sub.validate(); err != nil {
			return err
		}
	}
	if err := e.allocate(); err != nil {
		return err
	}
	nv, ns := e.Density.Len(), e.Density.NumSubstrates()
	e.bulk.resize(nv * ns)
	add, div := e.bulk.add, e.bulk.div

	nw := e.workers()
	if nw > nv {
		nw = nv
	}
	errs := make([]error, nw)
	parallelFor(nw, nv, func(w, start, end int) {
		var s, t, u []float64
		for n := start; n < end; n++ {
			s = p.SupplyRates(e, n, s)
			t = p.SupplyTargetDensities(e, n, t)
			u = p.UptakeRates(e, n, u)
			if err := checkRates(n, ns, s, t, u); err != nil {
				errs[w] = err
				return
			}
			for i := 0; i < ns; i++ {
				add[n*ns+i] = Δt * s[i] * t[i]
				div[n*ns+i] = 1 + Δt*(s[i]+u[i])
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	data, stride := e.Density.raw()
	parallelFor(nw, nv, func(_, start, end int) {
		for n := start; n < end; n++ {
			c := data[n*stride : n*stride+ns]
			a, d := add[n*ns:(n+1)*ns], div[n*ns:(n+1)*ns]
			for i := range c {
				c[i] = (c[i] + a[i]) / d[i]
			}
		}
	})
	return nil
}

func checkRates(voxel, ns int, s, t, u []float64) error {
	for _, v := range []struct {
		name string
		vals []float64
	}{{"supply rates", s}, {"supply target densities", t}, {"uptake rates", u}} {
		if len(v.vals) != ns {
			return configErrorf("voxel %d: got %d %s but there are %d substrates",
				voxel, len(v.vals), v.name, ns)
		}
	}
	for i := 0; i < ns; i++ {
		if !(s[i] >= 0) || math.IsInf(s[i], 0) {
			return configErrorf("voxel %d: supply rate %g of substrate %d should be finite and >=0", voxel, s[i], i)
		}
		if !(u[i] >= 0) || math.IsInf(u[i], 0) {
			return configErrorf("voxel %d: uptake rate %g of substrate %d should be finite and >=0", voxel, u[i], i)
		}
		if math.IsNaN(t[i]) || math.IsInf(t[i], 0) {
			return configErrorf("voxel %d: supply target density %g of substrate %d should be finite", voxel, t[i], i)
		}
	}
	return nil
}

func checkTimestep(Δt float64) error {
	if !(Δt > 0) || math.IsInf(Δt, 0) {
		return configErrorf("timestep is %g but should be >0", Δt)
	}
	return nil
}

// BulkSourcesAndSinks returns a function that applies the supply and
// uptake terms from p over one timestep e.Dt.
func BulkSourcesAndSinks(p RateProvider) DomainManipulator {
	return func(e *Microenvironment) error {
		return e.SimulateBulkSourcesAndSinks(p, e.Dt)
	}
}
