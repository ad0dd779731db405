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
	"io"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// layerGrid is a plotter.GridXYZ for one substrate in one z layer.
type layerGrid struct {
	m      *CartesianMesh
	values []float64 // i + Nx*j
}

func (g layerGrid) Dims() (c, r int)  { return g.m.Nx, g.m.Ny }
func (g layerGrid) Z(c, r int) float64 { return g.values[c+g.m.Nx*r] }

// X and Y extrapolate past the mesh because the heat map asks for the
// neighbouring center of the last column and row.
func (g layerGrid) X(c int) float64 { return g.m.BoundingBox[0] + (float64(c)+0.5)*g.m.Dx }
func (g layerGrid) Y(r int) float64 { return g.m.BoundingBox[1] + (float64(r)+0.5)*g.m.Dy }

func (g layerGrid) minMax() (float64, float64) {
	return floats.Min(g.values), floats.Max(g.values)
}

// PlotSlice writes a PNG heat map of substrate s in z layer k to w.
func (e *Microenvironment) PlotSlice(w io.Writer, s, k int) error {
	m := e.Mesh
	if k < 0 || k >= m.Nz {
		return fmt.Errorf("biofvm: layer %d out of range [0, %d)", k, m.Nz)
	}
	if s < 0 || s >= e.NumSubstrates() {
		return fmt.Errorf("biofvm: substrate %d out of range [0, %d)", s, e.NumSubstrates())
	}
	g := layerGrid{m: m, values: make([]float64, m.Nx*m.Ny)}
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			g.values[i+m.Nx*j] = e.Density.Get(m.Index(i, j, k), s)
		}
	}

	cm := moreland.ExtendedBlackBody()
	lo, hi := g.minMax()
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)

	p, err := plot.New()
	if err != nil {
		return err
	}
	sub := e.Substrate(s)
	p.Title.Text = fmt.Sprintf("%s, z=%.4g %s, t=%.4g %s", sub.Name, m.ZCoordinates[k], m.Units, e.Time, e.TimeUnits)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min, h.Max = lo, hi
	p.Add(h)

	l, err := plot.New()
	if err != nil {
		return err
	}
	l.Add(&plotter.ColorBar{ColorMap: cm})
	l.HideY()
	l.X.Padding = 0
	l.X.Label.Text = sub.Units

	const width, height, barHeight = 5 * vg.Inch, 5 * vg.Inch, vg.Inch / 2
	c := vgimg.New(width, height+barHeight)
	dc := draw.New(c)
	top := draw.Canvas{Canvas: dc.Canvas, Rectangle: vg.Rectangle{
		Min: vg.Point{X: dc.Min.X, Y: dc.Min.Y + barHeight},
		Max: dc.Max,
	}}
	bottom := draw.Canvas{Canvas: dc.Canvas, Rectangle: vg.Rectangle{
		Min: dc.Min,
		Max: vg.Point{X: dc.Max.X, Y: dc.Min.Y + barHeight},
	}}
	p.Draw(top)
	l.Draw(bottom)
	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}

// PlotSliceFile returns a function that writes a PNG heat map of the
// named substrate in z layer k to the file at path.
func PlotSliceFile(path, substrate string, k int) DomainManipulator {
	return func(e *Microenvironment) error {
		s, err := e.SubstrateIndex(substrate)
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err = e.PlotSlice(f, s, k); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}
