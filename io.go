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
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"gonum.org/v1/gonum/floats"
)

// Outputter is a holder for output parameters.
//
// fileName contains the path where the output will be saved.
//
// If allLayers is true, output will contain data for all of the voxels,
// otherwise only the lowest (k = 0) layer is returned.
//
// outputVariables maps the names of the variables for which data
// should be returned to expressions that define how the
// requested data should be calculated. Expressions can use substrate
// names, the voxel variables X, Y, Z and Volume, and functions.
// sum(v) and mean(v), where v is a model variable, are replaced
// by the sum or mean of v over the output voxels.
type Outputter struct {
	fileName        string
	allLayers       bool
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction

	expressions    map[string]*govaluate.EvaluableExpression
	aggregates     map[string]aggregate
	modelVariables []string
}

// aggregate is a domain-wide reduction of a model variable.
type aggregate struct {
	f        func([]float64) float64
	variable string
}

var aggregateFuncs = map[string]func([]float64) float64{
	"sum":  floats.Sum,
	"mean": func(v []float64) float64 { return floats.Sum(v) / float64(len(v)) },
}

var aggregateRegexp = regexp.MustCompile(`\b(sum|mean)\(\s*([A-Za-z_]\w*)\s*\)`)

// voxelVariables are the model variables available in addition to the
// substrate names.
var voxelVariables = []string{"X", "Y", "Z", "Volume"}

// NewOutputter initializes a new Outputter holder and adds a set of
// default output functions: exp(x), log(x), sqrt(x), and abs(x).
func NewOutputter(fileName string, allLayers bool, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":  unaryFunc("exp", math.Exp),
		"log":  unaryFunc("log", math.Log),
		"sqrt": unaryFunc("sqrt", math.Sqrt),
		"abs":  unaryFunc("abs", math.Abs),
	}
	for key, val := range outputFunctions {
		funcs[key] = val
	}
	if len(outputVariables) == 0 {
		return nil, fmt.Errorf("biofvm: there are no output variables")
	}

	o := &Outputter{
		fileName:        fileName,
		allLayers:       allLayers,
		outputVariables: make(map[string]string),
		outputFunctions: funcs,
		expressions:     make(map[string]*govaluate.EvaluableExpression),
		aggregates:      make(map[string]aggregate),
	}
	var vars []string
	for name, expr := range outputVariables {
		expr = aggregateRegexp.ReplaceAllStringFunc(expr, func(m string) string {
			sm := aggregateRegexp.FindStringSubmatch(m)
			key := sm[1] + "_" + sm[2]
			o.aggregates[key] = aggregate{f: aggregateFuncs[sm[1]], variable: sm[2]}
			vars = append(vars, sm[2])
			return key
		})
		o.outputVariables[name] = expr
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("biofvm: output variable %s: %v", name, err)
		}
		o.expressions[name] = e
		for _, v := range e.Vars() {
			if _, ok := o.aggregates[v]; !ok {
				vars = append(vars, v)
			}
		}
	}
	o.modelVariables = removeDuplicates(vars)
	sort.Strings(o.modelVariables)
	return o, nil
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("biofvm: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("biofvm: invalid argument %v for function '%s'", arg[0], name)
		}
		return f(v), nil
	}
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// OutputOptions returns the names of the model variables that can be used
// in output expressions.
func (e *Microenvironment) OutputOptions() []string {
	return append(e.SubstrateNames(), voxelVariables...)
}

func (e *Microenvironment) checkModelVars(g ...string) error {
	ops := make(map[string]struct{})
	for _, n := range e.OutputOptions() {
		ops[n] = struct{}{}
	}
	for _, v := range g {
		if _, ok := ops[v]; !ok {
			return fmt.Errorf("biofvm: undefined variable name '%s'", v)
		}
	}
	return nil
}

// checkOutputNames checks (1) if any output variable names exceed 10 characters
// and (2) if any output variable names include characters that are unsupported
// in shapefile field names.
func checkOutputNames(o map[string]string) error {
	valid := regexp.MustCompile(`^[A-Za-z]\w*$`)
	for key := range o {
		long := len(key) > 10
		badChar := !valid.MatchString(key)
		switch {
		case long && badChar:
			return fmt.Errorf("biofvm: output variable name '%s' exceeds 10 characters and includes unsupported character(s)", key)
		case long:
			return fmt.Errorf("biofvm: output variable name '%s' exceeds 10 characters", key)
		case badChar:
			return fmt.Errorf("biofvm: output variable name '%s' includes unsupported characters", key)
		}
	}
	return nil
}

// CheckOutputVars ensures the output variables can be calculated.
func (o *Outputter) CheckOutputVars() DomainManipulator {
	return func(e *Microenvironment) error {
		if err := e.checkModelVars(o.modelVariables...); err != nil {
			return err
		}
		return checkOutputNames(o.outputVariables)
	}
}

// outputVoxels returns the number of voxels included in the output.
// Voxels in the lowest layer come first in the voxel ordering.
func (o *Outputter) outputVoxels(e *Microenvironment) int {
	if o.allLayers {
		return e.Mesh.Len()
	}
	return e.Mesh.Nx * e.Mesh.Ny
}

// modelVariable returns the values of model variable name for the
// first n voxels.
func (e *Microenvironment) modelVariable(name string, n int) ([]float64, error) {
	o := make([]float64, n)
	switch name {
	case "X", "Y", "Z":
		a := map[string]int{"X": 0, "Y": 1, "Z": 2}[name]
		for i := range o {
			o[i] = e.Mesh.Voxels[i].Center[a]
		}
	case "Volume":
		for i := range o {
			o[i] = e.Mesh.Voxels[i].Volume
		}
	default:
		s, err := e.SubstrateIndex(name)
		if err != nil {
			return nil, err
		}
		for i := range o {
			o[i] = e.Density.Get(i, s)
		}
	}
	return o, nil
}

// Results returns the values of the output variables in o for each output
// voxel, in voxel order.
func (e *Microenvironment) Results(o *Outputter) (map[string][]float64, error) {
	n := o.outputVoxels(e)
	vars := make(map[string][]float64)
	for _, v := range o.modelVariables {
		d, err := e.modelVariable(v, n)
		if err != nil {
			return nil, err
		}
		vars[v] = d
	}
	params := make(map[string]interface{})
	for k, a := range o.aggregates {
		params[k] = a.f(vars[a.variable])
	}

	results := make(map[string][]float64)
	for name, expr := range o.expressions {
		r := make([]float64, n)
		for i := range r {
			for v, d := range vars {
				params[v] = d[i]
			}
			val, err := expr.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("biofvm: evaluating output variable %s: %v", name, err)
			}
			f, ok := val.(float64)
			if !ok {
				return nil, fmt.Errorf("biofvm: output variable %s evaluated to non-numeric value %v", name, val)
			}
			r[i] = f
		}
		results[name] = r
	}
	return results, nil
}

// Output returns a function that writes the output variables to a
// shapefile of voxel footprints.
func (o *Outputter) Output() DomainManipulator {
	return func(e *Microenvironment) error {
		results, err := e.Results(o)
		if err != nil {
			return err
		}

		vars := make([]string, 0, len(results))
		for v := range results {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		fields := make([]goshp.Field, len(vars))
		for i, v := range vars {
			fields[i] = goshp.FloatField(v, 14, 8)
		}

		// remove extension and replace it with .shp
		fileName := strings.TrimSuffix(o.fileName, filepath.Ext(o.fileName)) + ".shp"
		shape, err := shp.NewEncoderFromFields(fileName, goshp.POLYGON, fields...)
		if err != nil {
			return fmt.Errorf("biofvm: error creating output shapefile: %v", err)
		}
		defer shape.Close()
		for i := 0; i < o.outputVoxels(e); i++ {
			outFields := make([]interface{}, len(vars))
			for j, v := range vars {
				outFields[j] = results[v][i]
			}
			if err = shape.EncodeFields(e.Mesh.VoxelPolygon(i), outFields...); err != nil {
				return fmt.Errorf("biofvm: error writing output shapefile: %v", err)
			}
		}
		return nil
	}
}
