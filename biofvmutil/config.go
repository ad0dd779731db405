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

package biofvmutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/biofvm"
	"github.com/spatialmodel/biofvm/science/spheroid"
	"github.com/spf13/cast"
)

// Config holds the parameters of a simulation.
type Config struct {
	// BoundingBox is {xmin, ymin, zmin, xmax, ymax, zmax}.
	BoundingBox [6]float64
	Dx, Dy, Dz  float64

	SpatialUnits, TimeUnits string

	Substrates []biofvm.Substrate

	Dt, MaxTime float64
	NumWorkers  int

	Spheroid spheroid.Model

	OutputFile      string
	OutputAllLayers bool
	OutputVariables map[string]string

	NetCDFFile, PlotFile, CheckpointFile string
	LogFile, LogLevel                    string
}

// ModelConfig unmarshals a viper configuration for a simulation and checks
// that it is valid.
func ModelConfig(cfg *viper.Viper) (*Config, error) {
	subs, err := getSubstrates("Substrates", cfg)
	if err != nil {
		return nil, err
	}
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return nil, err
	}
	outputVars, err := checkOutputVars(GetStringMapString("OutputVariables", cfg))
	if err != nil {
		return nil, err
	}
	c := Config{
		BoundingBox: [6]float64{
			cfg.GetFloat64("Mesh.XMin"), cfg.GetFloat64("Mesh.YMin"), cfg.GetFloat64("Mesh.ZMin"),
			cfg.GetFloat64("Mesh.XMax"), cfg.GetFloat64("Mesh.YMax"), cfg.GetFloat64("Mesh.ZMax"),
		},
		Dx:           cfg.GetFloat64("Mesh.Dx"),
		Dy:           cfg.GetFloat64("Mesh.Dy"),
		Dz:           cfg.GetFloat64("Mesh.Dz"),
		SpatialUnits: os.ExpandEnv(cfg.GetString("Mesh.Units")),
		TimeUnits:    os.ExpandEnv(cfg.GetString("TimeUnits")),
		Substrates:   subs,
		Dt:           cfg.GetFloat64("Dt"),
		MaxTime:      cfg.GetFloat64("MaxTime"),
		NumWorkers:   cfg.GetInt("NumWorkers"),
		Spheroid: spheroid.Model{
			StripWidth:   cfg.GetFloat64("Spheroid.StripWidth"),
			SupplyRate:   cfg.GetFloat64("Spheroid.SupplyRate"),
			SupplyTarget: cfg.GetFloat64("Spheroid.SupplyTarget"),
			Radius:       cfg.GetFloat64("Spheroid.Radius"),
			UptakeRate:   cfg.GetFloat64("Spheroid.UptakeRate"),
		},
		OutputFile:      outputFile,
		OutputAllLayers: cfg.GetBool("OutputAllLayers"),
		OutputVariables: outputVars,
		NetCDFFile:      os.ExpandEnv(cfg.GetString("NetCDFFile")),
		PlotFile:        os.ExpandEnv(cfg.GetString("PlotFile")),
		CheckpointFile:  os.ExpandEnv(cfg.GetString("CheckpointFile")),
		LogFile:         checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), outputFile),
		LogLevel:        cfg.GetString("LogLevel"),
	}

	vars := []float64{c.Dx, c.Dy, c.Dz, c.Dt, c.MaxTime}
	varNames := []string{"Mesh.Dx", "Mesh.Dy", "Mesh.Dz", "Dt", "MaxTime"}
	for i, v := range vars {
		if !(v > 0) {
			return nil, fmt.Errorf("biofvm: parsing configuration: %s=%g but should be >0", varNames[i], v)
		}
	}
	for a, name := range []string{"x", "y", "z"} {
		if !(c.BoundingBox[a+3] > c.BoundingBox[a]) {
			return nil, fmt.Errorf("biofvm: parsing configuration: the %s extent of the domain [%g, %g] is empty",
				name, c.BoundingBox[a], c.BoundingBox[a+3])
		}
	}
	if err := c.Spheroid.Validate(); err != nil {
		return nil, fmt.Errorf("biofvm: parsing configuration: %v", err)
	}
	return &c, nil
}

// getSubstrates returns the substrate list from a viper configuration,
// accounting for the fact that it might be a json array if it was set
// from a command line argument.
func getSubstrates(varName string, cfg *viper.Viper) ([]biofvm.Substrate, error) {
	var items []interface{}
	switch v := cfg.Get(varName).(type) {
	case string:
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&items); err != nil {
			return nil, fmt.Errorf("biofvm: parsing %s: %v", varName, err)
		}
	case []map[string]interface{}:
		for _, m := range v {
			items = append(items, m)
		}
	case []interface{}:
		items = v
	default:
		return nil, fmt.Errorf("biofvm: invalid type for %s: %#v", varName, v)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("biofvm: there are no substrates specified. Please fill in " +
			"the Substrates configuration and try again.")
	}
	o := make([]biofvm.Substrate, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("biofvm: parsing %s[%d]: %v", varName, i, err)
		}
		// Configuration keys may have been lower-cased.
		lm := make(map[string]interface{}, len(m))
		for k, v := range m {
			lm[strings.ToLower(k)] = v
		}
		s := biofvm.Substrate{
			Name:  os.ExpandEnv(cast.ToString(lm["name"])),
			Units: os.ExpandEnv(cast.ToString(lm["units"])),
		}
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"diffusioncoefficient", &s.DiffusionCoefficient},
			{"decayrate", &s.DecayRate},
			{"initialcondition", &s.InitialCondition},
		} {
			if lm[f.key] == nil {
				continue
			}
			if *f.dst, err = cast.ToFloat64E(lm[f.key]); err != nil {
				return nil, fmt.Errorf("biofvm: parsing %s[%d].%s: %v", varName, i, f.key, err)
			}
		}
		o[i] = s
	}
	return o, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	switch v := cfg.Get(varName).(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		return cast.ToStringMapString(v)
	case string:
		o := make(map[string]string)
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, v))
	}
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("biofvm: there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again.")
	}
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`biofvm: you need to specify an output file configuration variable (for example: OutputFile="output.shp")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("biofvm: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}
