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

// Package biofvmutil contains the command-line interface and
// configuration handling for biofvm simulations.
package biofvmutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/biofvm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to biofvm.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Mesh.XMin",
			usage: `
              Mesh.XMin is the lower x bound of the domain.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.YMin",
			usage: `
              Mesh.YMin is the lower y bound of the domain.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.ZMin",
			usage: `
              Mesh.ZMin is the lower z bound of the domain.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.XMax",
			usage: `
              Mesh.XMax is the upper x bound of the domain.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.YMax",
			usage: `
              Mesh.YMax is the upper y bound of the domain.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.ZMax",
			usage: `
              Mesh.ZMax is the upper z bound of the domain.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.Dx",
			usage: `
              Mesh.Dx is the target voxel edge length in the x direction. The
              actual edge length is adjusted so that the voxels exactly fill
              the domain.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.Dy",
			usage: `
              Mesh.Dy is the target voxel edge length in the y direction.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.Dz",
			usage: `
              Mesh.Dz is the target voxel edge length in the z direction.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Mesh.Units",
			usage: `
              Mesh.Units is the label for the spatial units of the domain.`,
			defaultVal: "microns",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TimeUnits",
			usage: `
              TimeUnits is the label for the time units of rates and timesteps.`,
			defaultVal: "minutes",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Substrates",
			usage: `
              Substrates is a list of the diffusible substrates to simulate. Each
              substrate has a Name, Units, DiffusionCoefficient [spatial units²/time],
              DecayRate [1/time], and InitialCondition. On the command line it is
              given as a JSON array.`,
			defaultVal: []map[string]interface{}{
				{
					"Name":                 "substrate1",
					"Units":                "dimensionless",
					"DiffusionCoefficient": 1000.0,
					"DecayRate":            0.01,
					"InitialCondition":     1.0,
				},
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Dt",
			usage: `
              Dt is the simulation timestep.`,
			defaultVal: 0.01,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxTime",
			usage: `
              MaxTime is the simulation time at which the simulation stops.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumWorkers",
			usage: `
              NumWorkers is the number of concurrent workers used for the
              calculations. If < 1, the number of available processors is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spheroid.StripWidth",
			usage: `
              Spheroid.StripWidth is the distance from the domain boundary within
              which substrates are supplied.`,
			defaultVal: 40.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spheroid.SupplyRate",
			usage: `
              Spheroid.SupplyRate is the supply rate [1/time] in the boundary strip.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spheroid.SupplyTarget",
			usage: `
              Spheroid.SupplyTarget is the density that substrates are supplied towards.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spheroid.Radius",
			usage: `
              Spheroid.Radius is the radius of the spheroid at the center of the
              domain.`,
			defaultVal: 100.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spheroid.UptakeRate",
			usage: `
              Spheroid.UptakeRate is the uptake rate [1/time] inside the spheroid.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output shapefile location. It can
              include environment variables.`,
			defaultVal: "biofvm_output.shp",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputAllLayers",
			usage: `
              If OutputAllLayers is true, output data for all voxels. If false, only
              output the lowest layer.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables maps the names of output variables to expressions of
              substrate names, X, Y, Z, Volume, and functions.`,
			defaultVal: map[string]string{
				"S1":      "substrate1",
				"S1Total": "sum(substrate1) * Volume",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDFFile",
			usage: `
              NetCDFFile is the path where a NetCDF snapshot of the final density field
              should be written. If empty, no snapshot is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path where a PNG image of the first substrate in the
              middle z layer should be written. If empty, no image is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CheckpointFile",
			usage: `
              CheckpointFile is the path where the final simulation state should be
              saved so it can be loaded later. If empty, the state is not saved.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum severity of logged messages: debug, info, warning,
              or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BIOFVM")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string, []map[string]interface{}:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("biofvm: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "biofvm",
	Short: "A parallel diffusion-decay solver for multicellular microenvironments.",
	Long: `biofvm simulates the diffusion, decay, supply and uptake of chemical
substrates in a three-dimensional tissue domain.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BIOFVM_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of biofvm.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("biofvm v%s\n", biofvm.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd runs a simulation of a spheroid in a perfused domain.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: `run simulates substrate supply in a strip along the domain boundary,
uptake in a spheroid at the domain center, and diffusion and decay
everywhere until MaxTime is reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ModelConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, c, nil, nil, nil)
	},
	DisableAutoGenTag: true,
}
