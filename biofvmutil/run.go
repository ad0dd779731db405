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
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/biofvm"
	"github.com/spf13/cobra"
)

// newLogger returns a logger that writes to w at the named level.
func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("biofvm: invalid LogLevel: %v", err)
	}
	l := logrus.New()
	l.Out = w
	l.Level = lvl
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	return l, nil
}

// Run runs a simulation of the spheroid workload described by c.
// addInit, addRun, and addCleanup specify functions beyond the default
// functions to run at initialization, runtime, and cleanup, respectively.
func Run(cmd *cobra.Command, c *Config, addInit, addRun, addCleanup []biofvm.DomainManipulator) error {
	startTime := time.Now()

	logfile, err := os.Create(c.LogFile)
	if err != nil {
		return fmt.Errorf("biofvm: problem creating log file: %v", err)
	}
	defer logfile.Close()
	log, err := newLogger(io.MultiWriter(cmd.OutOrStdout(), logfile), c.LogLevel)
	if err != nil {
		return err
	}

	// Start a function to receive and print status messages.
	cLog := make(chan *biofvm.SimulationStatus)
	cLogTick := time.Tick(2 * time.Second)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		for msg := range cLog {
			select {
			case <-cLogTick:
				log.Info(msg.String())
			default:
				log.Debug(msg.String())
			}
		}
		wg.Done()
	}()
	defer func() { // Wait for the logging to finish.
		close(cLog)
		wg.Wait()
	}()

	o, err := biofvm.NewOutputter(c.OutputFile, c.OutputAllLayers, c.OutputVariables, nil)
	if err != nil {
		return err
	}
	log.Info("Parsed output variable expressions")

	mesh, err := biofvm.NewCartesianMesh(c.BoundingBox, c.Dx, c.Dy, c.Dz, c.SpatialUnits)
	if err != nil {
		return err
	}

	cleanup := []biofvm.DomainManipulator{o.Output()}
	if c.NetCDFFile != "" {
		cleanup = append(cleanup, biofvm.NetCDF(c.NetCDFFile))
	}
	if c.PlotFile != "" {
		cleanup = append(cleanup, biofvm.PlotSliceFile(c.PlotFile, c.Substrates[0].Name, mesh.Nz/2))
	}
	if c.CheckpointFile != "" {
		cleanup = append(cleanup, saveFile(c.CheckpointFile))
	}

	e := &biofvm.Microenvironment{
		Name:       "spheroid",
		TimeUnits:  c.TimeUnits,
		NumWorkers: c.NumWorkers,
		InitFuncs: append([]biofvm.DomainManipulator{
			biofvm.UseMesh(mesh),
			biofvm.AddSubstrates(c.Substrates...),
			biofvm.InitialDensities(),
			biofvm.SetTimestep(c.Dt),
			o.CheckOutputVars(),
		}, addInit...),
		RunFuncs: append([]biofvm.DomainManipulator{
			biofvm.BulkSourcesAndSinks(c.Spheroid),
			biofvm.DiffusionDecay(),
			biofvm.AdvanceTime(),
			biofvm.Log(cLog),
			biofvm.StopAt(c.MaxTime),
		}, addRun...),
		CleanupFuncs: append(cleanup, addCleanup...),
	}

	log.WithFields(logrus.Fields{
		"voxels":     mesh.Len(),
		"dims":       fmt.Sprintf("%dx%dx%d", mesh.Nx, mesh.Ny, mesh.Nz),
		"substrates": len(c.Substrates),
	}).Info("Initializing model")
	if err = e.Init(); err != nil {
		return fmt.Errorf("biofvm: problem initializing model: %v", err)
	}
	for i := 0; i < e.NumSubstrates(); i++ {
		sLog := log.WithField("substrate", e.Substrate(i).Name)
		d, err := e.DiffusionCoefficientSI(i)
		if err != nil {
			sLog.Debugf("Skipping SI conversion: %v", err)
			continue
		}
		l, err := e.DiffusionLength(i)
		if err != nil {
			return err
		}
		sLog.WithFields(logrus.Fields{
			"diffusion coefficient": fmt.Sprintf("%.4g", d),
			"diffusion length":      fmt.Sprintf("%.4g", l),
		}).Info("Substrate properties")
	}

	if err = e.Run(); err != nil {
		return fmt.Errorf("biofvm: problem running simulation: %v", err)
	}

	for i, m := range e.TotalMass() {
		log.WithField("substrate", e.Substrate(i).Name).Infof("Final total mass: %g", m)
	}

	if err = e.Cleanup(); err != nil {
		return fmt.Errorf("biofvm: problem shutting down model: %v", err)
	}

	log.Infof("Simulated %g %s in %d iterations; elapsed time: %s",
		e.Time, e.TimeUnits, e.Iteration, time.Since(startTime))
	return nil
}

// saveFile returns a function that saves the simulation state to path.
func saveFile(path string) biofvm.DomainManipulator {
	return func(e *biofvm.Microenvironment) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("biofvm: creating checkpoint file: %v", err)
		}
		if err = biofvm.Save(f)(e); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}
