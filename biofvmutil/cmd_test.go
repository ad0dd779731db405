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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/biofvm"
)

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	Root.SetOutput(buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "biofvm v" + biofvm.Version; !strings.Contains(buf.String(), want) {
		t.Errorf("have %q, want %q", buf.String(), want)
	}
}

func TestRunCommand(t *testing.T) {
	dir, err := ioutil.TempDir("", "biofvm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	os.Setenv("BIOFVM_OUTDIR", dir)
	defer os.Unsetenv("BIOFVM_OUTDIR")

	Cfg.Set("config", "../cmd/biofvm/configExample.toml")
	for k, v := range map[string]interface{}{
		"Mesh.XMax":           80.0,
		"Mesh.YMax":           80.0,
		"Mesh.ZMax":           80.0,
		"Spheroid.StripWidth": 15.0,
		"Spheroid.Radius":     20.0,
		"MaxTime":             0.1,
		"NetCDFFile":          filepath.Join(dir, "snapshot.ncf"),
		"PlotFile":            filepath.Join(dir, "slice.png"),
		"CheckpointFile":      filepath.Join(dir, "state.gob"),
	} {
		Cfg.Set(k, v)
	}
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{"biofvm_output.shp", "biofvm_output.dbf", "biofvm_output.log",
		"snapshot.ncf", "slice.png", "state.gob"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "state.gob"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	e := &biofvm.Microenvironment{InitFuncs: []biofvm.DomainManipulator{biofvm.Load(f)}}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	if e.Iteration != 10 {
		t.Errorf("have %d iterations, want 10", e.Iteration)
	}
	if d := e.Mesh.Dims(); d != [3]int{8, 8, 8} {
		t.Errorf("mesh dims %v", d)
	}
	if e.Substrate(0).Name != "substrate1" {
		t.Errorf("substrate %+v", e.Substrate(0))
	}
	log, err := ioutil.ReadFile(filepath.Join(dir, "biofvm_output.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "Final total mass") {
		t.Errorf("log file is missing the final mass:\n%s", log)
	}
}
