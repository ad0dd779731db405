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
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every error caused by invalid
	// mesh, substrate, timestep, or rate-provider input. A step that
	// fails with it has left the density field unchanged.
	ErrConfiguration = errors.New("biofvm: invalid configuration")

	// ErrDegeneratePivot indicates that a tridiagonal system could not
	// be factored. It should never happen for valid parameters.
	ErrDegeneratePivot = errors.New("biofvm: degenerate tridiagonal pivot")
)

func configErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, a...)...)
}
