// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package conformance

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// runCoreModule validates core UEFI table access. Unlike the optional
// subsystems, none of what it checks is allowed to be absent, so every
// problem here is a failure rather than a skip. The individual checks
// are independent of each other and all of them are reported.
func (h *Harness) runCoreModule(env conformance_efi.HostEnvironment) Verdict {
	table, err := env.SystemTable()
	if err != nil {
		return Failf("cannot obtain system table: %v", err)
	}

	var errs error
	if table.FirmwareVendor == "" {
		errs = multierr.Append(errs, errors.New("system table has an empty firmware vendor"))
	}
	if major := table.Hdr.Revision >> 16; major < 2 {
		errs = multierr.Append(errs, fmt.Errorf("system table declares a pre-UEFI-2.0 revision (%d.%d)", major, table.Hdr.Revision&0xffff))
	}

	// There must be at least one implementation of simple text output
	// (the console that the firmware itself logs to).
	handles, err := env.HandlesForProtocol(conformance_efi.SimpleTextOutputProtocolGUID)
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("cannot obtain handles for simple text output: %v", err))
	case len(handles) == 0:
		errs = multierr.Append(errs, errors.New("no handle implements simple text output"))
	default:
		// The same protocol must also resolve through the by-identity
		// lookup path. This protocol is mandatory, so absence is a
		// failure here, not a skip.
		if _, err := env.LocateProtocol(conformance_efi.SimpleTextOutputProtocolGUID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cannot locate simple text output by identity: %v", err))
		}
	}

	if errs != nil {
		return Fail(errs.Error())
	}
	return Pass()
}
