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

package efi

import (
	"errors"
	"fmt"

	efi "github.com/canonical/go-efilib"
)

// Handle corresponds to an EFI_HANDLE - an opaque identity for a firmware
// managed object that one or more protocol interfaces are installed on.
type Handle uint64

var (
	// ErrProtocolNotFound is returned from HostEnvironment.LocateProtocol
	// if no interface is registered with the supplied GUID. Many protocols
	// are optional depending on the firmware build, so this is an expected
	// outcome rather than an error in the usual sense.
	ErrProtocolNotFound = errors.New("no protocol interface registered with the supplied GUID")
)

// CorruptStateError is returned from HostEnvironment implementations when
// the system table or the protocol handle database is malformed. Unlike
// protocol absence this indicates that the firmware contract itself is
// unreliable, and callers are expected to give up rather than carry on
// querying the environment.
type CorruptStateError struct {
	err error
}

func NewCorruptStateError(err error) *CorruptStateError {
	return &CorruptStateError{err: err}
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("firmware state is corrupted: %v", e.err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.err
}

// HostEnvironment is the harness's view of the firmware. The protocol
// interfaces returned from LocateProtocol are defined in this package;
// how they are actually backed is the binding's business.
//
// Implementations must be read-only with respect to the handle database:
// locating a protocol must not install, uninstall or reconfigure
// anything.
type HostEnvironment interface {
	// SystemTable returns the EFI system table. The returned table is
	// never partially initialized - implementations return an error
	// instead.
	SystemTable() (*SystemTable, error)

	// LocateProtocol returns the protocol interface registered with the
	// supplied GUID, ErrProtocolNotFound if there is none, or a
	// *CorruptStateError if the handle database cannot be walked.
	LocateProtocol(guid efi.GUID) (interface{}, error)

	// HandlesForProtocol returns the handles that the protocol with the
	// supplied GUID is installed on. An empty slice with a nil error
	// means the protocol isn't installed anywhere.
	HandlesForProtocol(guid efi.GUID) ([]Handle, error)
}
