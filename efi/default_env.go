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

	efi "github.com/canonical/go-efilib"
)

// ErrNoFirmwareBinding is returned from every call on the default host
// environment until a platform binding registers itself with
// [SetDefaultEnv].
var ErrNoFirmwareBinding = errors.New("no firmware binding is registered in this build")

type unavailableEnv struct{}

func (unavailableEnv) SystemTable() (*SystemTable, error) {
	return nil, ErrNoFirmwareBinding
}

func (unavailableEnv) LocateProtocol(guid efi.GUID) (interface{}, error) {
	return nil, ErrNoFirmwareBinding
}

func (unavailableEnv) HandlesForProtocol(guid efi.GUID) ([]Handle, error) {
	return nil, ErrNoFirmwareBinding
}

// DefaultEnv is the host environment that the runner binary uses. It is
// set by the platform binding that is linked into the final image (the
// bindings themselves live outside of this module); without one, every
// call fails with ErrNoFirmwareBinding.
var DefaultEnv HostEnvironment = unavailableEnv{}

// SetDefaultEnv registers the supplied host environment as DefaultEnv.
// Platform bindings call this from an init function.
func SetDefaultEnv(env HostEnvironment) {
	DefaultEnv = env
}
