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

// Package efitest provides mock firmware environments for testing the
// conformance harness.
package efitest

import (
	efi "github.com/canonical/go-efilib"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// MockHostEnvironment provides a mock firmware environment. The zero
// value has a well-formed system table and an empty handle database;
// use the With* methods to install protocols and override tables.
type MockHostEnvironment struct {
	Table     *conformance_efi.SystemTable
	TableErr  error
	Protocols map[efi.GUID]interface{}
	Handles   map[efi.GUID][]conformance_efi.Handle

	// LocateErr, if set, is returned from every LocateProtocol call,
	// standing in for a corrupted handle database.
	LocateErr error
}

// NewMockHostEnvironment returns a new MockHostEnvironment with a valid
// system table and no protocols installed.
func NewMockHostEnvironment() *MockHostEnvironment {
	return &MockHostEnvironment{
		Table:     MakeSystemTable(),
		Protocols: make(map[efi.GUID]interface{}),
		Handles:   make(map[efi.GUID][]conformance_efi.Handle),
	}
}

// WithProtocol installs the supplied protocol interface under the
// supplied GUID, on a single fresh handle.
func (e *MockHostEnvironment) WithProtocol(guid efi.GUID, iface interface{}) *MockHostEnvironment {
	e.Protocols[guid] = iface
	e.Handles[guid] = append(e.Handles[guid], conformance_efi.Handle(0x1000+uint64(len(e.Handles))))
	return e
}

// WithoutProtocol removes any interface registered under the supplied
// GUID.
func (e *MockHostEnvironment) WithoutProtocol(guid efi.GUID) *MockHostEnvironment {
	delete(e.Protocols, guid)
	delete(e.Handles, guid)
	return e
}

// SystemTable implements [conformance_efi.HostEnvironment.SystemTable].
func (e *MockHostEnvironment) SystemTable() (*conformance_efi.SystemTable, error) {
	if e.TableErr != nil {
		return nil, e.TableErr
	}
	return e.Table, nil
}

// LocateProtocol implements [conformance_efi.HostEnvironment.LocateProtocol].
func (e *MockHostEnvironment) LocateProtocol(guid efi.GUID) (interface{}, error) {
	if e.LocateErr != nil {
		return nil, e.LocateErr
	}
	iface, exists := e.Protocols[guid]
	if !exists {
		return nil, conformance_efi.ErrProtocolNotFound
	}
	return iface, nil
}

// HandlesForProtocol implements [conformance_efi.HostEnvironment.HandlesForProtocol].
func (e *MockHostEnvironment) HandlesForProtocol(guid efi.GUID) ([]conformance_efi.Handle, error) {
	if e.LocateErr != nil {
		return nil, e.LocateErr
	}
	return e.Handles[guid], nil
}

// MakeSystemTable returns a well-formed mock system table with correct
// header checksums.
func MakeSystemTable() *conformance_efi.SystemTable {
	bs := &conformance_efi.BootServicesTable{
		Hdr: conformance_efi.TableHeader{
			Signature:  conformance_efi.BootServicesSignature,
			Revision:   2<<16 | 100,
			HeaderSize: conformance_efi.TableHeaderSize,
		},
	}
	bs.Hdr.CRC32 = bs.Hdr.Checksum()

	table := &conformance_efi.SystemTable{
		Hdr: conformance_efi.TableHeader{
			Signature:  conformance_efi.SystemTableSignature,
			Revision:   2<<16 | 100,
			HeaderSize: conformance_efi.TableHeaderSize,
		},
		FirmwareVendor:   "EDK II",
		FirmwareRevision: 0x10000,
		BootServices:     bs,
	}
	table.Hdr.CRC32 = table.Hdr.Checksum()
	return table
}
