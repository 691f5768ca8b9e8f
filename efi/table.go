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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Table signatures, from the UEFI specification, section 4.
const (
	SystemTableSignature  uint64 = 0x5453595320494249 // "IBI SYST"
	BootServicesSignature uint64 = 0x56524553544f4f42 // "BOOTSERV"
)

// TableHeaderSize is the serialized size of [TableHeader], which is what
// a valid header's HeaderSize field must cover at minimum.
const TableHeaderSize uint32 = 24

// TableHeader is the data structure that precedes all of the standard EFI
// table types.
type TableHeader struct {
	Signature  uint64
	Revision   uint32
	HeaderSize uint32
	CRC32      uint32
	Reserved   uint32
}

// Checksum computes the CRC32 of the serialized header with the CRC32
// field zeroed, which is the value a well-formed header carries in that
// field. Bindings that construct a [SystemTable] from a live firmware
// table are expected to populate the header consistently with this.
func (h TableHeader) Checksum() uint32 {
	w := new(bytes.Buffer)
	binary.Write(w, binary.LittleEndian, h.Signature)
	binary.Write(w, binary.LittleEndian, h.Revision)
	binary.Write(w, binary.LittleEndian, h.HeaderSize)
	binary.Write(w, binary.LittleEndian, uint32(0))
	binary.Write(w, binary.LittleEndian, h.Reserved)
	return crc32.ChecksumIEEE(w.Bytes())
}

// Check validates the header against the supplied signature. Any failure
// here means that the firmware contract itself is unreliable, so callers
// should treat it as fatal rather than as a recoverable call failure.
func (h TableHeader) Check(signature uint64) error {
	if h.Signature != signature {
		return fmt.Errorf("unexpected table signature %#x (expected %#x)", h.Signature, signature)
	}
	if h.HeaderSize < TableHeaderSize {
		return fmt.Errorf("table header size %d is smaller than the header itself", h.HeaderSize)
	}
	if h.Reserved != 0 {
		return errors.New("table header reserved field is not zero")
	}
	if h.CRC32 != h.Checksum() {
		return fmt.Errorf("table header CRC32 %#x doesn't match computed checksum %#x", h.CRC32, h.Checksum())
	}
	return nil
}

// BootServicesTable models the parts of the EFI boot services table that
// the harness inspects. The actual service calls are reached through the
// protocol interfaces instead.
type BootServicesTable struct {
	Hdr TableHeader
}

// SystemTable models the parts of the EFI system table that the harness
// inspects.
type SystemTable struct {
	Hdr              TableHeader
	FirmwareVendor   string
	FirmwareRevision uint32
	BootServices     *BootServicesTable
}

// Check validates the system table and the boot services table it points
// to.
func (t *SystemTable) Check() error {
	if err := t.Hdr.Check(SystemTableSignature); err != nil {
		return fmt.Errorf("invalid system table header: %w", err)
	}
	if t.BootServices == nil {
		return errors.New("system table has no boot services table")
	}
	if err := t.BootServices.Hdr.Check(BootServicesSignature); err != nil {
		return fmt.Errorf("invalid boot services table header: %w", err)
	}
	return nil
}
