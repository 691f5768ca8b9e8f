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
	"fmt"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// runDebugSupportModule validates the debug support protocol: the
// reported ISA must be one the harness knows, and the maximum processor
// index and saved context size must be consistent with it.
func (h *Harness) runDebugSupportModule(env conformance_efi.HostEnvironment) Verdict {
	iface, err := env.LocateProtocol(conformance_efi.DebugSupportProtocolGUID)
	if err != nil {
		return verdictFromErr(err)
	}
	ds, ok := iface.(conformance_efi.DebugSupportProtocol)
	if !ok {
		return Fail("registered interface is not a debug support protocol")
	}

	isa := ds.Isa()
	var wordSize uint64
	switch isa {
	case conformance_efi.IsaIA32, conformance_efi.IsaARM, conformance_efi.IsaEBC:
		wordSize = 4
	case conformance_efi.IsaX64, conformance_efi.IsaAArch64, conformance_efi.IsaRV64:
		wordSize = 8
	default:
		return Failf("unknown ISA %s", isa)
	}

	maxIndex, status := ds.MaximumProcessorIndex()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_DEBUG_SUPPORT_PROTOCOL.GetMaximumProcessorIndex", status))
	}
	// An implausibly large index means the firmware handed back garbage.
	if maxIndex > 1<<16 {
		return Failf("implausible maximum processor index %d", maxIndex)
	}

	ctxSize, status := ds.ContextSize()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_DEBUG_SUPPORT_PROTOCOL.ContextSize", status))
	}
	if ctxSize == 0 {
		return Fail("saved processor context has zero size")
	}
	if ctxSize%wordSize != 0 {
		return Fail(fmt.Sprintf("saved processor context size %d is not a multiple of the %s word size", ctxSize, isa))
	}

	return Pass()
}
