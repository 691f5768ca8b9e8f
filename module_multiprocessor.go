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
	"sync/atomic"
	"time"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/poll"
)

// enumerationBound caps the per-processor enumeration loop so that a
// firmware that never returns EFI_NOT_FOUND can't hang the module.
const enumerationBound = 1 << 16

// runMultiProcessorModule validates the MP services protocol. The
// processor count is cross-checked against an independent per-processor
// enumeration, exactly one BSP must exist, and if any application
// processors are enabled a function is dispatched on all of them. A
// topology of one processor is legitimate and passes.
func (h *Harness) runMultiProcessorModule(env conformance_efi.HostEnvironment) Verdict {
	iface, err := env.LocateProtocol(conformance_efi.MPServicesProtocolGUID)
	if err != nil {
		return verdictFromErr(err)
	}
	mp, ok := iface.(conformance_efi.MPServicesProtocol)
	if !ok {
		return Fail("registered interface is not a MP services protocol")
	}

	total, enabled, status := mp.NumberOfProcessors()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_MP_SERVICES_PROTOCOL.GetNumberOfProcessors", status))
	}
	switch {
	case total == 0:
		return Fail("firmware reports zero logical processors")
	case enabled == 0:
		return Fail("firmware reports zero enabled processors")
	case enabled > total:
		return Failf("firmware reports more enabled processors (%d) than exist (%d)", enabled, total)
	}

	// Enumerate each processor individually. This is a second,
	// independent query path whose result must agree with the count
	// above.
	var count, bsps uint32
	for index := uint32(0); ; index++ {
		if index >= enumerationBound {
			return Fail("processor enumeration did not terminate")
		}
		info, status := mp.ProcessorInfo(index)
		if status == conformance_efi.StatusNotFound {
			break
		}
		if !status.Ok() {
			return verdictFromErr(conformance_efi.CallError("EFI_MP_SERVICES_PROTOCOL.GetProcessorInfo", status))
		}
		count++
		if info.IsBSP() {
			bsps++
		}
	}
	if count != total {
		return Failf("processor enumeration found %d processors but the firmware reports %d", count, total)
	}
	if bsps != 1 {
		return Failf("expected exactly one bootstrap processor, found %d", bsps)
	}

	whoami, status := mp.WhoAmI()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_MP_SERVICES_PROTOCOL.WhoAmI", status))
	}
	if whoami >= total {
		return Failf("WhoAmI returned out of range processor index %d", whoami)
	}
	info, status := mp.ProcessorInfo(whoami)
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_MP_SERVICES_PROTOCOL.GetProcessorInfo", status))
	}
	if !info.IsBSP() {
		return Fail("the harness is not executing on the bootstrap processor")
	}

	if enabled == 1 {
		// Nothing to dispatch on a single processor topology.
		return Pass()
	}

	// Dispatch a function on every enabled AP. The protocol call waits
	// for completion itself, but the wait for the completion count is
	// still bounded here so that a firmware returning early can't wedge
	// the harness.
	var completed uint32
	status = mp.StartupAllAPs(func(processor uint32) {
		atomic.AddUint32(&completed, 1)
	}, uint64(time.Second/time.Microsecond))
	switch status {
	case conformance_efi.StatusSuccess:
		// ok
	case conformance_efi.StatusNotStarted:
		return Failf("firmware reports %d enabled processors but has no application processors to dispatch on", enabled)
	default:
		return verdictFromErr(conformance_efi.CallError("EFI_MP_SERVICES_PROTOCOL.StartupAllAPs", status))
	}

	if err := poll.Until(time.Second, time.Millisecond, func() (bool, error) {
		return atomic.LoadUint32(&completed) == enabled-1, nil
	}); err != nil {
		if err == poll.ErrTimeout && atomic.LoadUint32(&completed) != enabled-1 {
			return Failf("dispatched function ran on %d of %d application processors", atomic.LoadUint32(&completed), enabled-1)
		}
		return verdictFromErr(err)
	}

	return Pass()
}
