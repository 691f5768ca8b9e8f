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
	"bytes"
	"fmt"

	"github.com/canonical/go-tpm2"
	"github.com/canonical/tcglog-parser"
	"go.uber.org/multierr"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// validateEventLog performs the format agnostic checks on a TCG event
// log: it must contain at least one measurement, every event digest must
// correspond to an algorithm that the log header declares and have that
// algorithm's size, and EV_SEPARATOR digests must be reproducible from
// their event data.
func validateEventLog(log *tcglog.Log) (err error) {
	measurements := 0
	for i, ev := range log.Events {
		if ev.EventType == tcglog.EventTypeNoAction {
			// EV_NO_ACTION events are informational and not measured.
			continue
		}
		measurements += 1

		for alg, digest := range ev.Digests {
			if !log.Algorithms.Contains(alg) {
				err = multierr.Append(err, fmt.Errorf("event %d has a digest for algorithm %v which is not declared in the log header", i, alg))
				continue
			}
			if len(digest) != alg.Size() {
				err = multierr.Append(err, fmt.Errorf("event %d has a digest of %d bytes for algorithm %v, expected %d", i, len(digest), alg, alg.Size()))
			}
		}

		if ev.EventType != tcglog.EventTypeSeparator {
			continue
		}
		data, ok := ev.Data.(*tcglog.SeparatorEventData)
		if !ok {
			err = multierr.Append(err, fmt.Errorf("event %d has invalid EV_SEPARATOR event data", i))
			continue
		}
		if data.IsError() {
			err = multierr.Append(err, fmt.Errorf("EV_SEPARATOR event for PCR %d indicates an error occurred", ev.PCRIndex))
			continue
		}
		for alg, digest := range ev.Digests {
			if !alg.Available() {
				continue
			}
			h := alg.NewHash()
			if werr := data.Write(h); werr != nil {
				err = multierr.Append(err, fmt.Errorf("cannot serialize EV_SEPARATOR event data for PCR %d: %w", ev.PCRIndex, werr))
				break
			}
			if !bytes.Equal(digest, h.Sum(nil)) {
				err = multierr.Append(err, fmt.Errorf("EV_SEPARATOR event for PCR %d has an inconsistent %v digest", ev.PCRIndex, alg))
			}
		}
	}
	if measurements == 0 {
		err = multierr.Append(err, fmt.Errorf("log contains no measurement events"))
	}
	return err
}

// runTPMV1Module validates the TCG protocol for TPM 1.2 devices and its
// event log. Absence of the protocol or of a discrete device results in a
// skip, not a failure, because the feature legitimately depends on the
// platform having a TPM 1.2.
func (h *Harness) runTPMV1Module(env conformance_efi.HostEnvironment) Verdict {
	iface, err := env.LocateProtocol(conformance_efi.TCGProtocolGUID)
	if err != nil {
		return verdictFromErr(err)
	}
	tcg, ok := iface.(conformance_efi.TCGProtocol)
	if !ok {
		return Fail("registered interface is not a TCG protocol")
	}

	present, status := tcg.TPMPresent()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_TCG_PROTOCOL.StatusCheck", status))
	}
	if !present {
		return Skip("TPM 1.2 device not present")
	}

	log, err := tcg.EventLog()
	if err != nil {
		return Failf("cannot obtain event log: %v", err)
	}

	var logErr error
	if log.Spec.PlatformType != tcglog.PlatformTypeEFI || log.Spec.Major != 1 || log.Spec.Minor != 2 {
		logErr = multierr.Append(logErr, fmt.Errorf("log has spec %d.%d for platform type %d, expected an EFI 1.2 log", log.Spec.Major, log.Spec.Minor, log.Spec.PlatformType))
	}
	if len(log.Algorithms) != 1 || log.Algorithms[0] != tpm2.HashAlgorithmSHA1 {
		logErr = multierr.Append(logErr, fmt.Errorf("a TCG 1.2 format log must declare SHA-1 and nothing else, got %v", log.Algorithms))
	}
	logErr = multierr.Append(logErr, validateEventLog(log))
	if logErr != nil {
		return Fail(logErr.Error())
	}
	return Pass()
}

// tcg2AlgBits maps event log digest algorithms to the corresponding
// capability bitmap bits from the TCG EFI protocol specification.
var tcg2AlgBits = map[tpm2.HashAlgorithmId]uint32{
	tpm2.HashAlgorithmSHA1:   conformance_efi.TCG2HashAlgSHA1,
	tpm2.HashAlgorithmSHA256: conformance_efi.TCG2HashAlgSHA256,
	tpm2.HashAlgorithmSHA384: conformance_efi.TCG2HashAlgSHA384,
	tpm2.HashAlgorithmSHA512: conformance_efi.TCG2HashAlgSHA512,
}

// runTPMV2Module validates the TCG2 protocol for TPM 2.0 devices: its
// advertised capability must be coherent, and the crypto agile event log
// must declare only algorithms the device supports and pass the common
// log checks.
func (h *Harness) runTPMV2Module(env conformance_efi.HostEnvironment) Verdict {
	iface, err := env.LocateProtocol(conformance_efi.TCG2ProtocolGUID)
	if err != nil {
		return verdictFromErr(err)
	}
	tcg, ok := iface.(conformance_efi.TCG2Protocol)
	if !ok {
		return Fail("registered interface is not a TCG2 protocol")
	}

	capability, status := tcg.Capability()
	if !status.Ok() {
		return verdictFromErr(conformance_efi.CallError("EFI_TCG2_PROTOCOL.GetCapability", status))
	}
	if !capability.TPMPresent {
		return Skip("TPM 2.0 device not present")
	}
	if capability.SupportedEventLogs&conformance_efi.EventLogFormatTCG2 == 0 {
		return Fail("device does not support the crypto agile event log format")
	}

	log, err := tcg.EventLog(conformance_efi.EventLogFormatTCG2)
	if err != nil {
		return Failf("cannot obtain event log: %v", err)
	}

	var logErr error
	if !log.Spec.IsEFI_2() {
		logErr = multierr.Append(logErr, fmt.Errorf("log has spec %d.%d for platform type %d, expected an EFI 2 log", log.Spec.Major, log.Spec.Minor, log.Spec.PlatformType))
	}
	for _, alg := range log.Algorithms {
		bit, known := tcg2AlgBits[alg]
		if !known {
			logErr = multierr.Append(logErr, fmt.Errorf("log declares unexpected algorithm %v", alg))
			continue
		}
		if capability.HashAlgorithmBitmap&bit == 0 {
			logErr = multierr.Append(logErr, fmt.Errorf("log declares algorithm %v which the device does not advertise", alg))
		}
	}
	logErr = multierr.Append(logErr, validateEventLog(log))
	if logErr != nil {
		return Fail(logErr.Error())
	}
	return Pass()
}
