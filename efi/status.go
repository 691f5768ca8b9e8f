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
	"fmt"
)

// Status is an EFI status word as returned from firmware calls, using the
// 64-bit encoding (the error bit is the top bit).
type Status uint64

const statusErrorBit Status = 1 << 63

// The status codes that the harness cares about, from the UEFI
// specification, appendix D. Anything else is formatted numerically.
const (
	StatusSuccess          Status = 0
	StatusLoadError        Status = statusErrorBit | 1
	StatusInvalidParameter Status = statusErrorBit | 2
	StatusUnsupported      Status = statusErrorBit | 3
	StatusBadBufferSize    Status = statusErrorBit | 4
	StatusBufferTooSmall   Status = statusErrorBit | 5
	StatusNotReady         Status = statusErrorBit | 6
	StatusDeviceError      Status = statusErrorBit | 7
	StatusOutOfResources   Status = statusErrorBit | 9
	StatusNotFound         Status = statusErrorBit | 14
	StatusAccessDenied     Status = statusErrorBit | 15
	StatusTimeout          Status = statusErrorBit | 18
	StatusNotStarted       Status = statusErrorBit | 19
	StatusAlreadyStarted   Status = statusErrorBit | 20
	StatusAborted          Status = statusErrorBit | 21
)

// Ok indicates that the call this status was returned from succeeded.
func (s Status) Ok() bool {
	return s == StatusSuccess
}

// Err indicates that the call this status was returned from failed. Note
// that warning statuses (non-zero values without the error bit set) are
// neither Ok nor Err.
func (s Status) Err() bool {
	return s&statusErrorBit != 0
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "EFI_SUCCESS"
	case StatusLoadError:
		return "EFI_LOAD_ERROR"
	case StatusInvalidParameter:
		return "EFI_INVALID_PARAMETER"
	case StatusUnsupported:
		return "EFI_UNSUPPORTED"
	case StatusBadBufferSize:
		return "EFI_BAD_BUFFER_SIZE"
	case StatusBufferTooSmall:
		return "EFI_BUFFER_TOO_SMALL"
	case StatusNotReady:
		return "EFI_NOT_READY"
	case StatusDeviceError:
		return "EFI_DEVICE_ERROR"
	case StatusOutOfResources:
		return "EFI_OUT_OF_RESOURCES"
	case StatusNotFound:
		return "EFI_NOT_FOUND"
	case StatusAccessDenied:
		return "EFI_ACCESS_DENIED"
	case StatusTimeout:
		return "EFI_TIMEOUT"
	case StatusNotStarted:
		return "EFI_NOT_STARTED"
	case StatusAlreadyStarted:
		return "EFI_ALREADY_STARTED"
	case StatusAborted:
		return "EFI_ABORTED"
	default:
		return fmt.Sprintf("EFI_STATUS(%#x)", uint64(s))
	}
}

// StatusError is returned from code that converts a failed firmware call
// into a Go error, retaining the name of the call that failed and the
// status word it returned.
type StatusError struct {
	Call   string // the name of the firmware call
	Status Status // the status word it returned
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Call, e.Status)
}

// CallError converts a failed firmware call into a *StatusError.
func CallError(call string, status Status) error {
	return &StatusError{Call: call, Status: status}
}
