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

	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/poll"
)

// CorruptStateError is returned from [Harness.Run] when the firmware's
// system table or handle database is found to be malformed before any
// module runs. This is the only harness-fatal condition: the firmware
// contract itself is unreliable, so no modules are attempted and the
// harness exits with the failure sentinel.
type CorruptStateError struct {
	err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("firmware state is corrupted: %v", e.err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.err
}

// verdictFromErr downgrades an error from a module's scripted call
// sequence to a verdict at the module boundary. Nothing escapes a module
// as a raw error:
//
//   - protocol absence is an expected outcome and yields a skip
//   - an expired bounded wait yields a timeout failure
//   - everything else (firmware call failures included) yields a failure
//     naming the failing call
func verdictFromErr(err error) Verdict {
	switch {
	case err == nil:
		return Pass()
	case errors.Is(err, conformance_efi.ErrProtocolNotFound):
		return Skip("protocol unavailable")
	case errors.Is(err, poll.ErrTimeout):
		return Fail("timeout")
	default:
		return Fail(err.Error())
	}
}
