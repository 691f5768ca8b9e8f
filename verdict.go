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
)

// VerdictKind classifies the outcome of one test module.
type VerdictKind int

const (
	// VerdictPassed means the module located its protocol and every
	// check succeeded.
	VerdictPassed VerdictKind = iota

	// VerdictFailed means a check failed, a firmware call returned an
	// error status, or the module aborted.
	VerdictFailed

	// VerdictSkipped means the module's firmware feature is legitimately
	// absent, so the module didn't run its checks. Skipped modules never
	// affect overall harness success.
	VerdictSkipped
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictPassed:
		return "PASS"
	case VerdictFailed:
		return "FAIL"
	case VerdictSkipped:
		return "SKIP"
	default:
		return fmt.Sprintf("VerdictKind(%d)", int(k))
	}
}

// Verdict is the outcome of one test module. It is immutable once
// produced - modules create one with [Pass], [Fail] or [Skip] and hand it
// to the harness.
type Verdict struct {
	Kind   VerdictKind
	Reason string // the failure reason or skip cause; empty for a pass
}

// Pass returns a passing verdict.
func Pass() Verdict {
	return Verdict{Kind: VerdictPassed}
}

// Fail returns a failing verdict with the supplied reason.
func Fail(reason string) Verdict {
	return Verdict{Kind: VerdictFailed, Reason: reason}
}

// Failf returns a failing verdict, formatting the reason.
func Failf(format string, args ...interface{}) Verdict {
	return Fail(fmt.Sprintf(format, args...))
}

// Skip returns a skipped verdict with the supplied cause.
func Skip(cause string) Verdict {
	return Verdict{Kind: VerdictSkipped, Reason: cause}
}

func (v Verdict) String() string {
	if v.Reason == "" {
		return v.Kind.String()
	}
	return fmt.Sprintf("%s (%s)", v.Kind, v.Reason)
}
