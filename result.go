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
	"io"
)

// Exit status values reported to the host emulator. ExitFailure is a
// fixed sentinel, deliberately distinct from the status that the Go
// runtime uses for an uncontained crash, so that the host can tell "a
// module failed" apart from "the harness died".
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ModuleVerdict pairs a module name with its verdict.
type ModuleVerdict struct {
	Name    string
	Verdict Verdict
}

// Result is the aggregation of the verdicts of every enabled module, in
// module registration order. Disabled modules contribute no entry.
type Result struct {
	verdicts []ModuleVerdict
}

func (r *Result) record(name string, v Verdict) {
	r.verdicts = append(r.verdicts, ModuleVerdict{Name: name, Verdict: v})
}

// Verdicts returns the per-module verdicts in registration order.
func (r *Result) Verdicts() []ModuleVerdict {
	out := make([]ModuleVerdict, len(r.verdicts))
	copy(out, r.verdicts)
	return out
}

// Lookup returns the verdict of the module with the supplied name, if it
// ran.
func (r *Result) Lookup(name string) (Verdict, bool) {
	for _, mv := range r.verdicts {
		if mv.Name == name {
			return mv.Verdict, true
		}
	}
	return Verdict{}, false
}

// Counts returns how many modules passed, failed and were skipped.
func (r *Result) Counts() (passed, failed, skipped int) {
	for _, mv := range r.verdicts {
		switch mv.Verdict.Kind {
		case VerdictPassed:
			passed++
		case VerdictFailed:
			failed++
		case VerdictSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Succeeded reports overall harness success: true iff no module failed.
// Skipped modules don't affect this.
func (r *Result) Succeeded() bool {
	_, failed, _ := r.Counts()
	return failed == 0
}

// ExitCode maps the result to the process exit status delivered to the
// host emulator.
func (r *Result) ExitCode() int {
	if r.Succeeded() {
		return ExitSuccess
	}
	return ExitFailure
}

// Write writes the human readable report: one line per module verdict in
// registration order, followed by a summary line. The format is
// diagnostic only and not a stable interface.
func (r *Result) Write(w io.Writer) error {
	for _, mv := range r.verdicts {
		if _, err := fmt.Fprintf(w, "%s: %s\n", mv.Name, mv.Verdict); err != nil {
			return err
		}
	}
	passed, failed, skipped := r.Counts()
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	return err
}
