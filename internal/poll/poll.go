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

// Package poll implements the bounded wait loop that stands in for
// blocking calls at the firmware boundary. Every wait point in the
// harness (network receive, remote processor dispatch) goes through
// [Until] so that it is observable and bounded by an explicit timeout.
package poll

import (
	"errors"
	"time"
)

// ErrTimeout is returned from Until when the deadline passes without the
// condition becoming true.
var ErrTimeout = errors.New("timeout exceeded whilst polling")

var timeNow = time.Now

// Until repeatedly invokes fn, sleeping for interval between attempts,
// until fn returns true, fn returns an error, or timeout expires.
//
// A zero or negative timeout never invokes fn and returns ErrTimeout
// immediately - an already-expired deadline must fail rather than block
// or sneak in one attempt.
func Until(timeout, interval time.Duration, fn func() (bool, error)) error {
	deadline := timeNow().Add(timeout)
	for timeout > 0 {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !timeNow().Add(interval).Before(deadline) {
			break
		}
		time.Sleep(interval)
	}
	return ErrTimeout
}
