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

package conformance_test

import (
	check "gopkg.in/check.v1"
)

// gopkg.in/check.v1 cannot be dot-imported alongside the package under
// test because both export an identifier named Result. These aliases
// expose the check identifiers the tests use at package scope instead.

type C = check.C

var (
	Suite    = check.Suite
	TestingT = check.TestingT

	DeepEquals   = check.DeepEquals
	Equals       = check.Equals
	ErrorMatches = check.ErrorMatches
	HasLen       = check.HasLen
	IsNil        = check.IsNil
	Matches      = check.Matches
)
