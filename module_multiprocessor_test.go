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
	. "github.com/canonical/uefi-conformance"
	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/efitest"
)

type mpModuleSuite struct{}

var _ = Suite(&mpModuleSuite{})

func (s *mpModuleSuite) run(c *C, mp *efitest.MockMPServices) Verdict {
	env := makeEnv()
	if mp != nil {
		env.WithProtocol(conformance_efi.MPServicesProtocolGUID, mp)
	}
	h := New(env, Options{MultiProcessor: true})
	result, err := h.Run()
	c.Assert(err, IsNil)
	v, ok := result.Lookup(ModuleMultiProcessor)
	c.Assert(ok, Equals, true)
	return v
}

func (s *mpModuleSuite) TestPassQuadCore(c *C) {
	mp := efitest.NewMockMPServices(4)
	c.Check(s.run(c, mp), Equals, Pass())
	// The dispatched function must have run on every AP, and never on
	// the BSP.
	c.Check(mp.Dispatched, DeepEquals, []uint32{1, 2, 3})
}

func (s *mpModuleSuite) TestPassSingleProcessor(c *C) {
	// One processor is a legitimate topology. There are no APs to
	// dispatch on, so StartupAllAPs must not be exercised.
	mp := efitest.NewMockMPServices(1)
	c.Check(s.run(c, mp), Equals, Pass())
	c.Check(mp.Dispatched, HasLen, 0)
}

func (s *mpModuleSuite) TestAbsentSkips(c *C) {
	c.Check(s.run(c, nil), Equals, Skip("protocol unavailable"))
}

func (s *mpModuleSuite) TestCountCallFails(c *C) {
	mp := efitest.NewMockMPServices(2)
	mp.CountStatus = conformance_efi.StatusDeviceError
	v := s.run(c, mp)
	c.Check(v, Equals, Fail("EFI_MP_SERVICES_PROTOCOL.GetNumberOfProcessors returned EFI_DEVICE_ERROR"))
}

func (s *mpModuleSuite) TestZeroProcessors(c *C) {
	v := s.run(c, &efitest.MockMPServices{})
	c.Check(v, Equals, Fail("firmware reports zero logical processors"))
}

func (s *mpModuleSuite) TestEnumerationDisagreesWithCount(c *C) {
	mp := efitest.NewMockMPServices(4)
	mp.CountSkew = 2
	v := s.run(c, mp)
	c.Check(v.Kind, Equals, VerdictFailed)
	c.Check(v.Reason, Matches, `processor enumeration found 4 processors but the firmware reports 6`)
}

func (s *mpModuleSuite) TestNoBSP(c *C) {
	mp := efitest.NewMockMPServices(2)
	mp.Processors[0].StatusFlag &^= conformance_efi.ProcessorAsBSP
	v := s.run(c, mp)
	c.Check(v, Equals, Failf("expected exactly one bootstrap processor, found 0"))
}

func (s *mpModuleSuite) TestTwoBSPs(c *C) {
	mp := efitest.NewMockMPServices(2)
	mp.Processors[1].StatusFlag |= conformance_efi.ProcessorAsBSP
	v := s.run(c, mp)
	c.Check(v, Equals, Failf("expected exactly one bootstrap processor, found 2"))
}

func (s *mpModuleSuite) TestRunningOnAP(c *C) {
	mp := efitest.NewMockMPServices(2)
	mp.BSPIndex = 1
	v := s.run(c, mp)
	c.Check(v, Equals, Fail("the harness is not executing on the bootstrap processor"))
}

func (s *mpModuleSuite) TestDisabledProcessorsNotDispatchedOn(c *C) {
	mp := efitest.NewMockMPServices(3)
	mp.Processors[2].StatusFlag &^= conformance_efi.ProcessorEnabled
	c.Check(s.run(c, mp), Equals, Pass())
	c.Check(mp.Dispatched, DeepEquals, []uint32{1})
}
