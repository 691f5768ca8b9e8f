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

type networkModuleSuite struct{}

var _ = Suite(&networkModuleSuite{})

// echoResponder answers every transmitted datagram with its own payload,
// the way a UDP echo service would.
func echoResponder(dgram *conformance_efi.Datagram) *conformance_efi.Datagram {
	return &conformance_efi.Datagram{
		SrcAddress: dgram.DstAddress,
		SrcPort:    dgram.DstPort,
		DstAddress: dgram.SrcAddress,
		DstPort:    dgram.SrcPort,
		Data:       dgram.Data,
	}
}

func (s *networkModuleSuite) run(c *C, env *efitest.MockHostEnvironment, opts Options) Verdict {
	opts.Network = true
	h := New(env, opts)
	result, err := h.Run()
	c.Assert(err, IsNil)
	v, ok := result.Lookup(ModuleNetwork)
	c.Assert(ok, Equals, true)
	return v
}

func (s *networkModuleSuite) TestPass(c *C) {
	snp := &efitest.MockSimpleNetwork{MAC: conformance_efi.MACAddress{0x52, 0x54, 0x00, 0x12, 0x34, 0x56}}
	binding := &efitest.MockUDP4ServiceBinding{Responder: echoResponder}
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, snp).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, binding)

	c.Check(s.run(c, env, Options{}), Equals, Pass())

	// The fixture must have released everything on the way out.
	c.Check(snp.Started, Equals, false)
	c.Check(snp.Initialized, Equals, false)
	c.Assert(binding.Created, HasLen, 1)
	c.Check(binding.Destroyed, DeepEquals, binding.Created)
}

func (s *networkModuleSuite) TestNoNetworkStackSkips(c *C) {
	c.Check(s.run(c, makeEnv(), Options{}), Equals, Skip("protocol unavailable"))
}

func (s *networkModuleSuite) TestNoUDPBindingSkips(c *C) {
	snp := &efitest.MockSimpleNetwork{}
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, snp)
	c.Check(s.run(c, env, Options{}), Equals, Skip("protocol unavailable"))
}

func (s *networkModuleSuite) TestNoEchoReply(c *C) {
	snp := &efitest.MockSimpleNetwork{}
	binding := &efitest.MockUDP4ServiceBinding{} // nothing ever answers
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, snp).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, binding)

	v := s.run(c, env, Options{NetworkTimeout: -1})
	c.Check(v, Equals, Fail("network timeout"))

	// Teardown still happens on the failure path.
	c.Check(snp.Started, Equals, false)
	c.Check(binding.Destroyed, DeepEquals, binding.Created)
}

func (s *networkModuleSuite) TestCorruptedEchoReply(c *C) {
	binding := &efitest.MockUDP4ServiceBinding{
		Responder: func(dgram *conformance_efi.Datagram) *conformance_efi.Datagram {
			resp := echoResponder(dgram)
			resp.Data = append([]byte(nil), resp.Data...)
			resp.Data[0] ^= 0xff
			return resp
		},
	}
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, &efitest.MockSimpleNetwork{}).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, binding)

	v := s.run(c, env, Options{})
	c.Check(v, Equals, Fail("echo reply payload doesn't match the probe"))
}

func (s *networkModuleSuite) TestInitializeFails(c *C) {
	snp := &efitest.MockSimpleNetwork{InitializeStatus: conformance_efi.StatusDeviceError}
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, snp).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, &efitest.MockUDP4ServiceBinding{})

	v := s.run(c, env, Options{})
	c.Check(v, Equals, Fail("EFI_SIMPLE_NETWORK_PROTOCOL.Initialize returned EFI_DEVICE_ERROR"))

	// The fixture stops the medium it started before bailing out.
	c.Check(snp.Started, Equals, false)
}

func (s *networkModuleSuite) TestTransmitFails(c *C) {
	binding := &efitest.MockUDP4ServiceBinding{TransmitStatus: conformance_efi.StatusDeviceError}
	env := makeEnv().
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, &efitest.MockSimpleNetwork{}).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, binding)

	v := s.run(c, env, Options{})
	c.Check(v, Equals, Fail("EFI_UDP4_PROTOCOL.Transmit returned EFI_DEVICE_ERROR"))
}
