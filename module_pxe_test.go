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
	"encoding/binary"

	. "github.com/canonical/uefi-conformance"
	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/efitest"
)

type pxeModuleSuite struct{}

var _ = Suite(&pxeModuleSuite{})

var testMAC = conformance_efi.MACAddress{0x52, 0x54, 0x00, 0x12, 0x34, 0x56}

// dhcpResponder answers a DHCPDISCOVER with a minimal offer: same frame
// with the direction flipped and an address filled in.
func dhcpResponder(dgram *conformance_efi.Datagram) *conformance_efi.Datagram {
	if dgram.DstPort != DHCPServerPort {
		return nil
	}
	offer := append([]byte(nil), dgram.Data...)
	offer[0] = 2 // BOOTREPLY
	copy(offer[16:20], []byte{10, 0, 2, 15})
	return &conformance_efi.Datagram{
		SrcAddress: conformance_efi.IPv4Address{10, 0, 2, 2},
		SrcPort:    DHCPServerPort,
		DstPort:    DHCPClientPort,
		Data:       offer,
	}
}

func (s *pxeModuleSuite) run(c *C, env *efitest.MockHostEnvironment, opts Options) Verdict {
	opts.PXE = true
	h := New(env, opts)
	result, err := h.Run()
	c.Assert(err, IsNil)
	v, ok := result.Lookup(ModulePXE)
	c.Assert(ok, Equals, true)
	return v
}

func (s *pxeModuleSuite) makeEnv(pxe *efitest.MockPXEBaseCode, binding *efitest.MockUDP4ServiceBinding) (*efitest.MockHostEnvironment, *efitest.MockSimpleNetwork) {
	snp := &efitest.MockSimpleNetwork{MAC: testMAC}
	env := makeEnv().
		WithProtocol(conformance_efi.PXEBaseCodeProtocolGUID, pxe).
		WithProtocol(conformance_efi.SimpleNetworkProtocolGUID, snp).
		WithProtocol(conformance_efi.UDP4ServiceBindingGUID, binding)
	return env, snp
}

func (s *pxeModuleSuite) TestPass(c *C) {
	pxe := &efitest.MockPXEBaseCode{}
	binding := &efitest.MockUDP4ServiceBinding{Responder: dhcpResponder}
	env, snp := s.makeEnv(pxe, binding)

	c.Check(s.run(c, env, Options{}), Equals, Pass())

	// The base code services must be stopped again and the network
	// fixture torn down.
	c.Check(pxe.Started, Equals, false)
	c.Check(snp.Started, Equals, false)
	c.Check(binding.Destroyed, DeepEquals, binding.Created)
}

func (s *pxeModuleSuite) TestPassAlreadyStarted(c *C) {
	pxe := &efitest.MockPXEBaseCode{Started: true}
	binding := &efitest.MockUDP4ServiceBinding{Responder: dhcpResponder}
	env, _ := s.makeEnv(pxe, binding)

	c.Check(s.run(c, env, Options{}), Equals, Pass())
}

func (s *pxeModuleSuite) TestAbsentSkips(c *C) {
	c.Check(s.run(c, makeEnv(), Options{}), Equals, Skip("protocol unavailable"))
}

func (s *pxeModuleSuite) TestNoNetworkStackSkips(c *C) {
	env := makeEnv().
		WithProtocol(conformance_efi.PXEBaseCodeProtocolGUID, &efitest.MockPXEBaseCode{})
	c.Check(s.run(c, env, Options{}), Equals, Skip("protocol unavailable"))
}

func (s *pxeModuleSuite) TestStartFails(c *C) {
	pxe := &efitest.MockPXEBaseCode{StartStatus: conformance_efi.StatusDeviceError}
	env, _ := s.makeEnv(pxe, &efitest.MockUDP4ServiceBinding{})

	v := s.run(c, env, Options{})
	c.Check(v, Equals, Fail("EFI_PXE_BASE_CODE_PROTOCOL.Start returned EFI_DEVICE_ERROR"))
}

func (s *pxeModuleSuite) TestNoOffer(c *C) {
	pxe := &efitest.MockPXEBaseCode{}
	binding := &efitest.MockUDP4ServiceBinding{} // nothing ever answers
	env, snp := s.makeEnv(pxe, binding)

	v := s.run(c, env, Options{NetworkTimeout: -1})
	c.Check(v, Equals, Fail("network timeout"))

	c.Check(pxe.Started, Equals, false)
	c.Check(snp.Started, Equals, false)
}

func (s *pxeModuleSuite) TestMalformedOffer(c *C) {
	binding := &efitest.MockUDP4ServiceBinding{
		Responder: func(dgram *conformance_efi.Datagram) *conformance_efi.Datagram {
			resp := dhcpResponder(dgram)
			resp.Data[0] = 1 // not a BOOTREPLY
			return resp
		},
	}
	env, _ := s.makeEnv(&efitest.MockPXEBaseCode{}, binding)

	v := s.run(c, env, Options{})
	c.Check(v.Kind, Equals, VerdictFailed)
	c.Check(v.Reason, Matches, `cannot parse DHCP offer: reply has op 1, expected BOOTREPLY`)
}

type dhcpFrameSuite struct{}

var _ = Suite(&dhcpFrameSuite{})

func (s *dhcpFrameSuite) TestDiscoverLayout(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	c.Assert(len(frame) >= 240, Equals, true)

	c.Check(frame[0], Equals, uint8(1)) // BOOTREQUEST
	c.Check(frame[1], Equals, uint8(1)) // Ethernet
	c.Check(frame[2], Equals, uint8(6))
	c.Check(binary.BigEndian.Uint32(frame[4:]), Equals, uint32(DHCPTransactionID))
	c.Check(frame[28:34], DeepEquals, testMAC[:])
	c.Check(frame[236:240], DeepEquals, []byte{0x63, 0x82, 0x53, 0x63})
}

func (s *dhcpFrameSuite) TestDiscoverIsDeterministic(c *C) {
	c.Check(BuildDHCPDiscover(testMAC), DeepEquals, BuildDHCPDiscover(testMAC))
}

func (s *dhcpFrameSuite) TestParseReplyRoundTrip(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	frame[0] = 2
	copy(frame[16:20], []byte{10, 0, 2, 15})
	c.Check(ParseDHCPReply(frame, testMAC), IsNil)
}

func (s *dhcpFrameSuite) TestParseReplyTooShort(c *C) {
	c.Check(ParseDHCPReply(make([]byte, 100), testMAC), ErrorMatches, `reply is too short \(100 bytes\)`)
}

func (s *dhcpFrameSuite) TestParseReplyWrongTransactionID(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	frame[0] = 2
	copy(frame[16:20], []byte{10, 0, 2, 15})
	frame[4] ^= 0xff
	c.Check(ParseDHCPReply(frame, testMAC), ErrorMatches, `reply transaction ID .* doesn't match ours`)
}

func (s *dhcpFrameSuite) TestParseReplyWrongClient(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	frame[0] = 2
	copy(frame[16:20], []byte{10, 0, 2, 15})
	frame[28] ^= 0xff
	c.Check(ParseDHCPReply(frame, testMAC), ErrorMatches, `reply is addressed to a different client hardware address`)
}

func (s *dhcpFrameSuite) TestParseReplyNoAddress(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	frame[0] = 2
	c.Check(ParseDHCPReply(frame, testMAC), ErrorMatches, `reply offers no address`)
}

func (s *dhcpFrameSuite) TestParseReplyNoCookie(c *C) {
	frame := BuildDHCPDiscover(testMAC)
	frame[0] = 2
	copy(frame[16:20], []byte{10, 0, 2, 15})
	copy(frame[236:240], []byte{0, 0, 0, 0})
	c.Check(ParseDHCPReply(frame, testMAC), ErrorMatches, `reply has no DHCP magic cookie`)
}
