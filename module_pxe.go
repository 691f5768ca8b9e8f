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
	"encoding/binary"
	"errors"
	"fmt"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/netfixture"
)

// DHCP constants for the discovery handshake. The harness only frames
// and parses the handful of fields it verifies - the full protocol is
// the network stack's business, not ours.
const (
	dhcpClientPort = 68
	dhcpServerPort = 67

	bootRequest = 1
	bootReply   = 2

	dhcpOptMessageType = 53
	dhcpOptClassID     = 60
	dhcpOptEnd         = 255

	dhcpDiscover = 1

	// The transaction ID is fixed so that two runs of the harness send
	// identical frames.
	dhcpTransactionID uint32 = 0x2f1e0d3c
)

var dhcpMagicCookie = []byte{0x63, 0x82, 0x53, 0x63}

// buildDHCPDiscover frames a minimal BOOTP/DHCPDISCOVER for the supplied
// client hardware address, with the PXEClient class identifier that PXE
// servers key on.
func buildDHCPDiscover(mac conformance_efi.MACAddress) []byte {
	w := new(bytes.Buffer)
	w.WriteByte(bootRequest)
	w.WriteByte(1) // htype: Ethernet
	w.WriteByte(6) // hlen
	w.WriteByte(0) // hops
	binary.Write(w, binary.BigEndian, dhcpTransactionID)
	binary.Write(w, binary.BigEndian, uint16(0))     // secs
	binary.Write(w, binary.BigEndian, uint16(1<<15)) // flags: broadcast
	w.Write(make([]byte, 16))                        // ciaddr, yiaddr, siaddr, giaddr
	w.Write(mac[:])
	w.Write(make([]byte, 10))  // chaddr padding
	w.Write(make([]byte, 64))  // sname
	w.Write(make([]byte, 128)) // file
	w.Write(dhcpMagicCookie)
	w.Write([]byte{dhcpOptMessageType, 1, dhcpDiscover})
	classID := []byte("PXEClient")
	w.WriteByte(dhcpOptClassID)
	w.WriteByte(byte(len(classID)))
	w.Write(classID)
	w.WriteByte(dhcpOptEnd)
	return w.Bytes()
}

// parseDHCPReply verifies that the supplied packet is a well-formed BOOTP
// reply to our discover: right direction, matching transaction ID, magic
// cookie present and a non-zero offered address.
func parseDHCPReply(data []byte, mac conformance_efi.MACAddress) error {
	if len(data) < 240 {
		return fmt.Errorf("reply is too short (%d bytes)", len(data))
	}
	if data[0] != bootReply {
		return fmt.Errorf("reply has op %d, expected BOOTREPLY", data[0])
	}
	if xid := binary.BigEndian.Uint32(data[4:]); xid != dhcpTransactionID {
		return fmt.Errorf("reply transaction ID %#x doesn't match ours", xid)
	}
	if !bytes.Equal(data[28:34], mac[:]) {
		return errors.New("reply is addressed to a different client hardware address")
	}
	var yiaddr conformance_efi.IPv4Address
	copy(yiaddr[:], data[16:20])
	if yiaddr == (conformance_efi.IPv4Address{}) {
		return errors.New("reply offers no address")
	}
	if !bytes.Equal(data[236:240], dhcpMagicCookie) {
		return errors.New("reply has no DHCP magic cookie")
	}
	return nil
}

// runPXEModule validates the PXE base code protocol: the services must
// start (or already be started), and a DHCP style discovery handshake
// over the network fixture must produce a parseable offer within the
// configured timeout.
func (h *Harness) runPXEModule(env conformance_efi.HostEnvironment) Verdict {
	iface, err := env.LocateProtocol(conformance_efi.PXEBaseCodeProtocolGUID)
	if err != nil {
		return verdictFromErr(err)
	}
	pxe, ok := iface.(conformance_efi.PXEBaseCodeProtocol)
	if !ok {
		return Fail("registered interface is not a PXE base code protocol")
	}

	if status := pxe.Start(false); !status.Ok() && status != conformance_efi.StatusAlreadyStarted {
		return verdictFromErr(conformance_efi.CallError("EFI_PXE_BASE_CODE_PROTOCOL.Start", status))
	}
	defer pxe.Stop()

	err = netfixture.WithSession(env, netfixture.Config{}, func(session *netfixture.Session) error {
		sock, err := session.OpenSocket(dhcpClientPort)
		if err != nil {
			return err
		}

		mac := session.StationAddress()
		discover := buildDHCPDiscover(mac)
		if err := sock.SendTo(discover, conformance_efi.IPv4Address{255, 255, 255, 255}, dhcpServerPort); err != nil {
			return err
		}

		offer, err := sock.RecvFrom(h.opts.networkTimeout())
		if err != nil {
			return err
		}
		if err := parseDHCPReply(offer.Data, mac); err != nil {
			return fmt.Errorf("cannot parse DHCP offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return networkVerdict(err)
	}
	return Pass()
}
