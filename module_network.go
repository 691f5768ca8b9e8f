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
	"errors"
	"fmt"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/netfixture"
	"github.com/canonical/uefi-conformance/internal/poll"
)

// networkProbePort is the local port the network module binds its socket
// to.
const networkProbePort = 2069

// networkVerdict maps an error out of a network fixture body to a
// verdict: an expired datagram wait is specifically a network timeout.
func networkVerdict(err error) Verdict {
	if errors.Is(err, poll.ErrTimeout) {
		return Fail("network timeout")
	}
	return verdictFromErr(err)
}

// runNetworkModule exercises the minimal IPv4/UDP stack: it brings the
// Ethernet medium up through the network fixture, opens a UDP socket and
// performs a bounded echo round-trip against the configured echo
// endpoint.
func (h *Harness) runNetworkModule(env conformance_efi.HostEnvironment) Verdict {
	err := netfixture.WithSession(env, netfixture.Config{}, func(session *netfixture.Session) error {
		sock, err := session.OpenSocket(networkProbePort)
		if err != nil {
			return err
		}

		payload := []byte(fmt.Sprintf("uefi-conformance udp probe %s", session.StationAddress()))
		if err := sock.SendTo(payload, h.opts.echoAddress(), h.opts.echoPort()); err != nil {
			return err
		}

		reply, err := sock.RecvFrom(h.opts.networkTimeout())
		if err != nil {
			return err
		}
		if !bytes.Equal(reply.Data, payload) {
			return errors.New("echo reply payload doesn't match the probe")
		}
		return nil
	})
	if err != nil {
		return networkVerdict(err)
	}
	return Pass()
}
