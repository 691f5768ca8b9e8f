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

// Package netfixture provides scoped access to the firmware's minimal
// IPv4/UDP stack for the network dependent test modules. A session binds
// the Ethernet medium and hands out UDP sockets; the fixture guarantees
// that every socket is destroyed and the medium is released on every exit
// path, including a panic in the body, before control returns to the
// caller. The medium is exclusively owned by the module that is currently
// running.
package netfixture

import (
	"fmt"
	"time"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
	"github.com/canonical/uefi-conformance/internal/poll"
)

// Config describes how a session configures the IPv4 interface and its
// sockets.
type Config struct {
	// StationAddress and SubnetMask configure a static address on each
	// socket. If StationAddress is the zero value, sockets use the
	// firmware's default address instead.
	StationAddress conformance_efi.IPv4Address
	SubnetMask     conformance_efi.IPv4Address

	// PollInterval is the interval between receive attempts when a
	// caller waits for an inbound datagram. Zero means 1ms.
	PollInterval time.Duration
}

func (c *Config) pollInterval() time.Duration {
	if c.PollInterval == 0 {
		return time.Millisecond
	}
	return c.PollInterval
}

// Session owns one Ethernet medium binding, one IPv4 interface
// configuration and any sockets opened through it. It is only valid
// inside the body passed to [WithSession].
type Session struct {
	cfg     Config
	snp     conformance_efi.SimpleNetworkProtocol
	binding conformance_efi.UDP4ServiceBinding
	sockets []conformance_efi.UDP4Socket
}

// StationAddress returns the Ethernet address of the bound medium.
func (s *Session) StationAddress() conformance_efi.MACAddress {
	return s.snp.StationAddress()
}

// Socket is one open UDP socket, scoped to its session.
type Socket struct {
	session *Session
	impl    conformance_efi.UDP4Socket
}

// OpenSocket creates and configures a UDP socket bound to the supplied
// local port.
func (s *Session) OpenSocket(port uint16) (*Socket, error) {
	impl, status := s.binding.CreateSocket()
	if !status.Ok() {
		return nil, conformance_efi.CallError("EFI_UDP4_SERVICE_BINDING_PROTOCOL.CreateChild", status)
	}
	s.sockets = append(s.sockets, impl)

	var zero conformance_efi.IPv4Address
	cfg := &conformance_efi.UDP4Config{
		UseDefaultAddress: s.cfg.StationAddress == zero,
		StationAddress:    s.cfg.StationAddress,
		SubnetMask:        s.cfg.SubnetMask,
		StationPort:       port,
		AcceptBroadcast:   true,
	}
	if status := impl.Configure(cfg); !status.Ok() {
		return nil, conformance_efi.CallError("EFI_UDP4_PROTOCOL.Configure", status)
	}
	return &Socket{session: s, impl: impl}, nil
}

// SendTo queues the supplied payload for transmission to the supplied
// destination.
func (s *Socket) SendTo(data []byte, addr conformance_efi.IPv4Address, port uint16) error {
	dgram := &conformance_efi.Datagram{
		SrcAddress: s.session.cfg.StationAddress,
		DstAddress: addr,
		DstPort:    port,
		Data:       data,
	}
	if status := s.impl.Transmit(dgram); !status.Ok() {
		return conformance_efi.CallError("EFI_UDP4_PROTOCOL.Transmit", status)
	}
	return nil
}

// RecvFrom waits for the next inbound datagram, polling the non-blocking
// receive call until one arrives or the supplied timeout expires. It
// returns [poll.ErrTimeout] if nothing arrives in time, which happens
// immediately for a zero or already expired timeout.
func (s *Socket) RecvFrom(timeout time.Duration) (*conformance_efi.Datagram, error) {
	var dgram *conformance_efi.Datagram
	err := poll.Until(timeout, s.session.cfg.pollInterval(), func() (bool, error) {
		d, status := s.impl.Receive()
		switch {
		case status == conformance_efi.StatusNotReady:
			return false, nil
		case !status.Ok():
			return false, conformance_efi.CallError("EFI_UDP4_PROTOCOL.Receive", status)
		default:
			dgram = d
			return true, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return dgram, nil
}

// WithSession binds the Ethernet medium, brings up the IPv4 interface and
// runs body with the resulting session. Teardown (destroying sockets,
// shutting down and stopping the medium) happens on every exit path: a
// panic in the body still tears the session down before propagating.
//
// If the firmware doesn't provide a network stack, this returns
// [conformance_efi.ErrProtocolNotFound] without invoking body.
func WithSession(env conformance_efi.HostEnvironment, cfg Config, body func(*Session) error) error {
	iface, err := env.LocateProtocol(conformance_efi.SimpleNetworkProtocolGUID)
	if err != nil {
		return err
	}
	snp, ok := iface.(conformance_efi.SimpleNetworkProtocol)
	if !ok {
		return fmt.Errorf("interface registered for %v is not a simple network protocol", conformance_efi.SimpleNetworkProtocolGUID)
	}

	iface, err = env.LocateProtocol(conformance_efi.UDP4ServiceBindingGUID)
	if err != nil {
		return err
	}
	binding, ok := iface.(conformance_efi.UDP4ServiceBinding)
	if !ok {
		return fmt.Errorf("interface registered for %v is not a UDP4 service binding", conformance_efi.UDP4ServiceBindingGUID)
	}

	if status := snp.Start(); !status.Ok() && status != conformance_efi.StatusAlreadyStarted {
		return conformance_efi.CallError("EFI_SIMPLE_NETWORK_PROTOCOL.Start", status)
	}
	if status := snp.Initialize(); !status.Ok() {
		snp.Stop()
		return conformance_efi.CallError("EFI_SIMPLE_NETWORK_PROTOCOL.Initialize", status)
	}

	session := &Session{cfg: cfg, snp: snp, binding: binding}
	defer func() {
		for _, sock := range session.sockets {
			sock.Configure(nil)
			binding.DestroySocket(sock)
		}
		session.sockets = nil
		snp.Shutdown()
		snp.Stop()
	}()

	return body(session)
}
