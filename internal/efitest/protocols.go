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

package efitest

import (
	"github.com/canonical/tcglog-parser"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// MockDebugSupport provides a mock EFI_DEBUG_SUPPORT_PROTOCOL.
type MockDebugSupport struct {
	ISA      conformance_efi.ISA
	MaxIndex uint32
	CtxSize  uint64

	// MaxIndexStatus and CtxSizeStatus override the status returned from
	// the corresponding calls when not StatusSuccess.
	MaxIndexStatus conformance_efi.Status
	CtxSizeStatus  conformance_efi.Status
}

func (p *MockDebugSupport) Isa() conformance_efi.ISA {
	return p.ISA
}

func (p *MockDebugSupport) MaximumProcessorIndex() (uint32, conformance_efi.Status) {
	if p.MaxIndexStatus != conformance_efi.StatusSuccess {
		return 0, p.MaxIndexStatus
	}
	return p.MaxIndex, conformance_efi.StatusSuccess
}

func (p *MockDebugSupport) ContextSize() (uint64, conformance_efi.Status) {
	if p.CtxSizeStatus != conformance_efi.StatusSuccess {
		return 0, p.CtxSizeStatus
	}
	return p.CtxSize, conformance_efi.StatusSuccess
}

// MockMPServices provides a mock EFI_MP_SERVICES_PROTOCOL over a fixed
// processor topology.
type MockMPServices struct {
	Processors []*conformance_efi.ProcessorInfo
	BSPIndex   uint32

	// CountSkew is added to the processor count that NumberOfProcessors
	// reports, for simulating firmware whose two enumeration paths
	// disagree.
	CountSkew int

	// CountStatus overrides the status of NumberOfProcessors when not
	// StatusSuccess.
	CountStatus conformance_efi.Status

	// Dispatched records the processor indices passed to functions run
	// via StartupAllAPs.
	Dispatched []uint32
}

// NewMockMPServices returns a mock with n enabled, healthy processors,
// with processor 0 as the BSP.
func NewMockMPServices(n int) *MockMPServices {
	m := &MockMPServices{}
	for i := 0; i < n; i++ {
		flags := conformance_efi.ProcessorEnabled | conformance_efi.ProcessorHealthy
		if i == 0 {
			flags |= conformance_efi.ProcessorAsBSP
		}
		m.Processors = append(m.Processors, &conformance_efi.ProcessorInfo{
			ProcessorID: uint64(i),
			StatusFlag:  flags,
		})
	}
	return m
}

func (p *MockMPServices) NumberOfProcessors() (total, enabled uint32, status conformance_efi.Status) {
	if p.CountStatus != conformance_efi.StatusSuccess {
		return 0, 0, p.CountStatus
	}
	for _, info := range p.Processors {
		if info.StatusFlag&conformance_efi.ProcessorEnabled != 0 {
			enabled++
		}
	}
	return uint32(len(p.Processors) + p.CountSkew), enabled, conformance_efi.StatusSuccess
}

func (p *MockMPServices) ProcessorInfo(index uint32) (*conformance_efi.ProcessorInfo, conformance_efi.Status) {
	if index >= uint32(len(p.Processors)) {
		return nil, conformance_efi.StatusNotFound
	}
	return p.Processors[index], conformance_efi.StatusSuccess
}

func (p *MockMPServices) WhoAmI() (uint32, conformance_efi.Status) {
	return p.BSPIndex, conformance_efi.StatusSuccess
}

func (p *MockMPServices) StartupAllAPs(fn func(processor uint32), timeoutMicroseconds uint64) conformance_efi.Status {
	started := false
	for i, info := range p.Processors {
		if info.IsBSP() || info.StatusFlag&conformance_efi.ProcessorEnabled == 0 {
			continue
		}
		started = true
		p.Dispatched = append(p.Dispatched, uint32(i))
		fn(uint32(i))
	}
	if !started {
		return conformance_efi.StatusNotStarted
	}
	return conformance_efi.StatusSuccess
}

// MockPXEBaseCode provides a mock EFI_PXE_BASE_CODE_PROTOCOL.
type MockPXEBaseCode struct {
	StartStatus conformance_efi.Status
	Started     bool
}

func (p *MockPXEBaseCode) Start(useIPv6 bool) conformance_efi.Status {
	if p.StartStatus != conformance_efi.StatusSuccess {
		return p.StartStatus
	}
	if p.Started {
		return conformance_efi.StatusAlreadyStarted
	}
	p.Started = true
	return conformance_efi.StatusSuccess
}

func (p *MockPXEBaseCode) Stop() conformance_efi.Status {
	if !p.Started {
		return conformance_efi.StatusNotStarted
	}
	p.Started = false
	return conformance_efi.StatusSuccess
}

// MockSimpleNetwork provides a mock EFI_SIMPLE_NETWORK_PROTOCOL and
// records its state transitions so that tests can verify fixture
// teardown.
type MockSimpleNetwork struct {
	MAC conformance_efi.MACAddress

	// InitializeStatus overrides the status of Initialize when not
	// StatusSuccess.
	InitializeStatus conformance_efi.Status

	Started     bool
	Initialized bool
}

func (p *MockSimpleNetwork) Start() conformance_efi.Status {
	if p.Started {
		return conformance_efi.StatusAlreadyStarted
	}
	p.Started = true
	return conformance_efi.StatusSuccess
}

func (p *MockSimpleNetwork) Initialize() conformance_efi.Status {
	if !p.Started {
		return conformance_efi.StatusNotStarted
	}
	if p.InitializeStatus != conformance_efi.StatusSuccess {
		return p.InitializeStatus
	}
	p.Initialized = true
	return conformance_efi.StatusSuccess
}

func (p *MockSimpleNetwork) Shutdown() conformance_efi.Status {
	if !p.Initialized {
		return conformance_efi.StatusNotStarted
	}
	p.Initialized = false
	return conformance_efi.StatusSuccess
}

func (p *MockSimpleNetwork) Stop() conformance_efi.Status {
	if !p.Started {
		return conformance_efi.StatusNotStarted
	}
	p.Started = false
	return conformance_efi.StatusSuccess
}

func (p *MockSimpleNetwork) StationAddress() conformance_efi.MACAddress {
	return p.MAC
}

// MockUDP4Socket is a socket handed out by MockUDP4ServiceBinding.
type MockUDP4Socket struct {
	binding *MockUDP4ServiceBinding

	Cfg        *conformance_efi.UDP4Config
	Configured bool
	queue      []*conformance_efi.Datagram
}

func (s *MockUDP4Socket) Configure(cfg *conformance_efi.UDP4Config) conformance_efi.Status {
	s.Cfg = cfg
	s.Configured = cfg != nil
	if cfg == nil {
		s.queue = nil
	}
	return conformance_efi.StatusSuccess
}

func (s *MockUDP4Socket) Transmit(dgram *conformance_efi.Datagram) conformance_efi.Status {
	if !s.Configured {
		return conformance_efi.StatusNotStarted
	}
	if s.binding.TransmitStatus != conformance_efi.StatusSuccess {
		return s.binding.TransmitStatus
	}
	if s.binding.Responder != nil {
		if resp := s.binding.Responder(dgram); resp != nil {
			s.queue = append(s.queue, resp)
		}
	}
	return conformance_efi.StatusSuccess
}

func (s *MockUDP4Socket) Receive() (*conformance_efi.Datagram, conformance_efi.Status) {
	if !s.Configured {
		return nil, conformance_efi.StatusNotStarted
	}
	if len(s.queue) == 0 {
		return nil, conformance_efi.StatusNotReady
	}
	dgram := s.queue[0]
	s.queue = s.queue[1:]
	return dgram, conformance_efi.StatusSuccess
}

// MockUDP4ServiceBinding provides a mock UDP4 service binding whose
// sockets answer transmissions through the optional Responder, standing
// in for a remote peer.
type MockUDP4ServiceBinding struct {
	// Responder computes the datagram that arrives in response to a
	// transmitted one. A nil Responder (or a nil response) means nothing
	// ever arrives.
	Responder func(dgram *conformance_efi.Datagram) *conformance_efi.Datagram

	// TransmitStatus overrides the status of Transmit on every socket
	// when not StatusSuccess.
	TransmitStatus conformance_efi.Status

	Created   []*MockUDP4Socket
	Destroyed []*MockUDP4Socket
}

func (b *MockUDP4ServiceBinding) CreateSocket() (conformance_efi.UDP4Socket, conformance_efi.Status) {
	sock := &MockUDP4Socket{binding: b}
	b.Created = append(b.Created, sock)
	return sock, conformance_efi.StatusSuccess
}

func (b *MockUDP4ServiceBinding) DestroySocket(sock conformance_efi.UDP4Socket) conformance_efi.Status {
	s, ok := sock.(*MockUDP4Socket)
	if !ok {
		return conformance_efi.StatusInvalidParameter
	}
	b.Destroyed = append(b.Destroyed, s)
	return conformance_efi.StatusSuccess
}

// MockTCG provides a mock TCG protocol for TPM 1.2 devices.
type MockTCG struct {
	Present       bool
	PresentStatus conformance_efi.Status
	Log           *tcglog.Log
	LogErr        error
}

func (p *MockTCG) TPMPresent() (bool, conformance_efi.Status) {
	if p.PresentStatus != conformance_efi.StatusSuccess {
		return false, p.PresentStatus
	}
	return p.Present, conformance_efi.StatusSuccess
}

func (p *MockTCG) EventLog() (*tcglog.Log, error) {
	if p.LogErr != nil {
		return nil, p.LogErr
	}
	return p.Log, nil
}

// MockTCG2 provides a mock TCG2 protocol for TPM 2.0 devices.
type MockTCG2 struct {
	Cap       *conformance_efi.TCG2Capability
	CapStatus conformance_efi.Status
	Log       *tcglog.Log
	LogErr    error
}

func (p *MockTCG2) Capability() (*conformance_efi.TCG2Capability, conformance_efi.Status) {
	if p.CapStatus != conformance_efi.StatusSuccess {
		return nil, p.CapStatus
	}
	return p.Cap, conformance_efi.StatusSuccess
}

func (p *MockTCG2) EventLog(format conformance_efi.EventLogFormat) (*tcglog.Log, error) {
	if p.LogErr != nil {
		return nil, p.LogErr
	}
	return p.Log, nil
}
