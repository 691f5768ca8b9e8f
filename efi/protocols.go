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

package efi

import (
	"fmt"

	efi "github.com/canonical/go-efilib"
	"github.com/canonical/tcglog-parser"
)

// Identities of the protocols that the harness exercises, from the UEFI
// specification and the TCG EFI protocol specifications.
var (
	SimpleTextOutputProtocolGUID = efi.MakeGUID(0x387477c2, 0x69c7, 0x11d2, 0x8e39, [...]uint8{0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b})
	DebugSupportProtocolGUID     = efi.MakeGUID(0x2755590c, 0x6f3c, 0x42fa, 0x9ea4, [...]uint8{0xa3, 0xba, 0x54, 0x3c, 0xda, 0x25})
	MPServicesProtocolGUID       = efi.MakeGUID(0x3fdda605, 0xa76e, 0x4f46, 0xad29, [...]uint8{0x12, 0xf4, 0x53, 0x1b, 0x3d, 0x08})
	PXEBaseCodeProtocolGUID      = efi.MakeGUID(0x03c4e603, 0xac28, 0x11d3, 0x9a2d, [...]uint8{0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d})
	SimpleNetworkProtocolGUID    = efi.MakeGUID(0xa19832b9, 0xac25, 0x11d3, 0x9a2d, [...]uint8{0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d})
	UDP4ServiceBindingGUID       = efi.MakeGUID(0x83f01464, 0x99bd, 0x45e5, 0xb383, [...]uint8{0xaf, 0x63, 0x05, 0xd8, 0xe9, 0xe6})
	TCGProtocolGUID              = efi.MakeGUID(0xf541796d, 0xa62e, 0x4954, 0xa775, [...]uint8{0x95, 0x84, 0xf6, 0x1b, 0x9c, 0xdd})
	TCG2ProtocolGUID             = efi.MakeGUID(0x607f766c, 0x7455, 0x42be, 0x930b, [...]uint8{0xe4, 0xd7, 0x6d, 0xb2, 0x72, 0x0f})
)

// ISA identifies a processor instruction set architecture, using the PE
// machine type encoding that the debug support protocol reports.
type ISA uint32

const (
	IsaIA32    ISA = 0x014c
	IsaX64     ISA = 0x8664
	IsaARM     ISA = 0x01c2
	IsaAArch64 ISA = 0xaa64
	IsaEBC     ISA = 0x0ebc
	IsaRV64    ISA = 0x5064
)

func (i ISA) String() string {
	switch i {
	case IsaIA32:
		return "IA32"
	case IsaX64:
		return "X64"
	case IsaARM:
		return "ARM"
	case IsaAArch64:
		return "AArch64"
	case IsaEBC:
		return "EBC"
	case IsaRV64:
		return "RISCV64"
	default:
		return fmt.Sprintf("ISA(%#x)", uint32(i))
	}
}

// DebugSupportProtocol corresponds to EFI_DEBUG_SUPPORT_PROTOCOL.
type DebugSupportProtocol interface {
	// Isa returns the instruction set architecture that this instance
	// provides debug support for.
	Isa() ISA

	// MaximumProcessorIndex returns the index of the last processor that
	// this instance supports.
	MaximumProcessorIndex() (uint32, Status)

	// ContextSize returns the size in bytes of the saved processor
	// context for the supported ISA.
	ContextSize() (uint64, Status)
}

// Flags reported in ProcessorInfo.StatusFlag, from the MP services
// protocol in the PI specification.
const (
	ProcessorAsBSP   uint32 = 1 << 0
	ProcessorEnabled uint32 = 1 << 1
	ProcessorHealthy uint32 = 1 << 2
)

// ProcessorInfo corresponds to EFI_PROCESSOR_INFORMATION.
type ProcessorInfo struct {
	ProcessorID uint64
	StatusFlag  uint32
}

// IsBSP reports whether this processor is the bootstrap processor.
func (i *ProcessorInfo) IsBSP() bool {
	return i.StatusFlag&ProcessorAsBSP != 0
}

// MPServicesProtocol corresponds to EFI_MP_SERVICES_PROTOCOL.
type MPServicesProtocol interface {
	// NumberOfProcessors returns the total number of logical processors
	// and the number of those that are enabled.
	NumberOfProcessors() (total, enabled uint32, status Status)

	// ProcessorInfo returns information about the logical processor with
	// the supplied index, or StatusNotFound if the index is beyond the
	// last processor.
	ProcessorInfo(index uint32) (*ProcessorInfo, Status)

	// WhoAmI returns the index of the processor executing the call.
	WhoAmI() (uint32, Status)

	// StartupAllAPs dispatches the supplied function on every enabled
	// application processor and waits for all of them to complete or the
	// supplied timeout (in microseconds, 0 meaning no timeout) to expire.
	// On platforms with no enabled APs this returns StatusNotStarted.
	StartupAllAPs(fn func(processor uint32), timeoutMicroseconds uint64) Status
}

// PXEBaseCodeProtocol corresponds to the parts of EFI_PXE_BASE_CODE_PROTOCOL
// that the harness drives directly. The DHCP exchange itself is performed
// over the UDP fixture so that the harness controls the polling and the
// timeout.
type PXEBaseCodeProtocol interface {
	// Start enables the PXE base code services.
	Start(useIPv6 bool) Status

	// Stop disables the PXE base code services and releases any
	// associated resources.
	Stop() Status
}

// MACAddress is an Ethernet station address.
type MACAddress [6]uint8

func (a MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// SimpleNetworkProtocol corresponds to the subset of
// EFI_SIMPLE_NETWORK_PROTOCOL used to bring the Ethernet medium up and
// down around a network test.
type SimpleNetworkProtocol interface {
	// Start changes the interface state from stopped to started.
	Start() Status

	// Initialize allocates transmit and receive buffers and brings the
	// medium up. Only valid once started.
	Initialize() Status

	// Shutdown resets the interface and releases the buffers allocated
	// by Initialize.
	Shutdown() Status

	// Stop changes the interface state back to stopped.
	Stop() Status

	// StationAddress returns the current Ethernet address of the
	// interface.
	StationAddress() MACAddress
}

// IPv4Address corresponds to EFI_IPv4_ADDRESS.
type IPv4Address [4]uint8

func (a IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// UDP4Config carries the subset of EFI_UDP4_CONFIG_DATA that the harness
// sets on a socket.
type UDP4Config struct {
	UseDefaultAddress bool
	StationAddress    IPv4Address
	SubnetMask        IPv4Address
	StationPort       uint16
	AcceptBroadcast   bool
	AcceptPromiscuous bool
}

// Datagram is one UDP payload together with its addressing.
type Datagram struct {
	SrcAddress IPv4Address
	SrcPort    uint16
	DstAddress IPv4Address
	DstPort    uint16
	Data       []byte
}

// UDP4Socket is one configured instance of EFI_UDP4_PROTOCOL. Receive is
// non-blocking; callers poll it with an explicit deadline.
type UDP4Socket interface {
	// Configure applies the supplied configuration, or resets the socket
	// if the configuration is nil.
	Configure(cfg *UDP4Config) Status

	// Transmit queues the supplied datagram for transmission.
	Transmit(dgram *Datagram) Status

	// Receive returns the next queued inbound datagram, or StatusNotReady
	// if there is none. It never blocks.
	Receive() (*Datagram, Status)
}

// UDP4ServiceBinding corresponds to EFI_UDP4_SERVICE_BINDING_PROTOCOL,
// which hands out and reclaims socket instances.
type UDP4ServiceBinding interface {
	CreateSocket() (UDP4Socket, Status)
	DestroySocket(sock UDP4Socket) Status
}

// EventLogFormat selects which TCG event log format to obtain from the
// TCG2 protocol.
type EventLogFormat uint32

const (
	EventLogFormatTCG12 EventLogFormat = 1 << 0
	EventLogFormatTCG2  EventLogFormat = 1 << 1
)

// TCGProtocol corresponds to the TCG EFI protocol for TPM 1.2 devices.
// The binding returns the event log already parsed - the harness treats
// the binding as a trusted library exposing typed calls.
type TCGProtocol interface {
	// TPMPresent reports whether a TPM 1.2 device is present and enabled,
	// as reported by TCG_STATUS_CHECK.
	TPMPresent() (bool, Status)

	// EventLog returns the TCG 1.2 format event log.
	EventLog() (*tcglog.Log, error)
}

// TCG2Capability carries the subset of EFI_TCG2_BOOT_SERVICE_CAPABILITY
// that the harness validates.
type TCG2Capability struct {
	TPMPresent          bool
	HashAlgorithmBitmap uint32
	SupportedEventLogs  EventLogFormat
}

// Hash algorithm bits for TCG2Capability.HashAlgorithmBitmap, from the
// TCG EFI protocol specification.
const (
	TCG2HashAlgSHA1   uint32 = 1 << 0
	TCG2HashAlgSHA256 uint32 = 1 << 1
	TCG2HashAlgSHA384 uint32 = 1 << 2
	TCG2HashAlgSHA512 uint32 = 1 << 3
)

// TCG2Protocol corresponds to the TCG EFI protocol for TPM 2.0 devices.
type TCG2Protocol interface {
	// Capability returns the protocol's capability structure.
	Capability() (*TCG2Capability, Status)

	// EventLog returns the event log in the requested format.
	EventLog(format EventLogFormat) (*tcglog.Log, error)
}
