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

// Package conformance implements a test harness that validates live UEFI
// firmware subsystems - core table access, debug support, multiprocessor
// services, networking, PXE and TPM event logs - against the firmware
// boundary defined by the [github.com/canonical/uefi-conformance/efi]
// package, and aggregates the per-module outcomes into a single exit
// status for the host emulator.
package conformance

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/xerrors"

	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

// Names of the test modules, matching the feature names they are toggled
// by.
const (
	ModuleCore           = "core"
	ModuleDebugSupport   = "debug_support"
	ModuleMultiProcessor = "multi_processor"
	ModuleNetwork        = "network"
	ModulePXE            = "pxe"
	ModuleTPMV1          = "tpm_v1"
	ModuleTPMV2          = "tpm_v2"
)

// Options configures a harness. The module toggles mirror the build-time
// feature selection of the firmware image: they are fixed for the
// harness's lifetime once it is constructed.
type Options struct {
	// Module toggles. The core services module is always registered.
	DebugSupport   bool
	MultiProcessor bool
	Network        bool
	PXE            bool
	TPMV1          bool
	TPMV2          bool

	// NetworkTimeout bounds every wait for an inbound datagram in the
	// network dependent modules. Zero means 5 seconds; tests that want
	// an immediately expired timeout should use a negative value.
	NetworkTimeout time.Duration

	// EchoAddress and EchoPort locate the UDP echo endpoint that the
	// network module talks to. The defaults are the conventional host
	// address and echo port of an emulator's user mode network.
	EchoAddress conformance_efi.IPv4Address
	EchoPort    uint16

	// Output receives one line per module verdict plus a summary line,
	// in module registration order. Nil discards the report.
	Output io.Writer
}

func (o *Options) networkTimeout() time.Duration {
	if o.NetworkTimeout == 0 {
		return 5 * time.Second
	}
	return o.NetworkTimeout
}

func (o *Options) echoAddress() conformance_efi.IPv4Address {
	var zero conformance_efi.IPv4Address
	if o.EchoAddress == zero {
		return conformance_efi.IPv4Address{10, 0, 2, 2}
	}
	return o.EchoAddress
}

func (o *Options) echoPort() uint16 {
	if o.EchoPort == 0 {
		return 7
	}
	return o.EchoPort
}

// AllModules returns an Options with every module enabled.
func AllModules() Options {
	return Options{
		DebugSupport:   true,
		MultiProcessor: true,
		Network:        true,
		PXE:            true,
		TPMV1:          true,
		TPMV2:          true,
	}
}

type module struct {
	name string
	run  func(env conformance_efi.HostEnvironment) Verdict
}

// Harness runs the enabled test modules in a fixed order against one
// host environment and aggregates their verdicts.
type Harness struct {
	env     conformance_efi.HostEnvironment
	opts    Options
	modules []module
}

// New returns a harness for the supplied host environment. Module
// registration order is fixed and module enablement never changes after
// this point.
func New(env conformance_efi.HostEnvironment, opts Options) *Harness {
	h := &Harness{env: env, opts: opts}

	h.register(ModuleCore, true, h.runCoreModule)
	h.register(ModuleDebugSupport, opts.DebugSupport, h.runDebugSupportModule)
	h.register(ModuleMultiProcessor, opts.MultiProcessor, h.runMultiProcessorModule)
	h.register(ModuleNetwork, opts.Network, h.runNetworkModule)
	h.register(ModulePXE, opts.PXE, h.runPXEModule)
	h.register(ModuleTPMV1, opts.TPMV1, h.runTPMV1Module)
	h.register(ModuleTPMV2, opts.TPMV2, h.runTPMV2Module)

	return h
}

func (h *Harness) register(name string, enabled bool, run func(env conformance_efi.HostEnvironment) Verdict) {
	if !enabled {
		return
	}
	h.modules = append(h.modules, module{name: name, run: run})
}

// Modules returns the names of the registered modules in execution
// order.
func (h *Harness) Modules() []string {
	var names []string
	for _, m := range h.modules {
		names = append(names, m.name)
	}
	return names
}

func (h *Harness) output() io.Writer {
	if h.opts.Output == nil {
		return io.Discard
	}
	return h.opts.Output
}

// runModule invokes one module, containing any panic at the module
// boundary. A module blowing up must never prevent the remaining modules
// from running and being reported.
func (h *Harness) runModule(m module) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = Failf("module aborted: %v", r)
		}
	}()
	return m.run(h.env)
}

// Run validates the firmware's core tables and then executes the
// registered modules in order, returning the aggregated result.
//
// A malformed system table, or a handle database that cannot be walked,
// is detected before any module runs and returned as a
// *CorruptStateError without attempting any module - this is the only
// error Run returns. Everything that goes wrong inside a module is
// downgraded to that module's verdict.
func (h *Harness) Run() (*Result, error) {
	table, err := h.env.SystemTable()
	if err != nil {
		return nil, &CorruptStateError{err: xerrors.Errorf("cannot obtain system table: %w", err)}
	}
	if err := table.Check(); err != nil {
		return nil, &CorruptStateError{err: err}
	}
	// Probe the handle database. Absence of the probed protocol is fine
	// here - the core module judges that - but a database that cannot be
	// walked at all means nothing below can be trusted.
	if _, err := h.env.HandlesForProtocol(conformance_efi.SimpleTextOutputProtocolGUID); err != nil {
		return nil, &CorruptStateError{err: xerrors.Errorf("cannot walk handle database: %w", err)}
	}

	result := new(Result)
	for _, m := range h.modules {
		v := h.runModule(m)
		result.record(m.name, v)
		fmt.Fprintf(h.output(), "%s: %s\n", m.name, v)
	}

	passed, failed, skipped := result.Counts()
	fmt.Fprintf(h.output(), "%d passed, %d failed, %d skipped\n", passed, failed, skipped)

	return result, nil
}
