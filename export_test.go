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

const (
	DHCPClientPort    = dhcpClientPort
	DHCPServerPort    = dhcpServerPort
	DHCPTransactionID = dhcpTransactionID
	NetworkProbePort  = networkProbePort
)

var (
	BuildDHCPDiscover = buildDHCPDiscover
	NetworkVerdict    = networkVerdict
	ParseDHCPReply    = parseDHCPReply
	ValidateEventLog  = validateEventLog
	VerdictFromErr    = verdictFromErr
)

func MakeResult(verdicts ...ModuleVerdict) *Result {
	r := new(Result)
	for _, mv := range verdicts {
		r.record(mv.Name, mv.Verdict)
	}
	return r
}
