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
	"io"

	efi "github.com/canonical/go-efilib"
	"github.com/canonical/go-tpm2"
	"github.com/canonical/tcglog-parser"

	. "gopkg.in/check.v1"
)

type logHashData interface {
	Write(w io.Writer) error
}

type bytesHashData []byte

func (d bytesHashData) Write(w io.Writer) error {
	_, err := w.Write(d)
	return err
}

type logBuilder struct {
	algs   []tpm2.HashAlgorithmId
	events []*tcglog.Event
}

func (b *logBuilder) hashLogExtendEvent(c *C, data logHashData, pcr tpm2.Handle, eventType tcglog.EventType, eventData tcglog.EventData) {
	ev := &tcglog.Event{
		PCRIndex:  pcr,
		EventType: eventType,
		Digests:   make(tcglog.DigestMap),
		Data:      eventData}

	for _, alg := range b.algs {
		h := alg.NewHash()
		c.Assert(data.Write(h), IsNil)
		ev.Digests[alg] = h.Sum(nil)
	}

	b.events = append(b.events, ev)
}

// LogOptions provides options for [NewLog].
type LogOptions struct {
	Algorithms []tpm2.HashAlgorithmId // the digest algorithms to include

	// NoMeasurements omits everything except the spec ID header event,
	// producing a log with no actual measurements in it.
	NoMeasurements bool
}

func (b *logBuilder) addMeasurements(c *C) {
	{
		data := tcglog.GUIDEventData(efi.MakeGUID(0x9a82e00c, 0x4a71, 0x47f3, 0xaa59, [...]uint8{0x15, 0x0c, 0x00, 0x2b, 0xf0, 0x61}))
		b.hashLogExtendEvent(c, data, 0, tcglog.EventTypeSCRTMVersion, data)
	}
	{
		data := &tcglog.EFIVariableData{
			VariableName: efi.GlobalVariable,
			UnicodeName:  "SecureBoot",
			VariableData: []byte{0x00}}
		b.hashLogExtendEvent(c, data, 7, tcglog.EventTypeEFIVariableDriverConfig, data)
	}
	for _, pcr := range []tpm2.Handle{0, 1, 2, 3, 4, 5, 6, 7} {
		data := &tcglog.SeparatorEventData{Value: tcglog.SeparatorEventNormalValue}
		b.hashLogExtendEvent(c, data, pcr, tcglog.EventTypeSeparator, data)
	}
}

// NewLog creates a mock crypto-agile (TCG 2.0) event log covering a
// minimal firmware boot up to the pre-OS to OS-present transition.
func NewLog(c *C, opts *LogOptions) *tcglog.Log {
	builder := &logBuilder{algs: opts.Algorithms}

	var digestSizes []tcglog.EFISpecIdEventAlgorithmSize
	for _, alg := range builder.algs {
		digestSizes = append(digestSizes,
			tcglog.EFISpecIdEventAlgorithmSize{
				AlgorithmId: alg,
				DigestSize:  uint16(alg.Size()),
			})
	}

	builder.events = []*tcglog.Event{
		{
			PCRIndex:  0,
			EventType: tcglog.EventTypeNoAction,
			Digests:   tcglog.DigestMap{tpm2.HashAlgorithmSHA1: make(tpm2.Digest, tpm2.HashAlgorithmSHA1.Size())},
			Data: &tcglog.SpecIdEvent03{
				SpecVersionMajor: 2,
				UintnSize:        2,
				DigestSizes:      digestSizes,
			},
		},
	}

	if !opts.NoMeasurements {
		builder.addMeasurements(c)
	}

	log := tcglog.NewLogForTesting(builder.events)
	log.Spec = tcglog.Spec{
		PlatformType: tcglog.PlatformTypeEFI,
		Major:        2,
		Minor:        0,
		Errata:       0,
	}
	log.Algorithms = tcglog.AlgorithmIdList(builder.algs)
	return log
}

// NewLog12 creates a mock TCG 1.2 (SHA-1 only) event log.
func NewLog12(c *C) *tcglog.Log {
	builder := &logBuilder{algs: []tpm2.HashAlgorithmId{tpm2.HashAlgorithmSHA1}}
	builder.addMeasurements(c)

	log := tcglog.NewLogForTesting(builder.events)
	log.Spec = tcglog.Spec{
		PlatformType: tcglog.PlatformTypeEFI,
		Major:        1,
		Minor:        2,
		Errata:       1,
	}
	log.Algorithms = tcglog.AlgorithmIdList{tpm2.HashAlgorithmSHA1}
	return log
}
