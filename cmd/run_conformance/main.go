package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/logger"
	"github.com/jessevdk/go-flags"

	"github.com/canonical/uefi-conformance"
	conformance_efi "github.com/canonical/uefi-conformance/efi"
)

type options struct {
	Modules struct {
		NoDebugSupport   bool `long:"no-debug-support" description:"Don't run the debug support module"`
		NoMultiProcessor bool `long:"no-multi-processor" description:"Don't run the multiprocessor services module"`
		NoNetwork        bool `long:"no-network" description:"Don't run the UDP echo module"`
		NoPXE            bool `long:"no-pxe" description:"Don't run the PXE base code module"`
		NoTPMV1          bool `long:"no-tpm-v1" description:"Don't run the TPM 1.2 event log module"`
		NoTPMV2          bool `long:"no-tpm-v2" description:"Don't run the TPM 2.0 event log module"`
	} `group:"Module selection"`

	NetworkTimeout time.Duration `long:"network-timeout" description:"Bound on each wait for an inbound datagram" default:"5s"`
	EchoAddress    string        `long:"echo-address" description:"IPv4 address of the UDP echo endpoint" default:"10.0.2.2"`
	EchoPort       uint16        `long:"echo-port" description:"Port of the UDP echo endpoint" default:"7"`

	ListModules bool `long:"list-modules" description:"Print the modules that would run, in order, and exit"`
	Verbose     bool `short:"v" long:"verbose" description:"Log each firmware interaction"`
}

var opts options

func harnessOptions() (conformance.Options, error) {
	hopts := conformance.AllModules()
	hopts.DebugSupport = !opts.Modules.NoDebugSupport
	hopts.MultiProcessor = !opts.Modules.NoMultiProcessor
	hopts.Network = !opts.Modules.NoNetwork
	hopts.PXE = !opts.Modules.NoPXE
	hopts.TPMV1 = !opts.Modules.NoTPMV1
	hopts.TPMV2 = !opts.Modules.NoTPMV2
	hopts.NetworkTimeout = opts.NetworkTimeout
	hopts.EchoPort = opts.EchoPort
	hopts.Output = os.Stdout

	var addr conformance_efi.IPv4Address
	if n, err := fmt.Sscanf(opts.EchoAddress, "%d.%d.%d.%d", &addr[0], &addr[1], &addr[2], &addr[3]); err != nil || n != 4 {
		return conformance.Options{}, fmt.Errorf("cannot parse echo address %q", opts.EchoAddress)
	}
	hopts.EchoAddress = addr

	return hopts, nil
}

func run() (int, error) {
	if _, err := flags.Parse(&opts); err != nil {
		return 1, err
	}

	logger.Init("run_conformance", opts.Verbose, false, os.Stderr)

	hopts, err := harnessOptions()
	if err != nil {
		return 1, err
	}

	h := conformance.New(conformance_efi.DefaultEnv, hopts)

	if opts.ListModules {
		for _, name := range h.Modules() {
			fmt.Println(name)
		}
		return 0, nil
	}

	logger.Infof("running %d modules", len(h.Modules()))
	result, err := h.Run()
	if err != nil {
		return 1, err
	}
	return result.ExitCode(), nil
}

func main() {
	code, err := run()
	if err != nil {
		switch e := err.(type) {
		case *flags.Error:
			// flags already prints this
			if e.Type == flags.ErrHelp {
				code = 0
			}
		default:
			fmt.Fprintln(os.Stderr, "cannot run conformance tests:", err)
		}
	}
	os.Exit(code)
}
