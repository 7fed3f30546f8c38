package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"sort"
	"strconv"

	"github.com/nrf5x-tools/nrfgoprog"
	log "github.com/sirupsen/logrus"
)

// flashEnd is the first address above the code flash region. Writes below
// it must use the flash write variant.
const flashEnd = 0x80000

// checkWriteRegion refuses a non-flash write aimed into the code flash
// region. Does not catch UICR addresses, but better than nothing.
func checkWriteRegion(addr uint32, flash bool) error {
	if !flash && addr < flashEnd {
		return fmt.Errorf("the -flash option is required when writing flash")
	}
	return nil
}

func parseAddr(arg string) uint32 {
	addr, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		log.Fatalf("invalid address: %v", err)
	}
	return uint32(addr)
}

func processErase(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	erasePage := fs.String("erasepage", "", "Erase the page containing the given address.")
	eraseUICR := fs.Bool("eraseuicr", false, "Erase the UICR region only.")
	fs.Parse(args)

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("erasing the device")

	var err error
	switch {
	case *erasePage != "":
		err = session.Probe().ErasePage(parseAddr(*erasePage))
	case *eraseUICR:
		err = session.Probe().EraseUICR()
	default:
		err = session.Probe().EraseAll()
	}
	if err != nil {
		log.Fatalf("failed to erase: %v", err)
	}
}

func processHalt(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	session := openSession(driver, opts)
	defer session.Close()
	log.Info("halting the device's CPU")

	if err := session.Probe().Halt(); err != nil {
		log.Fatalf("failed to halt: %v", err)
	}
}

func processIDs(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	log.Info("displaying the serial numbers of all connected probes")

	serials, err := driver.EnumProbeSerials()
	if err != nil {
		log.Fatalf("failed to enumerate probes: %v", err)
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	for _, snr := range serials {
		fmt.Println(snr)
	}
}

func processMemRead(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	if len(args) < 1 || len(args) > 2 {
		log.Fatal("expected: memrd addr [length]")
	}
	addr := parseAddr(args[0])
	length := 4
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid length: %v", err)
		}
		length = n
	}
	if length <= 0 {
		log.Fatal("length must be greater than zero")
	}

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("reading the device's memory")

	data, err := session.Probe().Read(addr, length)
	if err != nil {
		log.Fatalf("failed to read memory: %v", err)
	}
	fmt.Print(hex.Dump(data))
}

func processMemWrite(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	fs := flag.NewFlagSet("memwr", flag.ExitOnError)
	flash := fs.Bool("flash", false, "Use the flash write variant (required for flash and UICR addresses).")
	fs.Parse(args)
	args = fs.Args()

	if len(args) != 2 {
		log.Fatal("expected: memwr [-flash] addr value")
	}
	addr := parseAddr(args[0])
	value, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		log.Fatalf("invalid value: %v", err)
	}
	if err := checkWriteRegion(addr, *flash); err != nil {
		log.Fatal(err)
	}

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("writing the device's memory")

	if err := session.Probe().WriteU32(addr, uint32(value), *flash); err != nil {
		log.Fatalf("failed to write memory: %v", err)
	}
}

func processPinResetEnable(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	session := openSession(driver, opts)
	defer session.Close()
	log.Info("enabling pin reset")

	if err := nrfgoprog.PinResetEnable(session); err != nil {
		log.Fatalf("failed to enable pin reset: %v", err)
	}
}

// resetModeFlags registers the three reset flags on fs and returns a
// function reporting the selected mode and whether any flag was set at all.
func resetModeFlags(fs *flag.FlagSet) func() (nrfgoprog.ResetMode, bool) {
	debug := fs.Bool("debugreset", false, "Perform a debug reset.")
	pin := fs.Bool("pinreset", false, "Perform a pin reset.")
	system := fs.Bool("systemreset", false, "Perform a system reset.")
	return func() (nrfgoprog.ResetMode, bool) {
		switch {
		case *debug:
			return nrfgoprog.ResetDebug, true
		case *pin:
			return nrfgoprog.ResetPin, true
		case *system:
			return nrfgoprog.ResetSystem, true
		default:
			return nrfgoprog.ResetSystem, false
		}
	}
}

func processProgram(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	fs := flag.NewFlagSet("program", flag.ExitOnError)
	eraseAll := fs.Bool("eraseall", false, "Erase all flash before programming.")
	sectorsErase := fs.Bool("sectorserase", false, "Erase only the sectors covered by the image.")
	sectorsAndUICRErase := fs.Bool("sectorsanduicrerase", false, "Erase the covered sectors and the UICR.")
	verify := fs.Bool("verify", false, "Read the programmed data back and compare.")
	mode := resetModeFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("expected: program [flags] file.hex")
	}

	log.Info("parsing hex file into segments")
	segments, err := nrfgoprog.LoadImage(fs.Arg(0))
	if err != nil {
		log.Fatalf("failed to load image: %v", err)
	}

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("programming the device")

	switch {
	case *eraseAll:
		if err := session.Probe().EraseAll(); err != nil {
			log.Fatalf("failed to erase: %v", err)
		}
	case *sectorsErase:
		if err := nrfgoprog.SectorsErase(session, segments); err != nil {
			log.Fatalf("failed to erase: %v", err)
		}
	case *sectorsAndUICRErase:
		if err := nrfgoprog.SectorsAndUICRErase(session, segments); err != nil {
			log.Fatalf("failed to erase: %v", err)
		}
	}

	if err := nrfgoprog.Program(session, segments, *verify); err != nil {
		log.Fatalf("failed to program: %v", err)
	}
	if *verify {
		log.Info("programming verified")
	}

	// Only reset when a reset flag was explicitly given; plain program
	// leaves the target as-is.
	if m, selected := mode(); selected {
		if err := nrfgoprog.Reset(session, m); err != nil {
			log.Fatalf("failed to reset: %v", err)
		}
	}
}

func processReadback(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	session := openSession(driver, opts)
	defer session.Close()
	log.Info("enabling the readback protection mechanism")

	if err := session.Probe().ReadbackProtect(nrfgoprog.ReadbackProtectionAll); err != nil {
		log.Fatalf("failed to enable readback protection: %v", err)
	}
}

func processReadRegs(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	session := openSession(driver, opts)
	defer session.Close()
	log.Info("reading the CPU registers")

	for _, reg := range nrfgoprog.CPURegisters() {
		value, err := session.Probe().ReadCPURegister(reg)
		if err != nil {
			log.Fatalf("failed to read %v: %v", reg, err)
		}
		fmt.Printf("%-4v: 0x%08X\n", reg, value)
	}
}

func processReadToFile(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	if len(args) != 3 {
		log.Fatal("expected: readtofile file addr length")
	}
	addr := parseAddr(args[1])
	length, err := strconv.Atoi(args[2])
	if err != nil {
		log.Fatalf("invalid length: %v", err)
	}

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("reading and storing the device's memory")

	if err := nrfgoprog.ReadToFile(session, args[0], addr, length); err != nil {
		log.Fatalf("failed to read to file: %v", err)
	}
}

func processRecover(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	log.Info("erasing all user flash and RAM and disabling readback protection")

	outcome, err := nrfgoprog.Recover(driver, opts)
	if err != nil {
		log.Fatalf("failed to recover: %v", err)
	}
	log.Infof("recovered %v device", outcome.Family)
}

func processReset(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	mode := resetModeFlags(fs)
	fs.Parse(args)

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("resetting the device")

	// The standalone reset command defaults to a system reset.
	m, _ := mode()
	if err := nrfgoprog.Reset(session, m); err != nil {
		log.Fatalf("failed to reset: %v", err)
	}
}

func processRun(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	session := openSession(driver, opts)
	defer session.Close()
	log.Info("running the device's CPU")

	if err := session.Probe().Go(); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}

func processVerify(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	if len(args) != 1 {
		log.Fatal("expected: verify file.hex")
	}

	segments, err := nrfgoprog.LoadImage(args[0])
	if err != nil {
		log.Fatalf("failed to load image: %v", err)
	}

	session := openSession(driver, opts)
	defer session.Close()
	log.Info("verifying the device's memory")

	if err := nrfgoprog.VerifyOnly(session, segments); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	log.Info("programming verified")
}

func processVersion(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options, args []string) {
	dll, err := driver.DLLVersion()
	if err != nil {
		log.Fatalf("failed to read driver version: %v", err)
	}
	fmt.Println(dll)
	fmt.Println(appVersion)
}
