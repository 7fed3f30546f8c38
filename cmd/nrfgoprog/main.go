package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/nrf5x-tools/nrfgoprog"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const appVersion = "0.1.0"

// probeProfile holds the probe connection settings, loadable from a yaml
// file so a bench setup does not need them on every invocation.
type probeProfile struct {
	Port       string `yaml:"port"`
	Baud       int    `yaml:"baud"`
	Serial     uint32 `yaml:"serial"`
	ClockSpeed uint32 `yaml:"clockspeed"`
}

var commands = map[string]func(*nrfgoprog.SerialDriver, nrfgoprog.Options, []string){
	"erase":          processErase,
	"halt":           processHalt,
	"ids":            processIDs,
	"memrd":          processMemRead,
	"memwr":          processMemWrite,
	"pinresetenable": processPinResetEnable,
	"program":        processProgram,
	"readback":       processReadback,
	"readregs":       processReadRegs,
	"readtofile":     processReadToFile,
	"recover":        processRecover,
	"reset":          processReset,
	"run":            processRun,
	"verify":         processVerify,
	"version":        processVersion,
}

func main() {
	version := flag.Bool("version", false, "Prints the program version.")
	port := flag.String("port", "", "Serial port of the probe bridge.")
	baud := flag.Int("baud", 115200, "Baud rate.")
	snr := flag.Uint("snr", 0, "Serial number of the probe to connect to.")
	clockspeed := flag.Uint("clockspeed", 0, "Clock speed in kHz for the target connection.")
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	quiet := flag.Bool("q", false, "Only log errors.")

	// Format an empty probeProfile struct in YAML format as an example.
	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.Encode(probeProfile{})
	profile := flag.String("profile", "", "Probe profile yaml file. Example:\n\n"+buf.String())

	cmdList := []string{}
	for key := range commands {
		cmdList = append(cmdList, key)
	}
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: nrfgoprog [flags] command [command args]\n"+
			"commands: %+v\n\n", cmdList)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println(appVersion)
		return
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *quiet {
		log.SetLevel(log.ErrorLevel)
	}

	nrfgoprog.SetLogger(log.StandardLogger())

	prof := probeProfile{Baud: *baud}
	if *profile != "" {
		f, err := ioutil.ReadFile(*profile)
		if err != nil {
			log.Fatalf("failed to open profile file: %v", err)
		}
		if err := yaml.Unmarshal(f, &prof); err != nil {
			log.Fatalf("failed to parse profile file: %v", err)
		}
	}
	// Flags override the profile file.
	if *port != "" {
		prof.Port = *port
	}
	if *snr != 0 {
		prof.Serial = uint32(*snr)
	}
	if *clockspeed != 0 {
		prof.ClockSpeed = uint32(*clockspeed)
	}

	if prof.Port == "" {
		log.Fatal("must specify port")
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	f, ok := commands[name]
	if !ok {
		log.Fatalf("invalid command %v", name)
	}

	driver, err := nrfgoprog.NewSerialDriver(prof.Port, prof.Baud)
	if err != nil {
		log.Fatalf("failed to initialise driver: %v", err)
	}

	opts := nrfgoprog.Options{}
	if prof.Serial != 0 {
		opts.SerialNumber = &prof.Serial
	}
	if prof.ClockSpeed != 0 {
		opts.ClockSpeedKHz = &prof.ClockSpeed
	}

	f(driver, opts, flag.Args()[1:])
}

// openSession connects to the target, resolving the device family. The
// caller is responsible for closing the returned session.
func openSession(driver *nrfgoprog.SerialDriver, opts nrfgoprog.Options) *nrfgoprog.Session {
	session, err := nrfgoprog.Open(driver, opts)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	return session
}
