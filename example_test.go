package nrfgoprog

import (
	"log"
)

func Example() {
	// Create a driver for the probe bridge on the given serial port.
	driver, err := NewSerialDriver("/dev/ttyUSB0", 115200)
	if err != nil {
		log.Fatalf("failed to initialise driver: %v", err)
	}

	// Open resolves the device family automatically. Both connection
	// parameters are optional.
	log.Print("connecting to device...")
	session, err := Open(driver, Options{})
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()
	log.Printf("connected to %v target", session.Family())

	segments, err := LoadImage("firmware.hex")
	if err != nil {
		log.Fatal(err)
	}
	log.Print("hex file loaded")

	log.Print("programming...")
	if err := session.Probe().EraseAll(); err != nil {
		log.Fatal(err)
	}
	if err := Program(session, segments, true); err != nil {
		log.Fatal(err)
	}

	log.Print("resetting...")
	if err := Reset(session, ResetSystem); err != nil {
		log.Fatal(err)
	}
	log.Print("complete")
}
