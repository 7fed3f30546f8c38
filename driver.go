// Package nrfgoprog programs and inspects nRF5x microcontrollers over a
// debug probe connection.
//
// The package contains three main components: the Driver/Probe interfaces,
// the Session manager and the flash programming routines. Driver and Probe
// describe the low-level debug probe driver in a transport-agnostic fashion.
// Open resolves the device family (nRF51 or nRF52) by trial and error and
// returns an exclusive Session through which the programming, reset and
// recovery routines operate.
//
// Also included is a command line tool, found in the cmd/nrfgoprog directory,
// that serves as both an example on how to use the library and a fully
// functional host program for flashing and inspecting devices.
package nrfgoprog

import "fmt"

// Family identifies the protocol variant a target device speaks.
type Family int

const (
	// FamilyNRF51 covers the nRF51 series.
	FamilyNRF51 Family = iota
	// FamilyNRF52 covers the nRF52 series.
	FamilyNRF52
)

func (f Family) String() string {
	switch f {
	case FamilyNRF51:
		return "nRF51"
	case FamilyNRF52:
		return "nRF52"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ReadbackProtection selects the scope of the readback protection mechanism.
type ReadbackProtection int

const (
	// ReadbackProtectionNone disables readback protection.
	ReadbackProtectionNone ReadbackProtection = iota
	// ReadbackProtectionRegion0 protects region 0 only (nRF51).
	ReadbackProtectionRegion0
	// ReadbackProtectionAll protects all of flash.
	ReadbackProtectionAll
)

// CPURegister identifies a core CPU register readable through the probe.
type CPURegister int

// Core register indices, R0-R12 followed by the special registers.
const (
	RegR0 CPURegister = iota
	RegR1
	RegR2
	RegR3
	RegR4
	RegR5
	RegR6
	RegR7
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegSP
	RegLR
	RegPC
	RegXPSR
	RegMSP
	RegPSP

	numCPURegisters
)

func (r CPURegister) String() string {
	switch {
	case r >= RegR0 && r <= RegR12:
		return fmt.Sprintf("R%d", int(r))
	case r == RegSP:
		return "SP"
	case r == RegLR:
		return "LR"
	case r == RegPC:
		return "PC"
	case r == RegXPSR:
		return "XPSR"
	case r == RegMSP:
		return "MSP"
	case r == RegPSP:
		return "PSP"
	default:
		return fmt.Sprintf("CPURegister(%d)", int(r))
	}
}

// CPURegisters returns all registers reported by the readregs operation,
// in display order.
func CPURegisters() []CPURegister {
	regs := make([]CPURegister, numCPURegisters)
	for i := range regs {
		regs[i] = CPURegister(i)
	}
	return regs
}

// The Driver interface is the entry point to the low-level debug probe
// driver. A handle opened for one family cannot talk to a device of the
// other; the mismatch is only detectable after the version handshake, which
// is what Open exploits to auto-detect the family.
type Driver interface {
	// Open opens a driver handle scoped to the given device family.
	Open(family Family) (Probe, error)
	// EnumProbeSerials returns the serial numbers of all attached probes.
	EnumProbeSerials() ([]uint32, error)
	// DLLVersion returns the version string of the underlying driver.
	DLLVersion() (string, error)
}

// The Probe interface allows low-level interaction with an open driver
// handle. For higher level programming operations, use Open and the
// Program/Verify/Reset/Recover functions.
//
// The four ConnectProbe variants map to the driver's distinct connect calls;
// which one is used depends on which of serial number and clock speed the
// caller supplied.
type Probe interface {
	// ConnectProbe connects to the first available probe at the default
	// clock speed.
	ConnectProbe() error
	// ConnectProbeWithSpeed connects to the first available probe at the
	// given clock speed in kHz.
	ConnectProbeWithSpeed(clockSpeedKHz uint32) error
	// ConnectProbeBySerial connects to the probe with the given serial
	// number at the default clock speed.
	ConnectProbeBySerial(serialNumber uint32) error
	// ConnectProbeBySerialWithSpeed connects to the probe with the given
	// serial number at the given clock speed in kHz.
	ConnectProbeBySerialWithSpeed(serialNumber, clockSpeedKHz uint32) error
	// DisconnectProbe disconnects from the probe.
	DisconnectProbe() error

	// ConnectTarget performs the logical connect to the target device
	// itself, after the probe connection is up.
	ConnectTarget() error
	// ReadDeviceVersion reads the target's device version identifier.
	// If the handle was opened for the wrong family, the returned error
	// satisfies IsWrongFamily.
	ReadDeviceVersion() (string, error)

	// Read reads length bytes from the target's memory at addr.
	Read(addr uint32, length int) ([]byte, error)
	// Write writes data to the target's memory at addr. flash selects the
	// flash-targeted write variant, required for flash and UICR addresses.
	Write(addr uint32, data []byte, flash bool) error
	// WriteU32 writes a single 32-bit word to addr.
	WriteU32(addr uint32, value uint32, flash bool) error

	// EraseAll erases all user flash and the UICR.
	EraseAll() error
	// ErasePage erases the flash page containing addr.
	ErasePage(addr uint32) error
	// EraseUICR erases the UICR region.
	EraseUICR() error

	// Halt halts the target's CPU.
	Halt() error
	// Go starts the target's CPU.
	Go() error
	// DebugReset performs a debug-level reset.
	DebugReset() error
	// PinReset performs an external pin-level reset.
	PinReset() error
	// SysReset performs a system-level reset.
	SysReset() error

	// ReadCPURegister reads a core CPU register.
	ReadCPURegister(reg CPURegister) (uint32, error)
	// ReadbackProtect enables the readback protection mechanism.
	ReadbackProtect(scope ReadbackProtection) error
	// Recover erases all user flash and RAM and disables any readback or
	// access port protection mechanisms that are enabled.
	Recover() error

	// Close closes the driver handle.
	Close() error
}
