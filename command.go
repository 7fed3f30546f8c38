package nrfgoprog

import (
	"bytes"
	"encoding/binary"
)

// Bridge protocol opcodes. The bridge is a small firmware shim that exposes
// the debug probe driver over a serial link; each driver primitive maps to
// one opcode.
const (
	opOpen            = 0x01
	opClose           = 0x02
	opConnectProbe    = 0x03
	opDisconnectProbe = 0x04
	opConnectTarget   = 0x05
	opReadVersion     = 0x06

	opRead       = 0x10
	opWriteRAM   = 0x11
	opWriteFlash = 0x12

	opEraseAll  = 0x20
	opErasePage = 0x21
	opEraseUICR = 0x22

	opHalt       = 0x30
	opGo         = 0x31
	opDebugReset = 0x32
	opPinReset   = 0x33
	opSysReset   = 0x34
	opReadReg    = 0x35

	opReadbackProtect = 0x40
	opRecover         = 0x41

	opEnumSerials = 0x50
	opDLLVersion  = 0x51
)

// Bridge status codes.
const (
	statusSuccess     = 0x01
	statusFailed      = 0xF0
	statusWrongFamily = 0xFD
	statusAddress     = 0xFE
	statusUnsupported = 0xFF
)

// statusString returns the string representation of a bridge status code.
func statusString(code byte) string {
	switch code {
	case statusSuccess:
		return "success"
	case statusFailed:
		return "operation failed"
	case statusWrongFamily:
		return "wrong family for device"
	case statusAddress:
		return "address error"
	case statusUnsupported:
		return "unsupported"
	default:
		return "invalid status code"
	}
}

// respLengthPrefixed marks a command whose response is a one-byte length
// followed by that many bytes.
const respLengthPrefixed = -1

// command represents one bridge protocol command.
type command struct {
	opcode  uint8
	address uint32
	length  uint16
	data    []byte
	// Response length excluding the status byte; respLengthPrefixed for
	// length-prefixed responses.
	responseLength int
}

// frame returns the serialized command: opcode, length, address, payload.
func (c command) frame() []byte {
	if len(c.data) > 0 {
		c.length = uint16(len(c.data))
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(c.opcode)
	binary.Write(buf, binary.LittleEndian, c.length)
	binary.Write(buf, binary.LittleEndian, c.address)
	buf.Write(c.data)
	return buf.Bytes()
}

// headerLength is the length of the echoed frame header: sync byte, opcode,
// length and address.
const headerLength = 8

func newSimpleCommand(opcode uint8) command {
	return command{opcode: opcode}
}

func newOpenCommand(family Family) command {
	return command{opcode: opOpen, address: uint32(family)}
}

// Connect parameter flags.
const (
	connectFlagSerial = 1 << 0
	connectFlagSpeed  = 1 << 1
)

func newConnectProbeCommand(serial, speed *uint32) command {
	payload := make([]byte, 9)
	if serial != nil {
		payload[0] |= connectFlagSerial
		binary.LittleEndian.PutUint32(payload[1:], *serial)
	}
	if speed != nil {
		payload[0] |= connectFlagSpeed
		binary.LittleEndian.PutUint32(payload[5:], *speed)
	}
	return command{opcode: opConnectProbe, data: payload}
}

func newReadVersionCommand() command {
	return command{opcode: opReadVersion, responseLength: respLengthPrefixed}
}

func newReadCommand(addr uint32, length int) command {
	return command{opcode: opRead, address: addr, length: uint16(length), responseLength: length}
}

func newWriteCommand(addr uint32, data []byte, flash bool) command {
	opcode := uint8(opWriteRAM)
	if flash {
		opcode = opWriteFlash
	}
	return command{opcode: opcode, address: addr, data: data}
}

func newErasePageCommand(addr uint32) command {
	return command{opcode: opErasePage, address: addr}
}

func newReadRegCommand(reg CPURegister) command {
	return command{opcode: opReadReg, address: uint32(reg), responseLength: 4}
}

func newReadbackProtectCommand(scope ReadbackProtection) command {
	return command{opcode: opReadbackProtect, address: uint32(scope)}
}

func newEnumSerialsCommand() command {
	return command{opcode: opEnumSerials, responseLength: respLengthPrefixed}
}

func newDLLVersionCommand() command {
	return command{opcode: opDLLVersion, responseLength: respLengthPrefixed}
}
