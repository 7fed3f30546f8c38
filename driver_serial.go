package nrfgoprog

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// syncByte leads every command frame sent to the bridge.
const syncByte = 0x55

// maxFramePayload caps the data carried by a single frame. The frame length
// field is 16 bits, so larger transfers are split across frames.
const maxFramePayload = 4096

// SerialDriver is a Driver that talks to a debug-probe bridge over a serial
// port. The bridge firmware translates the framed command protocol into
// driver primitives on the host side of the probe.
type SerialDriver struct {
	openPort func() (io.ReadWriteCloser, error)
}

// NewSerialDriver creates a Driver that connects to a probe bridge on the
// given serial port.
func NewSerialDriver(port string, baud int) (*SerialDriver, error) {
	cfg := serial.Config{
		Name:        port,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	d := &SerialDriver{
		openPort: func() (io.ReadWriteCloser, error) {
			p, err := serial.OpenPort(&cfg)
			if err != nil {
				return nil, err
			}
			// On Linux with USB serial ports, flush only works reliably
			// after received data has made its way up the driver stack,
			// so delay a little first.
			time.Sleep(time.Millisecond * 100)
			p.Flush()
			return p, nil
		},
	}
	return d, nil
}

// Open opens the port, binds the bridge to the given device family and
// returns the probe handle. The bridge accepts one open handle at a time.
func (d *SerialDriver) Open(family Family) (Probe, error) {
	port, err := d.openPort()
	if err != nil {
		return nil, errors.Wrap(err, "open bridge port")
	}
	p := &serialProbe{port: port}
	if _, err := p.send("open", newOpenCommand(family)); err != nil {
		port.Close()
		return nil, err
	}
	return p, nil
}

// EnumProbeSerials returns the serial numbers of all probes attached to the
// bridge.
func (d *SerialDriver) EnumProbeSerials() ([]uint32, error) {
	port, err := d.openPort()
	if err != nil {
		return nil, errors.Wrap(err, "open bridge port")
	}
	defer port.Close()

	p := &serialProbe{port: port}
	resp, err := p.send("enum probes", newEnumSerialsCommand())
	if err != nil {
		return nil, err
	}
	if len(resp)%4 != 0 {
		return nil, errors.Errorf("enum probes: response length %d not a multiple of 4", len(resp))
	}
	serials := make([]uint32, 0, len(resp)/4)
	for i := 0; i < len(resp); i += 4 {
		serials = append(serials, binary.LittleEndian.Uint32(resp[i:]))
	}
	return serials, nil
}

// DLLVersion returns the bridge's driver version string.
func (d *SerialDriver) DLLVersion() (string, error) {
	port, err := d.openPort()
	if err != nil {
		return "", errors.Wrap(err, "open bridge port")
	}
	defer port.Close()

	p := &serialProbe{port: port}
	resp, err := p.send("dll version", newDLLVersionCommand())
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// serialProbe is an open bridge handle.
type serialProbe struct {
	port io.ReadWriteCloser
}

func (p *serialProbe) recv(count int) ([]byte, error) {
	resp := make([]byte, 0, count)
	for len(resp) < cap(resp) {
		buf := make([]byte, cap(resp)-len(resp))
		n, err := p.port.Read(buf)
		if err != nil {
			return nil, err
		}
		resp = append(resp, buf[:n]...)
	}
	return resp, nil
}

// send transmits a command and reads the bridge's echo, status and
// response. The bridge echoes the frame header back before acting on the
// command, which catches framing and baud mismatches early.
func (p *serialProbe) send(op string, cmd command) ([]byte, error) {
	tx := append([]byte{syncByte}, cmd.frame()...)
	if _, err := p.port.Write(tx); err != nil {
		return nil, &DriverError{Op: op, Err: err}
	}

	echo, err := p.recv(headerLength)
	if err != nil {
		return nil, &DriverError{Op: op, Err: err}
	}
	for i := 0; i < headerLength; i++ {
		if tx[i] != echo[i] {
			return nil, &DriverError{Op: op, Err: fmt.Errorf("echo mismatch at position %d", i)}
		}
	}

	status, err := p.recv(1)
	if err != nil {
		return nil, &DriverError{Op: op, Err: err}
	}
	switch status[0] {
	case statusSuccess:
	case statusWrongFamily:
		return nil, &DriverError{Op: op, Code: ErrCodeWrongFamily}
	default:
		return nil, &DriverError{Op: op, Err: fmt.Errorf("bridge returned code 0x%02X: %s", status[0], statusString(status[0]))}
	}

	switch {
	case cmd.responseLength == respLengthPrefixed:
		n, err := p.recv(1)
		if err != nil {
			return nil, &DriverError{Op: op, Err: err}
		}
		resp, err := p.recv(int(n[0]))
		if err != nil {
			return nil, &DriverError{Op: op, Err: err}
		}
		return resp, nil
	case cmd.responseLength > 0:
		resp, err := p.recv(cmd.responseLength)
		if err != nil {
			return nil, &DriverError{Op: op, Err: err}
		}
		return resp, nil
	default:
		return nil, nil
	}
}

func (p *serialProbe) ConnectProbe() error {
	_, err := p.send("connect probe", newConnectProbeCommand(nil, nil))
	return err
}

func (p *serialProbe) ConnectProbeWithSpeed(clockSpeedKHz uint32) error {
	_, err := p.send("connect probe", newConnectProbeCommand(nil, &clockSpeedKHz))
	return err
}

func (p *serialProbe) ConnectProbeBySerial(serialNumber uint32) error {
	_, err := p.send("connect probe", newConnectProbeCommand(&serialNumber, nil))
	return err
}

func (p *serialProbe) ConnectProbeBySerialWithSpeed(serialNumber, clockSpeedKHz uint32) error {
	_, err := p.send("connect probe", newConnectProbeCommand(&serialNumber, &clockSpeedKHz))
	return err
}

func (p *serialProbe) DisconnectProbe() error {
	_, err := p.send("disconnect probe", newSimpleCommand(opDisconnectProbe))
	return err
}

func (p *serialProbe) ConnectTarget() error {
	_, err := p.send("connect target", newSimpleCommand(opConnectTarget))
	return err
}

func (p *serialProbe) ReadDeviceVersion() (string, error) {
	resp, err := p.send("read device version", newReadVersionCommand())
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

func (p *serialProbe) Read(addr uint32, length int) ([]byte, error) {
	data := make([]byte, 0, length)
	for length > 0 {
		n := length
		if n > maxFramePayload {
			n = maxFramePayload
		}
		chunk, err := p.send("read memory", newReadCommand(addr, n))
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		addr += uint32(n)
		length -= n
	}
	return data, nil
}

func (p *serialProbe) Write(addr uint32, data []byte, flash bool) error {
	for len(data) > 0 {
		n := len(data)
		if n > maxFramePayload {
			n = maxFramePayload
		}
		if _, err := p.send("write memory", newWriteCommand(addr, data[:n], flash)); err != nil {
			return err
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

func (p *serialProbe) WriteU32(addr uint32, value uint32, flash bool) error {
	word := make([]byte, 4)
	binary.LittleEndian.PutUint32(word, value)
	_, err := p.send("write word", newWriteCommand(addr, word, flash))
	return err
}

func (p *serialProbe) EraseAll() error {
	_, err := p.send("erase all", newSimpleCommand(opEraseAll))
	return err
}

func (p *serialProbe) ErasePage(addr uint32) error {
	_, err := p.send("erase page", newErasePageCommand(addr))
	return err
}

func (p *serialProbe) EraseUICR() error {
	_, err := p.send("erase uicr", newSimpleCommand(opEraseUICR))
	return err
}

func (p *serialProbe) Halt() error {
	_, err := p.send("halt", newSimpleCommand(opHalt))
	return err
}

func (p *serialProbe) Go() error {
	_, err := p.send("go", newSimpleCommand(opGo))
	return err
}

func (p *serialProbe) DebugReset() error {
	_, err := p.send("debug reset", newSimpleCommand(opDebugReset))
	return err
}

func (p *serialProbe) PinReset() error {
	_, err := p.send("pin reset", newSimpleCommand(opPinReset))
	return err
}

func (p *serialProbe) SysReset() error {
	_, err := p.send("sys reset", newSimpleCommand(opSysReset))
	return err
}

func (p *serialProbe) ReadCPURegister(reg CPURegister) (uint32, error) {
	resp, err := p.send("read register", newReadRegCommand(reg))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(resp), nil
}

func (p *serialProbe) ReadbackProtect(scope ReadbackProtection) error {
	_, err := p.send("readback protect", newReadbackProtectCommand(scope))
	return err
}

func (p *serialProbe) Recover() error {
	_, err := p.send("recover", newSimpleCommand(opRecover))
	return err
}

func (p *serialProbe) Close() error {
	if _, err := p.send("close", newSimpleCommand(opClose)); err != nil {
		p.port.Close()
		return err
	}
	return p.port.Close()
}
