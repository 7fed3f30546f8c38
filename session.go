package nrfgoprog

import (
	"github.com/pkg/errors"
)

// Options holds the connection parameters for a session. Both fields are
// optional; a nil field selects the driver's default.
type Options struct {
	// SerialNumber selects a specific probe when several are attached.
	SerialNumber *uint32
	// ClockSpeedKHz sets the communication frequency with the target.
	ClockSpeedKHz *uint32
}

// Session is the single live connection to a probe and target. It is pinned
// to the device family resolved during Open and must be released with Close
// on every exit path.
type Session struct {
	probe  Probe
	family Family
}

// Family returns the device family the session is pinned to.
func (s *Session) Family() Family {
	return s.family
}

// Probe returns the underlying driver handle.
func (s *Session) Probe() Probe {
	return s.probe
}

// Close disconnects from the probe and closes the driver handle.
func (s *Session) Close() error {
	derr := s.probe.DisconnectProbe()
	cerr := s.probe.Close()
	if derr != nil {
		return errors.Wrap(derr, "disconnect probe")
	}
	if cerr != nil {
		return errors.Wrap(cerr, "close driver handle")
	}
	return nil
}

// connectProbe issues the driver connect call matching the supplied subset
// of serial number and clock speed.
func connectProbe(p Probe, opts Options) error {
	switch {
	case opts.SerialNumber != nil && opts.ClockSpeedKHz != nil:
		return p.ConnectProbeBySerialWithSpeed(*opts.SerialNumber, *opts.ClockSpeedKHz)
	case opts.SerialNumber != nil:
		return p.ConnectProbeBySerial(*opts.SerialNumber)
	case opts.ClockSpeedKHz != nil:
		return p.ConnectProbeWithSpeed(*opts.ClockSpeedKHz)
	default:
		return p.ConnectProbe()
	}
}

// openFamily opens a handle for the given family and connects to the probe.
// On failure the handle is closed before returning.
func openFamily(drv Driver, family Family, opts Options) (Probe, error) {
	probe, err := drv.Open(family)
	if err != nil {
		return nil, errors.Wrapf(err, "open driver for %v", family)
	}
	if err := connectProbe(probe, opts); err != nil {
		probe.Close()
		return nil, errors.Wrap(err, "connect to probe")
	}
	return probe, nil
}

// Open connects to the attached device, resolving its family by trial and
// error: the target's device version is queried through an nRF51 handle
// first, and a wrong-family response triggers a single retry under nRF52.
// The driver only reveals the mismatch after the protocol handshake, so the
// family cannot be known up front.
//
// On success exactly one driver handle is open, owned by the returned
// Session. On failure no handle is left open.
func Open(drv Driver, opts Options) (*Session, error) {
	family := FamilyNRF51
	probe, err := openFamily(drv, family, opts)
	if err != nil {
		return nil, err
	}

	if _, err := probe.ReadDeviceVersion(); err != nil {
		if !IsWrongFamily(err) {
			probe.DisconnectProbe()
			probe.Close()
			return nil, errors.Wrap(err, "read device version")
		}
		pkgLog.Debugf("not an %v device, retrying as %v", family, FamilyNRF52)
		probe.Close()
		family = FamilyNRF52
		probe, err = openFamily(drv, family, opts)
		if err != nil {
			return nil, err
		}
	}

	if err := probe.ConnectTarget(); err != nil {
		probe.DisconnectProbe()
		probe.Close()
		return nil, errors.Wrap(err, "connect to target")
	}

	pkgLog.Debugf("connected to %v target", family)
	return &Session{probe: probe, family: family}, nil
}
