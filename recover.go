package nrfgoprog

import (
	"github.com/pkg/errors"
)

// RecoveryOutcome reports which family ultimately served a recover
// operation and whether the fallback path was taken.
type RecoveryOutcome struct {
	Family   Family
	Fallback bool
}

// Recover erases all user flash and RAM and disables any readback
// protection mechanisms that are enabled.
//
// The primary path runs the normal family auto-detection and issues the
// driver's recover operation through the resulting session. If the primary
// path fails for any reason, the device is assumed to be an nRF52 with
// access port protection enabled: such a device cannot complete the version
// handshake the family detection depends on, so the fallback opens an nRF52
// handle directly, connects to the probe without probing the version, and
// recovers through that. This is a policy carried over from the product
// line, not a derived fact.
func Recover(drv Driver, opts Options) (RecoveryOutcome, error) {
	outcome, err := recoverDetected(drv, opts)
	if err == nil {
		return outcome, nil
	}
	pkgLog.Warnf("recover via detected family failed (%v), assuming access port protected nRF52", err)

	probe, err := openFamily(drv, FamilyNRF52, opts)
	if err != nil {
		return RecoveryOutcome{}, errors.Wrap(err, "recovery fallback")
	}
	if err := probe.Recover(); err != nil {
		probe.DisconnectProbe()
		probe.Close()
		return RecoveryOutcome{}, errors.Wrap(err, "recovery fallback")
	}
	derr := probe.DisconnectProbe()
	cerr := probe.Close()
	if derr != nil {
		return RecoveryOutcome{}, errors.Wrap(derr, "recovery fallback disconnect")
	}
	if cerr != nil {
		return RecoveryOutcome{}, errors.Wrap(cerr, "recovery fallback close")
	}
	return RecoveryOutcome{Family: FamilyNRF52, Fallback: true}, nil
}

func recoverDetected(drv Driver, opts Options) (RecoveryOutcome, error) {
	s, err := Open(drv, opts)
	if err != nil {
		return RecoveryOutcome{}, err
	}
	if err := s.probe.Recover(); err != nil {
		s.Close()
		return RecoveryOutcome{}, errors.Wrap(err, "recover")
	}
	if err := s.Close(); err != nil {
		return RecoveryOutcome{}, err
	}
	return RecoveryOutcome{Family: s.family}, nil
}
