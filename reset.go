package nrfgoprog

import (
	"fmt"

	"github.com/pkg/errors"
)

// ResetMode selects which reset primitive Reset issues. The zero value is
// ResetSystem.
type ResetMode int

const (
	// ResetSystem performs a system-level reset. This is the default.
	ResetSystem ResetMode = iota
	// ResetDebug performs a debug-level reset.
	ResetDebug
	// ResetPin performs an external pin-level reset.
	ResetPin
)

func (m ResetMode) String() string {
	switch m {
	case ResetSystem:
		return "system"
	case ResetDebug:
		return "debug"
	case ResetPin:
		return "pin"
	default:
		return fmt.Sprintf("ResetMode(%d)", int(m))
	}
}

// Reset resets the target using the selected mode and resumes execution.
// The target is always left running after a reset, never halted.
func Reset(s *Session, mode ResetMode) error {
	var err error
	switch mode {
	case ResetDebug:
		err = s.probe.DebugReset()
	case ResetPin:
		err = s.probe.PinReset()
	case ResetSystem:
		err = s.probe.SysReset()
	default:
		return errors.Errorf("unknown reset mode %v", mode)
	}
	if err != nil {
		return errors.Wrapf(err, "%v reset", mode)
	}
	if err := s.probe.Go(); err != nil {
		return errors.Wrap(err, "resume after reset")
	}
	return nil
}
