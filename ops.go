package nrfgoprog

// Unsupported operations from the command surface. They are kept as real
// entry points so callers hit a loud failure instead of a silent no-op.

// PinResetEnable would configure the reset pin on nRF52 devices.
func PinResetEnable(s *Session) error {
	return &UnimplementedError{Op: "pinresetenable"}
}

// SectorsErase would erase only the sectors covered by the image before
// programming.
func SectorsErase(s *Session, segments []Segment) error {
	return &UnimplementedError{Op: "sectorserase"}
}

// SectorsAndUICRErase would erase the sectors covered by the image plus the
// UICR before programming.
func SectorsAndUICRErase(s *Session, segments []Segment) error {
	return &UnimplementedError{Op: "sectorsanduicrerase"}
}

// ReadToFile would read a memory range and store it in a file.
func ReadToFile(s *Session, path string, addr uint32, length int) error {
	return &UnimplementedError{Op: "readtofile"}
}
