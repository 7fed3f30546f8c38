package nrfgoprog

import (
	"os"

	"github.com/marcinbor85/gohex"
)

// LoadImage parses the Intel hex file at path into an ordered sequence of
// segments. Parse failures are reported as a MalformedImageError; a missing
// or unreadable file is an ordinary file error.
func LoadImage(path string) ([]Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(file); err != nil {
		return nil, &MalformedImageError{Path: path, Err: err}
	}

	var segments []Segment
	for _, seg := range mem.GetDataSegments() {
		segments = append(segments, Segment{Address: seg.Address, Data: seg.Data})
		pkgLog.Debugf("loaded segment at 0x%08X length %d", seg.Address, len(seg.Data))
	}
	return segments, nil
}
