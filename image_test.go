package nrfgoprog

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeTempHex(t *testing.T, contents string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "nrfgoprog")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "firmware.hex")
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadImage(t *testing.T) {
	path := writeTempHex(t, ":0400000001020304F2\n:00000001FF\n")

	segments, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(segments))
	}
	if segments[0].Address != 0 {
		t.Errorf("expected address 0, got 0x%X", segments[0].Address)
	}
	if !bytes.Equal(segments[0].Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("unexpected segment data % X", segments[0].Data)
	}
}

func TestLoadImageMalformed(t *testing.T) {
	path := writeTempHex(t, ":0400000001020304FF\n:00000001FF\n") // bad checksum

	_, err := LoadImage(path)
	var merr *MalformedImageError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedImageError, got %v", err)
	}
	if merr.Path != path {
		t.Errorf("expected path %q in the error, got %q", path, merr.Path)
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := LoadImage("does-not-exist.hex")
	if err == nil {
		t.Fatal("expected an error")
	}
	var merr *MalformedImageError
	if errors.As(err, &merr) {
		t.Error("a missing file is not a malformed image")
	}
}
