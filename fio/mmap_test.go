package fio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMappedReadsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	want := []byte("hello, mapped world")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := OpenMapped(path, false)
	if err != nil {
		t.Fatalf("OpenMapped: %v", err)
	}
	defer m.Close()

	if string(m.Bytes()) != string(want) {
		t.Errorf("Bytes() = %q, want %q", m.Bytes(), want)
	}
}

func TestOpenMappedEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := OpenMapped(path, false)
	if err != nil {
		t.Fatalf("OpenMapped: %v", err)
	}
	defer m.Close()

	if len(m.Bytes()) != 0 {
		t.Errorf("expected empty mapping, got %d bytes", len(m.Bytes()))
	}
}

func TestExclusiveLockRejectsSecondHolder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.spl")

	release, err := ExclusiveLock(path)
	if err != nil {
		t.Fatalf("first ExclusiveLock: %v", err)
	}
	defer release()

	if _, err := ExclusiveLock(path); err == nil {
		t.Errorf("second ExclusiveLock on the same file should have failed")
	}
}
