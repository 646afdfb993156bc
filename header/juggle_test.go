package header

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAtomicFirstWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sph")

	if err := SaveAtomic(path, []byte("v1")); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("content = %q, want v1", got)
	}
	if _, err := os.Stat(path + ".tmpnew"); !os.IsNotExist(err) {
		t.Errorf("tmpnew should have been cleaned up")
	}
	if _, err := os.Stat(path + ".tmpold"); !os.IsNotExist(err) {
		t.Errorf("tmpold should have been cleaned up")
	}
}

func TestSaveAtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sph")

	if err := SaveAtomic(path, []byte("v1")); err != nil {
		t.Fatalf("first SaveAtomic: %v", err)
	}
	if err := SaveAtomic(path, []byte("v2")); err != nil {
		t.Fatalf("second SaveAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestRecoverJugglePromotesOrphanedTmpnew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sph")

	// simulate a crash between the tmpnew write and the final rename
	if err := os.WriteFile(path+".tmpnew", []byte("recovered"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := RecoverJuggle(path); err != nil {
		t.Fatalf("RecoverJuggle: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after recovery: %v", err)
	}
	if string(got) != "recovered" {
		t.Errorf("content = %q, want recovered", got)
	}
}

func TestRecoverJuggleLeavesGoodFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sph")
	if err := os.WriteFile(path, []byte("good"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path+".tmpold", []byte("stale"), 0o644); err != nil {
		t.Fatalf("WriteFile tmpold: %v", err)
	}
	if err := RecoverJuggle(path); err != nil {
		t.Fatalf("RecoverJuggle: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "good" {
		t.Errorf("content = %q, want good", got)
	}
	if _, err := os.Stat(path + ".tmpold"); !os.IsNotExist(err) {
		t.Errorf("stale tmpold should have been removed")
	}
}
