package fio

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/wizenheimer/ftidx/ftidxerr"
)

// MappedFile is a whole-file read-only mmap, optionally mlock'd, the
// form every .spi/.spd/.spa reader opens its backing file with (spec
// §5, "whole-file mmap with optional mlock").
type MappedFile struct {
	f    *os.File
	data []byte
}

// OpenMapped mmaps path read-only. If lock is true the pages are
// mlock'd so the OS can't page them back out under memory pressure,
// matching spec §5's "mlock: keep hot indexes resident".
func OpenMapped(path string, lock bool) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "open mapped file", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "stat mapped file", err)
	}
	size := st.Size()
	if size == 0 {
		return &MappedFile{f: f}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "mmap", err)
	}
	if lock {
		if err := unix.Mlock(data); err != nil {
			unix.Munmap(data)
			f.Close()
			return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "mlock", err)
		}
	}
	touchPages(data)
	return &MappedFile{f: f, data: data}, nil
}

// Bytes returns the mapped region. The caller must not retain it past
// Close.
func (m *MappedFile) Bytes() []byte { return m.data }

func (m *MappedFile) Close() error {
	var err error
	if m.data != nil {
		err = unix.Munmap(m.data)
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ftidxerr.Wrap(ftidxerr.Io, "fio", "close mapped file", err)
	}
	return nil
}

// touchPages reads one byte per 4KiB page so the mapping is faulted in
// before the index is marked ready to serve, instead of paying page
// faults scattered across the first wave of queries (spec §5,
// "page-touching bootstrap read").
func touchPages(data []byte) {
	const pageSize = 4096
	var xor byte
	for i := 0; i < len(data); i += pageSize {
		xor ^= data[i]
	}
	_ = xor
}

// ExclusiveLock takes an exclusive, non-blocking lock on path (spec §5, ".spl
// lock file"), returning a release func. A second ExclusiveLock on the
// same path while the first is held fails with ftidxerr.Io.
func ExclusiveLock(path string) (release func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "open lock file", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, ftidxerr.Wrap(ftidxerr.Io, "fio", "flock", err)
	}
	return func() error {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return f.Close()
	}, nil
}
