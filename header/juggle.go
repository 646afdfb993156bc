package header

import (
	"os"

	"github.com/wizenheimer/ftidx/ftidxerr"
)

// SaveAtomic writes data to path via the three-name juggle protocol
// (spec §5, "atomic rename"): write to path+".tmpnew", fsync, rename
// any existing path to path+".tmpold", rename the new file into place,
// then remove the old one. A crash before the first rename leaves the
// old file at path; a crash between the two renames leaves no file at
// path but a complete ".tmpnew". Path never holds a half-written file,
// and RecoverJuggle finishes the job on next startup if a crash left a
// ".tmpold" or ".tmpnew" behind.
func SaveAtomic(path string, data []byte) error {
	tmpNew := path + ".tmpnew"
	if err := os.WriteFile(tmpNew, data, 0o644); err != nil {
		return ftidxerr.Wrap(ftidxerr.Io, "header", "write tmpnew", err)
	}
	f, err := os.OpenFile(tmpNew, os.O_RDWR, 0o644)
	if err != nil {
		return ftidxerr.Wrap(ftidxerr.Io, "header", "reopen tmpnew for fsync", err)
	}
	syncErr := f.Sync()
	f.Close()
	if syncErr != nil {
		return ftidxerr.Wrap(ftidxerr.Io, "header", "fsync tmpnew", syncErr)
	}

	tmpOld := path + ".tmpold"
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, tmpOld); err != nil {
			return ftidxerr.Wrap(ftidxerr.Io, "header", "rename current to tmpold", err)
		}
	}
	if err := os.Rename(tmpNew, path); err != nil {
		return ftidxerr.Wrap(ftidxerr.Io, "header", "rename tmpnew into place", err)
	}
	os.Remove(tmpOld) // best effort; a leftover tmpold is cleaned up by RecoverJuggle
	return nil
}

// RecoverJuggle finishes an interrupted SaveAtomic found at startup: if
// path is missing but a tmpnew exists, the crash happened before the
// final rename, so tmpnew is promoted. A leftover tmpold is always
// just stale and removed.
func RecoverJuggle(path string) error {
	tmpNew := path + ".tmpnew"
	tmpOld := path + ".tmpold"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := os.Stat(tmpNew); err == nil {
			if err := os.Rename(tmpNew, path); err != nil {
				return ftidxerr.Wrap(ftidxerr.Io, "header", "recover: promote tmpnew", err)
			}
		}
	}
	os.Remove(tmpOld)
	os.Remove(tmpNew)
	return nil
}
