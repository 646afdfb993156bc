// Package header implements the typed on-disk header stream of spec
// §5 (component C12): the .sph file that names an index's format
// version, attribute schema, and the totals/checkpoints the other
// file-set members are interpreted against.
package header

import (
	"bytes"
	"encoding/binary"

	"github.com/wizenheimer/ftidx/ftidxerr"
	"github.com/wizenheimer/ftidx/schema"
	"github.com/wizenheimer/ftidx/zip"
)

// Magic identifies a .sph file before any version-specific parsing is
// attempted (spec §5, "typed header stream").
const Magic uint32 = 0x58444946 // "FIDX" little-endian

// FormatVersion is bumped whenever the on-disk layout of any file in
// the set changes in a way that breaks binary compatibility.
const FormatVersion uint32 = 1

// DocinfoKind selects where row attribute data lives relative to the
// posting list (spec §4, "inline vs extern docinfo").
type DocinfoKind uint8

const (
	DocinfoNone DocinfoKind = iota
	DocinfoInline
	DocinfoExtern
)

// Header is the decoded contents of a .sph file.
type Header struct {
	FormatVersion   uint32
	Use64BitDocID   bool
	DocinfoKind     DocinfoKind
	Schema          schema.Schema
	CheckpointsOff  uint64
	CheckpointCount uint32
	InfixLen        uint32 // 0 disables infix acceleration
	TotalDocs       uint64
	TotalBytes      uint64
	// FoldFingerprint records the fold.Table.Fingerprint of the table
	// the index was built with (spec §4.1, "fingerprint"). This package
	// only stores and reads it back; it does not compare it against any
	// table.
	FoldFingerprint uint64
}

// Encode serializes h into the typed stream the source's own
// indexEncoder used for the in-memory BM25 index header, generalized
// to this file format's field set. It always writes this package's
// FormatVersion; h.FormatVersion is only filled in by Decode.
func Encode(h *Header) []byte {
	var buf bytes.Buffer
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], FormatVersion)
	buf.Write(hdr[:])

	w := zip.NewWriter()
	if h.Use64BitDocID {
		w.RawByte(1)
	} else {
		w.RawByte(0)
	}
	w.RawByte(byte(h.DocinfoKind))
	w.RawByte(boolByte(h.Schema.WideDocID))
	w.Uint32(uint32(len(h.Schema.Attrs)))
	for _, a := range h.Schema.Attrs {
		w.RawBytes(lengthPrefixed(a.Name))
		w.RawByte(byte(a.Type))
		w.RawByte(boolByte(a.Updatable))
		w.RawByte(boolByte(a.Locator.Dynamic))
		w.Uint32(a.Locator.RowOffset)
		w.RawByte(a.Locator.BitOffset)
		w.RawByte(a.Locator.BitCount)
	}
	w.Uint64(h.CheckpointsOff)
	w.Uint32(h.CheckpointCount)
	w.Uint32(h.InfixLen)
	w.Uint64(h.TotalDocs)
	w.Uint64(h.TotalBytes)
	w.Uint64(h.FoldFingerprint)
	buf.Write(w.Bytes())
	return buf.Bytes()
}

// Decode parses a .sph byte stream, rejecting anything whose magic or
// format version doesn't match what this package writes.
func Decode(data []byte) (*Header, error) {
	if len(data) < 8 {
		return nil, ftidxerr.New(ftidxerr.Corrupt, "header", "truncated header")
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != Magic {
		return nil, ftidxerr.New(ftidxerr.Corrupt, "header", "bad magic")
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, ftidxerr.New(ftidxerr.VersionUnsupported, "header", "unsupported format version")
	}

	r := zip.NewReader(data[8:])
	h := &Header{FormatVersion: version}

	use64, err := r.RawByte()
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read use_64bit flag", err)
	}
	h.Use64BitDocID = use64 != 0

	kind, err := r.RawByte()
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read docinfo kind", err)
	}
	h.DocinfoKind = DocinfoKind(kind)

	wideDocID, err := r.RawByte()
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read wide docid flag", err)
	}
	h.Schema.WideDocID = wideDocID != 0

	nAttrs, err := r.Uint32()
	if err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr count", err)
	}
	h.Schema.Attrs = make([]schema.Attr, 0, nAttrs)
	for i := uint32(0); i < nAttrs; i++ {
		name, err := readLengthPrefixed(r)
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr name", err)
		}
		typByte, err := r.RawByte()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr type", err)
		}
		updatable, err := r.RawByte()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr updatable flag", err)
		}
		dynamic, err := r.RawByte()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr dynamic flag", err)
		}
		rowOffset, err := r.Uint32()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr row offset", err)
		}
		bitOffset, err := r.RawByte()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr bit offset", err)
		}
		bitCount, err := r.RawByte()
		if err != nil {
			return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read attr bit count", err)
		}
		h.Schema.Attrs = append(h.Schema.Attrs, schema.Attr{
			Name:      name,
			Type:      schema.AttrType(typByte),
			Updatable: updatable != 0,
			Locator: schema.BitLocator{
				RowOffset: rowOffset,
				BitOffset: bitOffset,
				BitCount:  bitCount,
				Dynamic:   dynamic != 0,
			},
		})
	}

	if h.CheckpointsOff, err = r.Uint64(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read checkpoints offset", err)
	}
	if h.CheckpointCount, err = r.Uint32(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read checkpoint count", err)
	}
	if h.InfixLen, err = r.Uint32(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read infix len", err)
	}
	if h.TotalDocs, err = r.Uint64(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read total docs", err)
	}
	if h.TotalBytes, err = r.Uint64(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read total bytes", err)
	}
	if h.FoldFingerprint, err = r.Uint64(); err != nil {
		return nil, ftidxerr.Wrap(ftidxerr.Corrupt, "header", "read fold fingerprint", err)
	}
	return h, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func lengthPrefixed(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	out = append(out, lenBuf[:]...)
	out = append(out, s...)
	return out
}

func readLengthPrefixed(r *zip.Reader) (string, error) {
	lo, err := r.RawByte()
	if err != nil {
		return "", err
	}
	hi, err := r.RawByte()
	if err != nil {
		return "", err
	}
	n := int(lo) | int(hi)<<8
	b, err := r.RawBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
