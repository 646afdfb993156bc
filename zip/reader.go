package zip

import "errors"

// ErrEOF is returned once a Reader has consumed every byte in its
// buffer; distinguished from ErrShortBuffer (a varint truncated
// mid-stream) so callers can tell "clean end" from "corrupt file".
var ErrEOF = errors.New("zip: end of buffer")

// Reader walks a mmap'ed (or in-memory) byte slice, decoding zip
// varints and raw fields without copying. Every on-disk reader (C7
// wordlist, C8 qword, C14 checker) embeds one of these rather than
// re-implementing cursor arithmetic.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// NewReaderAt wraps buf starting at the given byte offset, used when
// seeking directly to a checkpoint or skip-list entry.
func NewReaderAt(buf []byte, offset int) *Reader { return &Reader{buf: buf, pos: offset} }

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Seek moves the cursor to an absolute offset (skip-to, checkpoint jump).
func (r *Reader) Seek(offset int) { r.pos = offset }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Uint64 decodes the next zip varint.
func (r *Reader) Uint64() (uint64, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrEOF
	}
	v, n, err := Uint64(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// Uint32 decodes the next zip varint, truncated to 32 bits.
func (r *Reader) Uint32() (uint32, error) {
	v, err := r.Uint64()
	return uint32(v), err
}

// Delta decodes a zip varint and adds it to prev, the inverse of
// Writer.Delta.
func (r *Reader) Delta(prev uint64) (uint64, error) {
	d, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return prev + d, nil
}

// RawByte reads one raw byte.
func (r *Reader) RawByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// RawBytes reads n raw bytes without copying (the slice aliases the
// underlying mmap, which is safe because the index file is read-only
// for the lifetime of the searcher).
func (r *Reader) RawBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrEOF
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}
