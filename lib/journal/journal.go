// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tabmirror/tabmirror/lib/codec"
	"github.com/tabmirror/tabmirror/lib/modelhash"
)

// fileMagic opens every journal file. The trailing digit versions the
// format; a future incompatible layout bumps it.
var fileMagic = []byte("TABMJRN1")

// frameHeaderLength is the fixed frame header size: 1 byte
// compression tag, 4 bytes big-endian uncompressed length, 4 bytes
// big-endian payload length.
const frameHeaderLength = 9

// maxFrameLength caps both the stored and the uncompressed size of a
// single frame (16 MB). A snapshot is at most a few kilobytes per tab
// group, so any length beyond this indicates file corruption rather
// than a legitimately large record.
const maxFrameLength = 16 * 1024 * 1024

// Record is one journaled snapshot. Model holds the deterministic
// CBOR encoding of the group sequence exactly as it was digested;
// decoding it is deferred so that verification and copying never
// re-encode.
type Record struct {
	// Revision numbers the snapshot within its journal, starting
	// at 1.
	Revision uint64 `cbor:"revision"`

	// UnixNano is the capture time in nanoseconds since the Unix
	// epoch. Stored as an integer so the encoding stays
	// deterministic and timezone-free.
	UnixNano int64 `cbor:"unix_nano"`

	// Digest is the 32-byte snapshot digest of Model.
	Digest []byte `cbor:"digest"`

	// Model is the encoded group sequence.
	Model codec.RawMessage `cbor:"model"`
}

// Time returns the capture time in UTC.
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNano).UTC()
}

// Hash returns the recorded digest as a [modelhash.Hash]. It fails
// when the stored digest has the wrong length.
func (r Record) Hash() (modelhash.Hash, error) {
	var hash modelhash.Hash
	if len(r.Digest) != len(hash) {
		return hash, fmt.Errorf("record digest is %d bytes, want %d", len(r.Digest), len(hash))
	}
	copy(hash[:], r.Digest)
	return hash, nil
}

// Verify recomputes the snapshot digest from the stored model bytes
// and reports whether it matches the recorded digest.
func (r Record) Verify() bool {
	if len(r.Digest) != len(modelhash.Hash{}) {
		return false
	}
	digest := modelhash.HashSnapshot(r.Model)
	return bytes.Equal(digest[:], r.Digest)
}

// Writer appends records to a journal stream. It is not safe for
// concurrent use; the engine publishes snapshots from a single
// goroutine and [Recorder] serializes on top of that.
type Writer struct {
	writer      io.Writer
	compression CompressionTag

	// file and buffered are set when the writer owns its
	// destination (opened via Create); Close flushes and closes
	// them.
	file     *os.File
	buffered *bufio.Writer
}

// NewWriter starts a journal on w by writing the file magic. The
// compression tag selects the preferred per-frame encoding;
// incompressible frames are stored raw regardless.
func NewWriter(w io.Writer, compression CompressionTag) (*Writer, error) {
	switch compression {
	case CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", compression)
	}
	if _, err := w.Write(fileMagic); err != nil {
		return nil, fmt.Errorf("write journal magic: %w", err)
	}
	return &Writer{writer: w, compression: compression}, nil
}

// Create creates (or truncates) a journal file at path. The returned
// writer owns the file; Close flushes and closes it.
func Create(path string, compression CompressionTag) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	buffered := bufio.NewWriter(file)
	writer, err := NewWriter(buffered, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.file = file
	writer.buffered = buffered
	return writer, nil
}

// Append encodes the record and writes it as one frame.
func (w *Writer) Append(record Record) error {
	payload, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	if len(payload) > maxFrameLength {
		return fmt.Errorf("journal record is %d bytes, exceeds maximum %d", len(payload), maxFrameLength)
	}

	stored, tag, err := compressPayload(payload, w.compression)
	if err != nil {
		return fmt.Errorf("compress journal record: %w", err)
	}

	header := make([]byte, frameHeaderLength)
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(payload)))
	binary.BigEndian.PutUint32(header[5:9], uint32(len(stored)))

	if _, err := w.writer.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.writer.Write(stored); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file when the writer owns
// one, and is a no-op otherwise. Closing twice is safe.
func (w *Writer) Close() error {
	if w.buffered != nil {
		buffered := w.buffered
		w.buffered = nil
		if err := buffered.Flush(); err != nil {
			w.file.Close()
			w.file = nil
			return fmt.Errorf("flush journal: %w", err)
		}
	}
	if w.file != nil {
		file := w.file
		w.file = nil
		if err := file.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
	}
	return nil
}

// Reader iterates over the records of a journal stream.
type Reader struct {
	reader io.Reader

	// file is set when the reader owns its source (opened via
	// Open); Close closes it.
	file *os.File
}

// NewReader starts reading a journal from r, verifying the file
// magic.
func NewReader(r io.Reader) (*Reader, error) {
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read journal magic: %w", err)
	}
	if !bytes.Equal(magic, fileMagic) {
		return nil, fmt.Errorf("not a journal file: bad magic %q", magic)
	}
	return &Reader{reader: r}, nil
}

// Open opens the journal file at path. The returned reader owns the
// file; Close closes it.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	reader, err := NewReader(bufio.NewReader(file))
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.file = file
	return reader, nil
}

// Next reads the next record. It returns io.EOF at a clean end of
// stream; a frame cut off mid-way is reported as an error instead.
func (r *Reader) Next() (Record, error) {
	var record Record

	header := make([]byte, frameHeaderLength)
	if _, err := io.ReadFull(r.reader, header); err != nil {
		if err == io.EOF {
			return record, io.EOF
		}
		return record, fmt.Errorf("read frame header: %w", err)
	}

	tag := CompressionTag(header[0])
	uncompressedLength := binary.BigEndian.Uint32(header[1:5])
	payloadLength := binary.BigEndian.Uint32(header[5:9])
	if uncompressedLength > maxFrameLength {
		return record, fmt.Errorf("frame size %d exceeds maximum %d", uncompressedLength, maxFrameLength)
	}
	if payloadLength > maxFrameLength {
		return record, fmt.Errorf("frame payload %d exceeds maximum %d", payloadLength, maxFrameLength)
	}

	stored := make([]byte, payloadLength)
	if _, err := io.ReadFull(r.reader, stored); err != nil {
		return record, fmt.Errorf("read frame payload: %w", err)
	}

	payload, err := decompressPayload(stored, tag, int(uncompressedLength))
	if err != nil {
		return record, err
	}
	if err := codec.Unmarshal(payload, &record); err != nil {
		return record, fmt.Errorf("decode journal record: %w", err)
	}
	return record, nil
}

// Close closes the underlying file when the reader owns one, and is
// a no-op otherwise. Closing twice is safe.
func (r *Reader) Close() error {
	if r.file != nil {
		file := r.file
		r.file = nil
		if err := file.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
	}
	return nil
}
