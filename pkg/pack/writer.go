package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Writer builds a pack file. Files are appended as they are added; the
// file table and header are written by Close.
type Writer struct {
	file    *os.File
	offset  uint32
	entries []*Entry
	names   map[string]struct{}
}

// Create creates (or truncates) a pack file for writing.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	// placeholder header, rewritten by Close
	if _, err := file.Write(make([]byte, headerSize)); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}

	return &Writer{
		file:   file,
		offset: headerSize,
		names:  make(map[string]struct{}),
	}, nil
}

// Add stores data under key. Data is kept uncompressed when compression
// does not make it smaller.
func (w *Writer) Add(key string, data []byte) error {
	name := normalizePath(key)
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, name)
	}

	compressed, err := compress(data)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}

	entry := &Entry{
		Name:             name,
		UncompressedSize: uint32(len(data)),
		Flags:            flagFile,
		Offset:           w.offset,
	}
	payload := data
	if len(compressed) < len(data) {
		payload = compressed
		entry.Flags |= flagCompressed
	}
	entry.CompressedSize = uint32(len(payload))

	if _, err := w.file.Write(payload); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	w.offset += entry.CompressedSize
	w.entries = append(w.entries, entry)
	w.names[name] = struct{}{}
	return nil
}

// Len returns the number of files added so far.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Close writes the file table and header and closes the file.
func (w *Writer) Close() error {
	err := w.finish()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (w *Writer) finish() error {
	var table bytes.Buffer
	for _, e := range w.entries {
		table.WriteString(e.Name)
		table.WriteByte(0)
		var rec [13]byte
		binary.LittleEndian.PutUint32(rec[0:], e.CompressedSize)
		binary.LittleEndian.PutUint32(rec[4:], e.UncompressedSize)
		rec[8] = e.Flags
		binary.LittleEndian.PutUint32(rec[9:], e.Offset)
		table.Write(rec[:])
	}

	compressed, err := compress(table.Bytes())
	if err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, [2]uint32{uint32(len(compressed)), uint32(table.Len())}); err != nil {
		return fmt.Errorf("writing file table: %w", err)
	}
	if _, err := w.file.Write(compressed); err != nil {
		return fmt.Errorf("writing file table: %w", err)
	}

	header := Header{
		Version:     packVersion,
		TableOffset: w.offset,
		FileCount:   uint32(len(w.entries)),
	}
	copy(header.Magic[:], packMagic)
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
