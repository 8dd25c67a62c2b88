// Package pack reads and writes content packs: a single file holding
// imported resources under their content keys, zlib compressed, with a
// compressed file table at the end.
package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	packMagic   = "AIPK"
	packVersion = 0x100
	headerSize  = 16

	flagFile       = 0x01
	flagCompressed = 0x02
)

// Pack errors.
var (
	ErrInvalidMagic       = errors.New("invalid pack magic")
	ErrUnsupportedVersion = errors.New("unsupported pack version")
	ErrCorruptTable       = errors.New("corrupt pack file table")
	ErrNotFound           = errors.New("file not found in pack")
	ErrDuplicateKey       = errors.New("duplicate pack key")
)

// Header is the fixed pack header.
type Header struct {
	Magic       [4]byte
	Version     uint32
	TableOffset uint32
	FileCount   uint32
}

// Entry describes one stored file.
type Entry struct {
	Name             string
	CompressedSize   uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Compressed reports whether the entry data is zlib compressed.
func (e *Entry) Compressed() bool {
	return e.Flags&flagCompressed != 0
}

// Archive is an opened pack.
type Archive struct {
	file     *os.File
	header   Header
	fileList map[string]*Entry
}

// Open opens a pack for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	archive := &Archive{
		file:     file,
		fileList: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readFileTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}

	return archive, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// Header returns the pack header.
func (a *Archive) Header() Header {
	return a.header
}

func (a *Archive) readHeader() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Read(a.file, binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMagic, err)
	}

	if string(a.header.Magic[:]) != packMagic {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, a.header.Magic[:])
	}

	if a.header.Version != packVersion {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}

	return nil
}

func (a *Archive) readFileTable() error {
	if _, err := a.file.Seek(int64(a.header.TableOffset), io.SeekStart); err != nil {
		return err
	}

	var compressedSize, uncompressedSize uint32
	if err := binary.Read(a.file, binary.LittleEndian, &compressedSize); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	if err := binary.Read(a.file, binary.LittleEndian, &uncompressedSize); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	compressedData := make([]byte, compressedSize)
	if _, err := io.ReadFull(a.file, compressedData); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	reader, err := zlib.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	defer reader.Close()

	tableData := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(reader, tableData); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	offset := 0
	for i := uint32(0); i < a.header.FileCount; i++ {
		nameEnd := bytes.IndexByte(tableData[offset:], 0)
		if nameEnd < 0 {
			return fmt.Errorf("%w: entry %d has no name terminator", ErrCorruptTable, i)
		}
		name := string(tableData[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+13 > len(tableData) {
			return fmt.Errorf("%w: entry %d truncated", ErrCorruptTable, i)
		}

		entry := &Entry{
			Name:             normalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(tableData[offset:]),
			UncompressedSize: binary.LittleEndian.Uint32(tableData[offset+4:]),
			Flags:            tableData[offset+8],
			Offset:           binary.LittleEndian.Uint32(tableData[offset+9:]),
		}
		offset += 13

		if entry.Flags&flagFile != 0 {
			a.fileList[entry.Name] = entry
		}
	}

	return nil
}

// List returns all keys in the pack, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a key exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[normalizePath(path)]
	return ok
}

// Entry returns the table entry of a key.
func (a *Archive) Entry(path string) (*Entry, bool) {
	e, ok := a.fileList[normalizePath(path)]
	return e, ok
}

// Read reads a file from the pack.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.fileList[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	compressedData := make([]byte, entry.CompressedSize)
	if _, err := a.file.ReadAt(compressedData, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !entry.Compressed() {
		return compressedData, nil
	}

	reader, err := zlib.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer reader.Close()

	result := make([]byte, entry.UncompressedSize)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return result, nil
}

// normalizePath unifies separators. Keys are case-sensitive since content
// hashes are base64.
func normalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
