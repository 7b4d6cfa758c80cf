// Package xgarchive reads the zlib-compressed container format that wraps
// a binary game file: a trailing fixed-size archive record points back at
// a CRC-checked, optionally-compressed file index, which in turn locates
// each member file's compressed bytes.
package xgarchive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const archiveRecordSize = 36

// Record is the fixed trailer written at the end of an archive.
type Record struct {
	CRC                uint32
	FileCount          int32
	Version            int32
	RegistrySize       int32
	ArchiveSize        int32
	CompressedRegistry int32
	Reserved           [12]byte
}

// Entry describes one member file's location within the archive.
type Entry struct {
	Name             string
	Path             string
	UncompressedSize int32
	CompressedSize   int32
	Start            int32
	CRC              uint32
	Compressed       bool
	CompressionLevel byte
}

// Archive is an opened container ready to extract member files.
type Archive struct {
	Record      Record
	Entries     []Entry
	dataStart   int64
	stream      io.ReadSeeker
}

// Open reads and validates an archive's trailer and file index.
func Open(stream io.ReadSeeker) (*Archive, error) {
	a := &Archive{stream: stream}
	if err := a.readIndex(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) readIndex() error {
	if _, err := a.stream.Seek(-archiveRecordSize, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to archive trailer: %w", err)
	}
	trailerStart, _ := a.stream.Seek(0, io.SeekCurrent)

	if err := binary.Read(a.stream, binary.LittleEndian, &a.Record); err != nil {
		return fmt.Errorf("read archive trailer: %w", err)
	}

	indexStart, err := a.stream.Seek(-archiveRecordSize-int64(a.Record.RegistrySize), io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek to file index: %w", err)
	}
	a.dataStart = indexStart - int64(a.Record.ArchiveSize)

	crc, err := streamCRC32(a.stream, trailerStart-a.dataStart, a.dataStart)
	if err != nil {
		return fmt.Errorf("compute archive CRC: %w", err)
	}
	if crc != a.Record.CRC {
		return fmt.Errorf("archive CRC mismatch: file is corrupt")
	}

	if _, err := a.stream.Seek(indexStart, io.SeekStart); err != nil {
		return err
	}
	indexData, err := readSegment(a.stream, a.Record.CompressedRegistry != 0, 0)
	if err != nil {
		return fmt.Errorf("extract file index: %w", err)
	}

	return a.readEntries(bytes.NewReader(indexData))
}

func (a *Archive) readEntries(r io.Reader) error {
	a.Entries = make([]Entry, a.Record.FileCount)
	for i := range a.Entries {
		var nameBuf, pathBuf [256]byte
		if err := binary.Read(r, binary.LittleEndian, &nameBuf); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &pathBuf); err != nil {
			return err
		}
		e := &a.Entries[i]
		e.Name = shortStringToString(nameBuf[:])
		e.Path = shortStringToString(pathBuf[:])

		if err := binary.Read(r, binary.LittleEndian, &e.UncompressedSize); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &e.CompressedSize); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &e.Start); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &e.CRC); err != nil {
			return err
		}
		var compressedFlag byte
		if err := binary.Read(r, binary.LittleEndian, &compressedFlag); err != nil {
			return err
		}
		e.Compressed = compressedFlag != 0
		if err := binary.Read(r, binary.LittleEndian, &e.CompressionLevel); err != nil {
			return err
		}
		var padding [2]byte
		_ = binary.Read(r, binary.LittleEndian, &padding)
	}
	return nil
}

// Extract returns the CRC-verified bytes of a member file.
func (a *Archive) Extract(e Entry) ([]byte, error) {
	if _, err := a.stream.Seek(a.dataStart+int64(e.Start), io.SeekStart); err != nil {
		return nil, err
	}
	data, err := readSegment(a.stream, e.Compressed, e.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("extract member %q: %w", e.Name, err)
	}
	if crc32.ChecksumIEEE(data) != e.CRC {
		return nil, fmt.Errorf("member %q CRC mismatch: file is corrupt", e.Name)
	}
	return data, nil
}

func readSegment(r io.Reader, compressed bool, rawLen int32) ([]byte, error) {
	if compressed {
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, zr); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if rawLen == 0 {
		return nil, fmt.Errorf("uncompressed segment requires a known length")
	}
	data := make([]byte, rawLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func streamCRC32(r io.ReadSeeker, numBytes int64, startPos int64) (uint32, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if startPos >= 0 {
		if _, err := r.Seek(startPos, io.SeekStart); err != nil {
			return 0, err
		}
	}
	h := crc32.NewIEEE()
	if numBytes > 0 {
		_, err = io.CopyN(h, r, numBytes)
	} else {
		_, err = io.Copy(h, r)
	}
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

// shortStringToString decodes a Pascal-style short string: the first byte
// is the length, followed by up to 255 bytes of content.
func shortStringToString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	length := int(data[0])
	if length >= len(data) {
		length = len(data) - 1
	}
	return string(data[1 : length+1])
}
