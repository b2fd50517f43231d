// file: pkg/fsdisk/fileheader.go

package fsdisk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NumDirect is the number of sector pointers a FileHeader carries,
// chosen (spec.md §3) so the whole record is exactly one sector:
// two int32 fields (numBytes, numSectors) plus NumDirect int32
// pointers must sum to SectorSize.
const NumDirect = (SectorSize - 8) / 4

// Level2/3/4 are the byte-count thresholds of spec.md §3 at which a
// header must go indirect one level deeper. They are named after the
// #define Level2/Level3/Level4 in original_source's filehdr.cc.
const (
	Level2 = NumDirect * SectorSize
	Level3 = NumDirect * NumDirect * SectorSize
	Level4 = NumDirect * NumDirect * NumDirect * SectorSize
)

// FileHeader is the on-disk i-node analog of spec.md §3: a fixed-size
// record mapping byte offsets to sectors, direct up to Level2 bytes
// and indirect beyond that.
type FileHeader struct {
	NumBytesField   int32
	NumSectorsField int32
	DataSectors     [NumDirect]int32
}

// NewFileHeader returns a header in the "uninitialized" state named
// by spec.md §3 (numBytes == -1), matching the original's constructor
// comment that this exists only to keep analysis tools happy before
// Allocate or FetchFrom populates the record.
func NewFileHeader() *FileHeader {
	h := &FileHeader{NumBytesField: -1, NumSectorsField: -1}
	for i := range h.DataSectors {
		h.DataSectors[i] = -1
	}
	return h
}

func divRoundUp(n, d int) int { return (n + d - 1) / d }

// FileLength returns the file's size in bytes.
func (h *FileHeader) FileLength() int { return int(h.NumBytesField) }

// NumSectors returns the number of data sectors used directly or
// indirectly by this header (not counting sub-header sectors
// themselves at higher levels).
func (h *FileHeader) NumSectors() int { return int(h.NumSectorsField) }

// Allocate initializes a fresh header for a newly created file,
// claiming data sectors (and, for files over Level2 bytes, chains of
// sub-header sectors) out of freeMap. It implements spec.md §4.2.
func (h *FileHeader) Allocate(freeMap *Bitmap, disk Disk, fileSize int) error {
	h.NumBytesField = int32(fileSize)
	h.NumSectorsField = int32(divRoundUp(fileSize, SectorSize))

	if freeMap.NumClear() < int(h.NumSectorsField) {
		return ErrDiskFull
	}

	if fileSize <= Level2 {
		for i := 0; i < int(h.NumSectorsField); i++ {
			s := freeMap.FindAndSet()
			if s < 0 {
				return ErrDiskFull
			}
			h.DataSectors[i] = int32(s)
		}
		return nil
	}

	var bound int
	switch {
	case fileSize > Level4:
		bound = Level4
	case fileSize > Level3:
		bound = Level3
	default:
		bound = Level2
	}

	remaining := fileSize
	i := 0
	for remaining > 0 {
		s := freeMap.FindAndSet()
		if s < 0 {
			return ErrDiskFull
		}
		h.DataSectors[i] = int32(s)

		sub := NewFileHeader()
		chunk := remaining
		if chunk > bound {
			chunk = bound
		}
		if err := sub.Allocate(freeMap, disk, chunk); err != nil {
			return err
		}
		if err := sub.WriteBack(disk, s); err != nil {
			return err
		}

		// Decrementing by bound even on the final, smaller chunk is
		// the canonical NachOS algorithm (original_source filehdr.cc
		// FileHeader::Allocate); preserved here so ByteToSector's
		// chunk-index arithmetic stays symmetric with this loop.
		remaining -= bound
		i++
	}
	return nil
}

// Deallocate frees every data and sub-header sector this header
// claimed, mirroring the level/bound selection and loop shape of
// Allocate for symmetry, per spec.md §4.2.
func (h *FileHeader) Deallocate(freeMap *Bitmap, disk Disk) error {
	fileSize := int(h.NumBytesField)
	if fileSize <= Level2 {
		for i := 0; i < int(h.NumSectorsField); i++ {
			freeMap.Clear(int(h.DataSectors[i]))
		}
		return nil
	}

	var bound int
	switch {
	case fileSize > Level4:
		bound = Level4
	case fileSize > Level3:
		bound = Level3
	default:
		bound = Level2
	}

	remaining := fileSize
	i := 0
	for remaining > 0 {
		sub := NewFileHeader()
		if err := sub.FetchFrom(disk, int(h.DataSectors[i])); err != nil {
			return err
		}
		if err := sub.Deallocate(freeMap, disk); err != nil {
			return err
		}
		freeMap.Clear(int(h.DataSectors[i]))

		remaining -= bound
		i++
	}
	return nil
}

// ByteToSector translates a byte offset within the file into the
// disk sector holding it, recursing through sub-headers as needed.
func (h *FileHeader) ByteToSector(disk Disk, offset int) (int, error) {
	fileSize := int(h.NumBytesField)
	if fileSize <= Level2 {
		idx := offset / SectorSize
		if idx < 0 || idx >= NumDirect {
			return 0, fmt.Errorf("fsdisk: offset %d out of range for header", offset)
		}
		return int(h.DataSectors[idx]), nil
	}

	var nBytes int
	switch {
	case fileSize > Level4:
		nBytes = Level4
	case fileSize > Level3:
		nBytes = Level3
	default:
		nBytes = Level2
	}

	which := offset / nBytes
	rest := offset % nBytes
	if which < 0 || which >= NumDirect {
		return 0, fmt.Errorf("fsdisk: offset %d out of range for header", offset)
	}

	sub := NewFileHeader()
	if err := sub.FetchFrom(disk, int(h.DataSectors[which])); err != nil {
		return 0, err
	}
	return sub.ByteToSector(disk, rest)
}

// FetchFrom reads the header's fixed-size record from sector.
func (h *FileHeader) FetchFrom(disk Disk, sector int) error {
	buf := make([]byte, SectorSize)
	if err := disk.ReadSector(sector, buf); err != nil {
		return err
	}
	return h.decode(buf)
}

// WriteBack writes the header's fixed-size record to sector.
func (h *FileHeader) WriteBack(disk Disk, sector int) error {
	buf, err := h.encode()
	if err != nil {
		return err
	}
	return disk.WriteSector(sector, buf)
}

func (h *FileHeader) encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, h.NumBytesField); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.NumSectorsField); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.DataSectors); err != nil {
		return nil, err
	}
	out := make([]byte, SectorSize)
	copy(out, buf.Bytes())
	return out, nil
}

func (h *FileHeader) decode(data []byte) error {
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &h.NumBytesField); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.NumSectorsField); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &h.DataSectors)
}
