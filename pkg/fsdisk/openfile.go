// file: pkg/fsdisk/openfile.go

package fsdisk

import "io"

// OpenFile is the lightweight cursor of spec.md §3: a file header
// read into memory at open time, plus a byte offset. It implements
// io.Reader/io.Writer/io.Seeker the way the teacher's File type does
// (pkg/diskimg/fileio.go), translated from a block-oriented CP/M
// layout to sector-oriented, header-indirected addressing.
type OpenFile struct {
	disk      Disk
	hdr       *FileHeader
	hdrSector int
	pos       int64
}

// OpenFileAt loads the header at sector and returns a cursor over it.
func OpenFileAt(disk Disk, sector int) (*OpenFile, error) {
	hdr := NewFileHeader()
	if err := hdr.FetchFrom(disk, sector); err != nil {
		return nil, err
	}
	return &OpenFile{disk: disk, hdr: hdr, hdrSector: sector}, nil
}

// newOpenFileWithHeader wraps an already-allocated in-memory header
// (used by NewFileSystem's format path and by CreateDirectory) so
// callers can write initial contents without re-reading the header.
func newOpenFileWithHeader(disk Disk, sector int, hdr *FileHeader) *OpenFile {
	return &OpenFile{disk: disk, hdr: hdr, hdrSector: sector}
}

// Header exposes the in-memory header, for callers that need to
// WriteBack it themselves (FileSystem does, after Create/Remove).
func (f *OpenFile) Header() *FileHeader { return f.hdr }

// HeaderSector reports the sector holding this file's header.
func (f *OpenFile) HeaderSector() int { return f.hdrSector }

// Length returns the file's total byte length.
func (f *OpenFile) Length() int { return f.hdr.FileLength() }

// ReadAt implements io.ReaderAt, translating offsets to sectors via
// the header's (possibly indirect) ByteToSector.
func (f *OpenFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	size := int64(f.Length())
	if off >= size {
		return 0, io.EOF
	}

	toRead := len(p)
	if int64(toRead) > size-off {
		toRead = int(size - off)
	}

	read := 0
	buf := make([]byte, SectorSize)
	for read < toRead {
		pos := off + int64(read)
		sectorIdx, err := f.hdr.ByteToSector(f.disk, int(pos))
		if err != nil {
			return read, err
		}
		if err := f.disk.ReadSector(sectorIdx, buf); err != nil {
			return read, err
		}

		withinSector := int(pos) % SectorSize
		n := SectorSize - withinSector
		if n > toRead-read {
			n = toRead - read
		}
		copy(p[read:read+n], buf[withinSector:withinSector+n])
		read += n
	}

	var err error
	if read < len(p) {
		err = io.EOF
	}
	return read, err
}

// WriteAt implements io.WriterAt. Files are not extensible beyond the
// size fixed at creation (spec.md §1 Non-goals); writing past
// Length() returns ErrInvalidOffset rather than growing the file.
func (f *OpenFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	size := int64(f.Length())
	if off+int64(len(p)) > size {
		return 0, ErrInvalidOffset
	}

	written := 0
	buf := make([]byte, SectorSize)
	for written < len(p) {
		pos := off + int64(written)
		sectorIdx, err := f.hdr.ByteToSector(f.disk, int(pos))
		if err != nil {
			return written, err
		}

		withinSector := int(pos) % SectorSize
		n := SectorSize - withinSector
		if n > len(p)-written {
			n = len(p) - written
		}

		// Sub-sector writes must preserve the untouched bytes of the
		// sector, so read-modify-write when not writing a full sector.
		if withinSector != 0 || n != SectorSize {
			if err := f.disk.ReadSector(sectorIdx, buf); err != nil {
				return written, err
			}
		}
		copy(buf[withinSector:withinSector+n], p[written:written+n])
		if err := f.disk.WriteSector(sectorIdx, buf); err != nil {
			return written, err
		}

		written += n
	}
	return written, nil
}

// Read implements io.Reader using the cursor's current position.
func (f *OpenFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

// Write implements io.Writer using the cursor's current position.
func (f *OpenFile) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (f *OpenFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = int64(f.Length()) + offset
	default:
		return 0, ErrInvalidOffset
	}
	if abs < 0 {
		return 0, ErrInvalidOffset
	}
	f.pos = abs
	return abs, nil
}
