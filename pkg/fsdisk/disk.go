// file: pkg/fsdisk/disk.go

package fsdisk

import (
	"fmt"
	"os"
)

// SectorSize is the size in bytes of a single disk sector. It is
// chosen, per spec.md §3, so that a FileHeader record fits in
// exactly one sector.
const SectorSize = 128

// Disk is the simulated synchronous sector disk consumed by the file
// system (spec.md §6, "Simulated disk API"). Reads and writes are
// blocking and operate on whole sectors only — no partial operations.
type Disk interface {
	ReadSector(n int, buf []byte) error
	WriteSector(n int, buf []byte) error
	NumSectors() int
}

// MemDisk is an in-memory Disk, primarily for tests: it needs no
// backing file and its contents vanish with the process.
type MemDisk struct {
	sectors [][]byte
}

// NewMemDisk allocates a zeroed in-memory disk of numSectors sectors.
func NewMemDisk(numSectors int) *MemDisk {
	d := &MemDisk{sectors: make([][]byte, numSectors)}
	for i := range d.sectors {
		d.sectors[i] = make([]byte, SectorSize)
	}
	return d
}

func (d *MemDisk) NumSectors() int { return len(d.sectors) }

func (d *MemDisk) ReadSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	copy(buf, d.sectors[n])
	return nil
}

func (d *MemDisk) WriteSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	copy(d.sectors[n], buf)
	return nil
}

func (d *MemDisk) checkSector(n int, buf []byte) error {
	if n < 0 || n >= len(d.sectors) {
		return fmt.Errorf("fsdisk: sector %d out of range [0,%d)", n, len(d.sectors))
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("fsdisk: buffer length %d != sector size %d", len(buf), SectorSize)
	}
	return nil
}

// FileDisk is a Disk backed by a regular host file, standing in for
// the synchronous disk collaborator of spec.md §6. Every sector lives
// at a fixed offset within the file, so the file is at least
// numSectors*SectorSize bytes long.
type FileDisk struct {
	f          *os.File
	numSectors int
}

// OpenFileDisk opens (creating if necessary) a host file to back a
// simulated disk of numSectors sectors, extending it to
// numSectors*SectorSize bytes if it is shorter. A longer file is not
// truncated.
func OpenFileDisk(path string, numSectors int) (*FileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("fsdisk: open %s: %w", path, err)
	}

	size := int64(numSectors) * SectorSize
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("fsdisk: stat %s: %w", path, err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("fsdisk: truncate %s: %w", path, err)
		}
	}

	return &FileDisk{f: f, numSectors: numSectors}, nil
}

func (d *FileDisk) NumSectors() int { return d.numSectors }

func (d *FileDisk) ReadSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	_, err := d.f.ReadAt(buf, int64(n)*SectorSize)
	return err
}

func (d *FileDisk) WriteSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	_, err := d.f.WriteAt(buf, int64(n)*SectorSize)
	return err
}

func (d *FileDisk) checkSector(n int, buf []byte) error {
	if n < 0 || n >= d.numSectors {
		return fmt.Errorf("fsdisk: sector %d out of range [0,%d)", n, d.numSectors)
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("fsdisk: buffer length %d != sector size %d", len(buf), SectorSize)
	}
	return nil
}

// Close releases the host file backing the disk.
func (d *FileDisk) Close() error {
	return d.f.Close()
}
