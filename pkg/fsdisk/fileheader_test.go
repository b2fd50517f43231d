// file: pkg/fsdisk/fileheader_test.go

package fsdisk

import "testing"

func TestFileHeaderAllocateDirect(t *testing.T) {
	disk := NewMemDisk(64)
	freeMap := NewBitmap(64)

	h := NewFileHeader()
	if err := h.Allocate(freeMap, disk, 300); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if h.FileLength() != 300 {
		t.Errorf("FileLength = %d, want 300", h.FileLength())
	}
	if want := divRoundUp(300, SectorSize); h.NumSectors() != want {
		t.Errorf("NumSectors = %d, want %d", h.NumSectors(), want)
	}
	for i := 0; i < h.NumSectors(); i++ {
		if h.DataSectors[i] < 0 {
			t.Errorf("data sector %d unallocated", i)
		}
	}
}

func TestFileHeaderAllocateIndirect(t *testing.T) {
	disk := NewMemDisk(64)
	freeMap := NewBitmap(64)

	const size = 5000 // > Level2 (3840), forces one level of indirection
	h := NewFileHeader()
	if err := h.Allocate(freeMap, disk, size); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if h.FileLength() != size {
		t.Errorf("FileLength = %d, want %d", h.FileLength(), size)
	}

	// Every byte in the file must resolve to a distinct, valid sector.
	seen := make(map[int]bool)
	for off := 0; off < size; off += SectorSize {
		sec, err := h.ByteToSector(disk, off)
		if err != nil {
			t.Fatalf("ByteToSector(%d): %v", off, err)
		}
		if sec < 0 || sec >= disk.NumSectors() {
			t.Fatalf("ByteToSector(%d) = %d out of range", off, sec)
		}
		if seen[sec] {
			t.Fatalf("ByteToSector(%d) = %d, already used by an earlier offset", off, sec)
		}
		seen[sec] = true
	}
	if len(seen) == 0 {
		t.Fatalf("no sectors resolved")
	}
}

func TestFileHeaderByteToSectorDirect(t *testing.T) {
	disk := NewMemDisk(16)
	freeMap := NewBitmap(16)

	h := NewFileHeader()
	if err := h.Allocate(freeMap, disk, 200); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	sec, err := h.ByteToSector(disk, 150)
	if err != nil {
		t.Fatalf("ByteToSector: %v", err)
	}
	if sec != int(h.DataSectors[150/SectorSize]) {
		t.Errorf("ByteToSector(150) = %d, want %d", sec, h.DataSectors[150/SectorSize])
	}
}

func TestFileHeaderWriteBackFetchFromRoundTrip(t *testing.T) {
	disk := NewMemDisk(16)
	freeMap := NewBitmap(16)

	h := NewFileHeader()
	if err := h.Allocate(freeMap, disk, 400); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := h.WriteBack(disk, 10); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}

	h2 := NewFileHeader()
	if err := h2.FetchFrom(disk, 10); err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	if h2.FileLength() != h.FileLength() || h2.NumSectors() != h.NumSectors() {
		t.Fatalf("round trip mismatch: got %+v, want %+v", h2, h)
	}
	for i := 0; i < h.NumSectors(); i++ {
		if h2.DataSectors[i] != h.DataSectors[i] {
			t.Errorf("DataSectors[%d] = %d, want %d", i, h2.DataSectors[i], h.DataSectors[i])
		}
	}
}

func TestFileHeaderDeallocateFreesEverySector(t *testing.T) {
	disk := NewMemDisk(64)
	freeMap := NewBitmap(64)

	before := freeMap.NumClear()

	h := NewFileHeader()
	if err := h.Allocate(freeMap, disk, 5000); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	afterAlloc := freeMap.NumClear()
	if afterAlloc == before {
		t.Fatalf("Allocate did not consume any sectors")
	}

	if err := h.Deallocate(freeMap, disk); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	// Deallocate frees the data and sub-header sectors it owns, but not
	// the sector holding h itself (the caller, FileSystem, owns that).
	if got := freeMap.NumClear(); got != before {
		t.Errorf("NumClear after Deallocate = %d, want %d", got, before)
	}
}
