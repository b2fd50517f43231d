// file: pkg/fsdisk/filesystem.go

package fsdisk

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

var fsLog = log.New(os.Stderr, "[fs] ", log.LstdFlags)

// Well-known sectors holding the bitmap's and root directory's file
// headers, per spec.md §6 "On-disk layout".
const (
	FreeMapSector = 0
	RootDirSector = 1
)

// OpenFileId identifies an entry in FileSystem's open-file table
// (spec.md §4.4, replacing the original single kernel-global
// fileDescriptor slot per spec.md §9's should-fix).
type OpenFileId int

// FileSystem is the facade of spec.md §4.4: name resolution,
// create/open/read/write/close/remove/list, rooted at a bitmap and a
// root directory held open for the lifetime of the file system.
//
// All mutating operations serialize on mu, standing in for the
// "interrupts disabled" mutual exclusion the original relies on
// (spec.md §5's note that a multi-threaded host MUST add this lock).
type FileSystem struct {
	mu sync.Mutex

	disk       Disk
	numSectors int

	freeMapFile *OpenFile
	rootDirFile *OpenFile

	openFiles map[OpenFileId]*OpenFile
	nextID    OpenFileId

	legacyFD *OpenFile // single-slot path, for the original syscall surface
}

// NewFileSystem mounts a file system over disk. When format is true
// the disk is treated as blank and re-initialized: sectors 0 and 1
// are claimed for the bitmap's and root directory's headers, their
// data is allocated, and an empty root directory is written out
// (spec.md §4.4 "Format").
func NewFileSystem(disk Disk, format bool) (*FileSystem, error) {
	fs := &FileSystem{
		disk:       disk,
		numSectors: disk.NumSectors(),
		openFiles:  make(map[OpenFileId]*OpenFile),
	}

	if !format {
		var err error
		fs.freeMapFile, err = OpenFileAt(disk, FreeMapSector)
		if err != nil {
			return nil, err
		}
		fs.rootDirFile, err = OpenFileAt(disk, RootDirSector)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}

	fsLog.Printf("formatting file system over %d sectors", fs.numSectors)

	freeMap := NewBitmap(fs.numSectors)
	freeMap.Mark(FreeMapSector)
	freeMap.Mark(RootDirSector)

	mapHdr := NewFileHeader()
	if err := mapHdr.Allocate(freeMap, disk, ByteSize(fs.numSectors)); err != nil {
		return nil, fmt.Errorf("fsdisk: allocate bitmap file: %w", err)
	}
	dirHdr := NewFileHeader()
	if err := dirHdr.Allocate(freeMap, disk, DirectoryFileSize); err != nil {
		return nil, fmt.Errorf("fsdisk: allocate root directory file: %w", err)
	}

	if err := mapHdr.WriteBack(disk, FreeMapSector); err != nil {
		return nil, err
	}
	if err := dirHdr.WriteBack(disk, RootDirSector); err != nil {
		return nil, err
	}

	fs.freeMapFile = newOpenFileWithHeader(disk, FreeMapSector, mapHdr)
	fs.rootDirFile = newOpenFileWithHeader(disk, RootDirSector, dirHdr)

	if err := NewDirectory().WriteBack(fs.rootDirFile); err != nil {
		return nil, err
	}
	if err := fs.writeFreeMap(freeMap); err != nil {
		return nil, err
	}

	return fs, nil
}

func splitPath(path string) []string {
	var out []string
	for _, tok := range strings.Split(path, "/") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (fs *FileSystem) loadFreeMap() (*Bitmap, error) {
	b := NewBitmap(fs.numSectors)
	buf := make([]byte, ByteSize(fs.numSectors))
	if _, err := fs.freeMapFile.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	b.FromBytes(buf)
	return b, nil
}

func (fs *FileSystem) writeFreeMap(b *Bitmap) error {
	_, err := fs.freeMapFile.WriteAt(b.Bytes(), 0)
	return err
}

// walkToParent resolves every path component but the last, returning
// an open handle on the final directory, its fetched table, and the
// leaf name still to be looked up/created/removed by the caller.
// Unlike the original's strtok-based walk, it never mutates its
// input (spec.md §9's "clean reimplementation should not mutate
// caller memory").
func (fs *FileSystem) walkToParent(path string) (*OpenFile, *Directory, string, error) {
	tokens := splitPath(path)
	if len(tokens) == 0 {
		return nil, nil, "", fmt.Errorf("fsdisk: empty path")
	}
	leaf := tokens[len(tokens)-1]

	dirFile := fs.rootDirFile
	dirTable := NewDirectory()
	if err := dirTable.FetchFrom(dirFile); err != nil {
		return nil, nil, "", err
	}

	for _, tok := range tokens[:len(tokens)-1] {
		sector := dirTable.Find(tok)
		if sector == -1 {
			return nil, nil, "", ErrNotFound
		}
		if !dirTable.IsDirectory(tok) {
			return nil, nil, "", ErrNotADirectory
		}
		var err error
		dirFile, err = OpenFileAt(fs.disk, sector)
		if err != nil {
			return nil, nil, "", err
		}
		if err := dirTable.FetchFrom(dirFile); err != nil {
			return nil, nil, "", err
		}
	}

	return dirFile, dirTable, leaf, nil
}

// resolve walks the full path and reports the leaf's sector and
// whether it is a directory.
func (fs *FileSystem) resolve(path string) (int, bool, error) {
	_, dirTable, leaf, err := fs.walkToParent(path)
	if err != nil {
		return 0, false, err
	}
	sector := dirTable.Find(leaf)
	if sector == -1 {
		return 0, false, ErrNotFound
	}
	return sector, dirTable.IsDirectory(leaf), nil
}

// openDirectory resolves path to a directory and returns it loaded
// into memory, handling the root path ("" or "/") specially since it
// has no name to look up in any parent table.
func (fs *FileSystem) openDirectory(path string) (*OpenFile, *Directory, error) {
	if len(splitPath(path)) == 0 {
		dirTable := NewDirectory()
		if err := dirTable.FetchFrom(fs.rootDirFile); err != nil {
			return nil, nil, err
		}
		return fs.rootDirFile, dirTable, nil
	}

	sector, isDir, err := fs.resolve(path)
	if err != nil {
		return nil, nil, err
	}
	if !isDir {
		return nil, nil, ErrNotADirectory
	}
	leafFile, err := OpenFileAt(fs.disk, sector)
	if err != nil {
		return nil, nil, err
	}
	leafDir := NewDirectory()
	if err := leafDir.FetchFrom(leafFile); err != nil {
		return nil, nil, err
	}
	return leafFile, leafDir, nil
}

// Create adds a new, fixed-size file at path, per spec.md §4.4.
func (fs *FileSystem) Create(path string, initialSize int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dirFile, dirTable, leaf, err := fs.walkToParent(path)
	if err != nil {
		return err
	}
	if dirTable.Find(leaf) != -1 {
		return ErrFileExists
	}

	freeMap, err := fs.loadFreeMap()
	if err != nil {
		return err
	}
	sector := freeMap.FindAndSet()
	if sector < 0 {
		return ErrDiskFull
	}

	hdr := NewFileHeader()
	if err := hdr.Allocate(freeMap, fs.disk, initialSize); err != nil {
		return err
	}
	if err := dirTable.Add(leaf, sector, false); err != nil {
		return err
	}
	if err := hdr.WriteBack(fs.disk, sector); err != nil {
		return err
	}
	if err := dirTable.WriteBack(dirFile); err != nil {
		return err
	}
	if err := fs.writeFreeMap(freeMap); err != nil {
		return err
	}

	fsLog.Printf("created %s (%d bytes) at sector %d", path, initialSize, sector)
	return nil
}

// CreateDirectory adds a new, empty sub-directory at path, per
// spec.md §4.4.
func (fs *FileSystem) CreateDirectory(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dirFile, dirTable, leaf, err := fs.walkToParent(path)
	if err != nil {
		return err
	}
	if dirTable.Find(leaf) != -1 {
		return ErrFileExists
	}

	freeMap, err := fs.loadFreeMap()
	if err != nil {
		return err
	}
	sector := freeMap.FindAndSet()
	if sector < 0 {
		return ErrDiskFull
	}

	hdr := NewFileHeader()
	if err := hdr.Allocate(freeMap, fs.disk, DirectoryFileSize); err != nil {
		return err
	}
	if err := dirTable.Add(leaf, sector, true); err != nil {
		return err
	}
	if err := hdr.WriteBack(fs.disk, sector); err != nil {
		return err
	}

	subFile := newOpenFileWithHeader(fs.disk, sector, hdr)
	if err := NewDirectory().WriteBack(subFile); err != nil {
		return err
	}
	if err := dirTable.WriteBack(dirFile); err != nil {
		return err
	}
	if err := fs.writeFreeMap(freeMap); err != nil {
		return err
	}

	fsLog.Printf("created directory %s at sector %d", path, sector)
	return nil
}

// Remove deletes the file or empty directory entry at path, freeing
// its data and header sectors, per spec.md §4.4. It does not descend
// into a directory's contents; use RecursiveRemove for that.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.removeLocked(path)
}

func (fs *FileSystem) removeLocked(path string) error {
	dirFile, dirTable, leaf, err := fs.walkToParent(path)
	if err != nil {
		return err
	}
	sector := dirTable.Find(leaf)
	if sector == -1 {
		return ErrNotFound
	}

	hdr := NewFileHeader()
	if err := hdr.FetchFrom(fs.disk, sector); err != nil {
		return err
	}
	freeMap, err := fs.loadFreeMap()
	if err != nil {
		return err
	}
	if err := hdr.Deallocate(freeMap, fs.disk); err != nil {
		return err
	}
	freeMap.Clear(sector)

	dirTable.Remove(leaf)

	if err := fs.writeFreeMap(freeMap); err != nil {
		return err
	}
	if err := dirTable.WriteBack(dirFile); err != nil {
		return err
	}

	fsLog.Printf("removed %s (sector %d)", path, sector)
	return nil
}

// RecursiveRemove deletes path; if it names a directory, every entry
// beneath it is removed first (files directly, sub-directories by
// recursing), per spec.md §4.4.
func (fs *FileSystem) RecursiveRemove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.recursiveRemoveLocked(path)
}

func (fs *FileSystem) recursiveRemoveLocked(path string) error {
	sector, isDir, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !isDir {
		return fs.removeLocked(path)
	}

	subFile, err := OpenFileAt(fs.disk, sector)
	if err != nil {
		return err
	}
	subDir := NewDirectory()
	if err := subDir.FetchFrom(subFile); err != nil {
		return err
	}

	for _, e := range subDir.Entries() {
		childPath := path + "/" + e.nameStringExported()
		if e.IsDirectory {
			if err := fs.recursiveRemoveLocked(childPath); err != nil {
				return err
			}
		} else if err := fs.removeLocked(childPath); err != nil {
			return err
		}
	}

	return fs.removeLocked(path)
}

// Open resolves path and returns a cursor over the file's contents.
// It fails with ErrIsADirectory if path names a directory.
func (fs *FileSystem) Open(path string) (*OpenFile, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sector, isDir, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, ErrIsADirectory
	}
	return OpenFileAt(fs.disk, sector)
}

// List returns the names of every in-use entry directly inside the
// directory at path ("" or "/" for the root).
func (fs *FileSystem) List(path string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, dir, err := fs.openDirectory(path)
	if err != nil {
		return nil, err
	}
	return dir.List(), nil
}

// RecursiveList writes an indented listing of path and everything
// beneath it to w.
func (fs *FileSystem) RecursiveList(path string, w io.Writer) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, dir, err := fs.openDirectory(path)
	if err != nil {
		return err
	}
	return dir.RecursiveList(w, 0, func(sector int) (*Directory, error) {
		of, err := OpenFileAt(fs.disk, sector)
		if err != nil {
			return nil, err
		}
		d := NewDirectory()
		if err := d.FetchFrom(of); err != nil {
			return nil, err
		}
		return d, nil
	})
}

// --- Multi-descriptor open-file table (spec.md §4.4, §9) ---

// OpenID opens path and registers it in the descriptor table,
// returning an id for subsequent ReadID/WriteID/CloseID calls. This
// is the general replacement for the original's single
// fileDescriptor slot, named as a should-fix in spec.md §9.
func (fs *FileSystem) OpenID(path string) (OpenFileId, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextID++
	id := fs.nextID
	fs.openFiles[id] = f
	return id, nil
}

// ReadID reads into buf from the descriptor's current position.
func (fs *FileSystem) ReadID(id OpenFileId, buf []byte) (int, error) {
	fs.mu.Lock()
	f := fs.openFiles[id]
	fs.mu.Unlock()
	if f == nil {
		return 0, ErrBadDescriptor
	}
	return f.Read(buf)
}

// WriteID writes buf at the descriptor's current position.
func (fs *FileSystem) WriteID(id OpenFileId, buf []byte) (int, error) {
	fs.mu.Lock()
	f := fs.openFiles[id]
	fs.mu.Unlock()
	if f == nil {
		return 0, ErrBadDescriptor
	}
	return f.Write(buf)
}

// CloseID retires a descriptor. Unwritten data is already on disk
// (every Write is write-through), so Close has nothing left to flush.
func (fs *FileSystem) CloseID(id OpenFileId) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.openFiles[id]; !ok {
		return ErrBadDescriptor
	}
	delete(fs.openFiles, id)
	return nil
}

// --- Legacy single-slot syscall surface (spec.md §6, original
// filesys.cc OpenAFile/ReadFile/WriteFile/CloseFile) ---

// OpenAFile opens name into the single legacy descriptor slot,
// returning its header sector as the OpenFileId the original syscall
// trampoline expects, or -1 on failure.
func (fs *FileSystem) OpenAFile(name string) int {
	sector, isDir, err := fs.resolve(name)
	if err != nil || isDir {
		return -1
	}
	of, err := OpenFileAt(fs.disk, sector)
	if err != nil {
		return -1
	}
	fs.mu.Lock()
	fs.legacyFD = of
	fs.mu.Unlock()
	return sector
}

// WriteFile writes size bytes of buffer through the legacy slot.
func (fs *FileSystem) WriteFile(buffer []byte, size int) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if size < 0 || fs.legacyFD == nil {
		return -1
	}
	n, err := fs.legacyFD.Write(buffer[:size])
	if err != nil && err != io.EOF {
		return -1
	}
	return n
}

// ReadFile reads up to size bytes through the legacy slot.
func (fs *FileSystem) ReadFile(buffer []byte, size int) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if size < 0 || fs.legacyFD == nil {
		return -1
	}
	n, err := fs.legacyFD.Read(buffer[:size])
	if err != nil && err != io.EOF {
		return -1
	}
	return n
}

// CloseFile clears the legacy slot.
func (fs *FileSystem) CloseFile() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.legacyFD == nil {
		return -1
	}
	fs.legacyFD = nil
	return 1
}

// Debug dumps the bitmap's free-sector count and a recursive listing
// of the root directory, after FileSystem::Print from
// original_source/filesys.cc. File headers are not printed.
func (fs *FileSystem) Debug(w io.Writer) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	freeMap, err := fs.loadFreeMap()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "free sectors: %d/%d\n", freeMap.NumClear(), fs.numSectors)

	dirTable := NewDirectory()
	if err := dirTable.FetchFrom(fs.rootDirFile); err != nil {
		return err
	}
	fmt.Fprintln(w, "root directory:")
	return dirTable.RecursiveList(w, 1, func(sector int) (*Directory, error) {
		of, err := OpenFileAt(fs.disk, sector)
		if err != nil {
			return nil, err
		}
		d := NewDirectory()
		if err := d.FetchFrom(of); err != nil {
			return nil, err
		}
		return d, nil
	})
}
