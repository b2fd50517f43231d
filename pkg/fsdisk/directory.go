// file: pkg/fsdisk/directory.go

package fsdisk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// FileNameMaxLen bounds a directory entry's name, matching the
// original NachOS directory entry layout.
const FileNameMaxLen = 9

// NumDirEntries is the fixed entry count of every directory file in
// the system (spec.md §4.3): "a directory is a regular file of
// NumDirEntries such entries."
const NumDirEntries = 64

// dirEntrySize is the packed on-disk size of one DirEntry: 1 byte
// InUse + 1 byte IsDirectory + 4 bytes Sector + (FileNameMaxLen+1)
// bytes Name.
const dirEntrySize = 1 + 1 + 4 + (FileNameMaxLen + 1)

// DirEntry is the fixed-size record of spec.md §3: "Directory entry."
type DirEntry struct {
	InUse       bool
	IsDirectory bool
	Sector      int32
	Name        [FileNameMaxLen + 1]byte
}

func (e *DirEntry) nameString() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

func (e *DirEntry) setName(name string) error {
	if len(name) > FileNameMaxLen {
		return ErrNameTooLong
	}
	var buf [FileNameMaxLen + 1]byte
	copy(buf[:], name)
	e.Name = buf
	return nil
}

// Directory is the in-memory table backing a directory file, per
// spec.md §4.3. It is loaded wholesale via FetchFrom, mutated, and
// written back wholesale via WriteBack, matching the original's
// in-memory directory table design (spec.md §9).
type Directory struct {
	entries [NumDirEntries]DirEntry
}

// NewDirectory returns an all-empty directory table.
func NewDirectory() *Directory {
	return &Directory{}
}

// DirectoryFileSize is the byte size of a directory's backing file,
// i.e. spec.md §4.4's NumDirEntries*sizeof(DirectoryEntry).
const DirectoryFileSize = NumDirEntries * dirEntrySize

// FetchFrom loads the directory table from an open directory file.
func (d *Directory) FetchFrom(of *OpenFile) error {
	buf := make([]byte, DirectoryFileSize)
	if _, err := of.ReadAt(buf, 0); err != nil && err != io.EOF {
		return err
	}
	r := bytes.NewReader(buf)
	for i := range d.entries {
		e := &d.entries[i]
		var inUse, isDir uint8
		if err := binary.Read(r, binary.LittleEndian, &inUse); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &isDir); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &e.Sector); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &e.Name); err != nil {
			return err
		}
		e.InUse = inUse != 0
		e.IsDirectory = isDir != 0
	}
	return nil
}

// WriteBack persists the directory table to an open directory file.
func (d *Directory) WriteBack(of *OpenFile) error {
	buf := new(bytes.Buffer)
	for i := range d.entries {
		e := &d.entries[i]
		var inUse, isDir uint8
		if e.InUse {
			inUse = 1
		}
		if e.IsDirectory {
			isDir = 1
		}
		if err := binary.Write(buf, binary.LittleEndian, inUse); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, isDir); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, e.Sector); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, e.Name); err != nil {
			return err
		}
	}
	_, err := of.WriteAt(buf.Bytes(), 0)
	return err
}

// Find performs the byte-exact linear scan of spec.md §4.3, returning
// the entry's sector or -1 if name is not present.
func (d *Directory) Find(name string) int {
	for i := range d.entries {
		if d.entries[i].InUse && d.entries[i].nameString() == name {
			return int(d.entries[i].Sector)
		}
	}
	return -1
}

// IsDirectory reports whether an in-use entry named name is a
// directory. Returns false if the name is absent.
func (d *Directory) IsDirectory(name string) bool {
	for i := range d.entries {
		if d.entries[i].InUse && d.entries[i].nameString() == name {
			return d.entries[i].IsDirectory
		}
	}
	return false
}

// Add inserts a new entry, failing if name is already present or no
// slot is free, per spec.md §4.3.
func (d *Directory) Add(name string, sector int, isDir bool) error {
	if d.Find(name) != -1 {
		return ErrFileExists
	}
	for i := range d.entries {
		if !d.entries[i].InUse {
			if err := d.entries[i].setName(name); err != nil {
				return err
			}
			d.entries[i].InUse = true
			d.entries[i].IsDirectory = isDir
			d.entries[i].Sector = int32(sector)
			return nil
		}
	}
	return ErrDirectoryFull
}

// Remove clears the InUse flag on name's entry without compacting the
// table, per spec.md §4.3. Returns false if name was not present.
func (d *Directory) Remove(name string) bool {
	for i := range d.entries {
		if d.entries[i].InUse && d.entries[i].nameString() == name {
			d.entries[i] = DirEntry{}
			return true
		}
	}
	return false
}

// List returns the names of every in-use entry, in table order.
func (d *Directory) List() []string {
	var names []string
	for i := range d.entries {
		if d.entries[i].InUse {
			names = append(names, d.entries[i].nameString())
		}
	}
	return names
}

// Entries returns the in-use entries, for callers (FileSystem's
// RecursiveRemove/RecursiveList) that need the sector and
// isDirectory flag alongside the name.
func (d *Directory) Entries() []DirEntry {
	var out []DirEntry
	for i := range d.entries {
		if d.entries[i].InUse {
			out = append(out, d.entries[i])
		}
	}
	return out
}

// RecursiveList writes an indented listing of this directory and
// every sub-directory beneath it to w, descending via fetch. fetch
// loads the Directory rooted at a given sector (supplied by
// FileSystem, which alone knows how to open a sector as a file).
// This mirrors the original's Directory::RecursiveList /
// FileSystem::RecursiveList split named in spec.md §4.3 but missing
// from the distilled operation list.
func (d *Directory) RecursiveList(w io.Writer, depth int, fetch func(sector int) (*Directory, error)) error {
	indent := strings.Repeat("  ", depth)
	for _, e := range d.Entries() {
		if e.IsDirectory {
			fmt.Fprintf(w, "%s[%s]\n", indent, e.nameStringExported())
			sub, err := fetch(int(e.Sector))
			if err != nil {
				return err
			}
			if err := sub.RecursiveList(w, depth+1, fetch); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, e.nameStringExported())
		}
	}
	return nil
}

// nameStringExported lets RecursiveList (which takes a DirEntry value,
// not a pointer, from Entries) reuse the name-decoding logic.
func (e DirEntry) nameStringExported() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}
