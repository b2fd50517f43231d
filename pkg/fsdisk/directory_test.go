// file: pkg/fsdisk/directory_test.go

package fsdisk

import (
	"sort"
	"testing"
)

func newTestDirectoryFile(t *testing.T) *OpenFile {
	t.Helper()
	disk := NewMemDisk(64)
	freeMap := NewBitmap(64)
	hdr := NewFileHeader()
	if err := hdr.Allocate(freeMap, disk, DirectoryFileSize); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return newOpenFileWithHeader(disk, 0, hdr)
}

func TestDirectoryAddFindRemove(t *testing.T) {
	d := NewDirectory()
	if err := d.Add("hello.txt", 5, false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sec := d.Find("hello.txt"); sec != 5 {
		t.Errorf("Find = %d, want 5", sec)
	}
	if d.IsDirectory("hello.txt") {
		t.Errorf("hello.txt should not be a directory")
	}
	if err := d.Add("hello.txt", 6, false); err != ErrFileExists {
		t.Errorf("Add duplicate: got %v, want ErrFileExists", err)
	}
	if !d.Remove("hello.txt") {
		t.Errorf("Remove should report success")
	}
	if sec := d.Find("hello.txt"); sec != -1 {
		t.Errorf("Find after Remove = %d, want -1", sec)
	}
	if d.Remove("hello.txt") {
		t.Errorf("Remove of absent name should report failure")
	}
}

func TestDirectoryAddNameTooLong(t *testing.T) {
	d := NewDirectory()
	if err := d.Add("this-name-is-too-long", 1, false); err != ErrNameTooLong {
		t.Errorf("Add: got %v, want ErrNameTooLong", err)
	}
}

func TestDirectoryFull(t *testing.T) {
	d := NewDirectory()
	for i := 0; i < NumDirEntries; i++ {
		if err := d.Add(string(rune('a'+i%26))+string(rune('0'+i/26)), i, false); err != nil {
			t.Fatalf("Add entry %d: %v", i, err)
		}
	}
	if err := d.Add("overflow", 999, false); err != ErrDirectoryFull {
		t.Errorf("Add past capacity: got %v, want ErrDirectoryFull", err)
	}
}

func TestDirectoryRemoveDoesNotCompact(t *testing.T) {
	d := NewDirectory()
	d.Add("a", 1, false)
	d.Add("b", 2, false)
	d.Add("c", 3, false)
	d.Remove("b")

	if d.entries[1].InUse || d.entries[2].nameString() != "c" {
		t.Fatalf("Remove compacted the table: slot 1 in use=%v, slot 2 = %q", d.entries[1].InUse, d.entries[2].nameString())
	}

	names := d.List()
	sort.Strings(names)
	want := []string{"a", "c"}
	if len(names) != len(want) {
		t.Fatalf("List after remove = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestDirectoryWriteBackFetchFromRoundTrip(t *testing.T) {
	of := newTestDirectoryFile(t)

	d := NewDirectory()
	d.Add("one", 10, false)
	d.Add("two", 20, true)
	if err := d.WriteBack(of); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}

	d2 := NewDirectory()
	if err := d2.FetchFrom(of); err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	if sec := d2.Find("one"); sec != 10 {
		t.Errorf("Find(one) after round trip = %d, want 10", sec)
	}
	if sec := d2.Find("two"); sec != 20 {
		t.Errorf("Find(two) after round trip = %d, want 20", sec)
	}
	if !d2.IsDirectory("two") {
		t.Errorf("two should be a directory after round trip")
	}
}
