// file: pkg/fsdisk/bitmap_test.go

package fsdisk

import "testing"

func TestBitmapMarkClearTest(t *testing.T) {
	b := NewBitmap(16)
	if b.Test(5) {
		t.Fatalf("sector 5 should start clear")
	}
	b.Mark(5)
	if !b.Test(5) {
		t.Fatalf("sector 5 should be marked")
	}
	b.Clear(5)
	if b.Test(5) {
		t.Fatalf("sector 5 should be clear again")
	}
}

func TestBitmapFindAndSet(t *testing.T) {
	b := NewBitmap(4)
	got := []int{}
	for i := 0; i < 4; i++ {
		got = append(got, b.FindAndSet())
	}
	want := []int{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allocation %d: got %d want %d", i, got[i], want[i])
		}
	}
	if s := b.FindAndSet(); s != -1 {
		t.Fatalf("expected -1 on full bitmap, got %d", s)
	}
}

func TestBitmapNumClear(t *testing.T) {
	b := NewBitmap(8)
	if n := b.NumClear(); n != 8 {
		t.Fatalf("NumClear = %d, want 8", n)
	}
	b.Mark(0)
	b.Mark(3)
	if n := b.NumClear(); n != 6 {
		t.Fatalf("NumClear = %d, want 6", n)
	}
}

func TestBitmapBytesRoundTrip(t *testing.T) {
	b := NewBitmap(20)
	b.Mark(0)
	b.Mark(17)
	b.Mark(19)

	b2 := NewBitmap(20)
	b2.FromBytes(b.Bytes())

	for i := 0; i < 20; i++ {
		if b.Test(i) != b2.Test(i) {
			t.Fatalf("sector %d mismatch after round trip", i)
		}
	}
}

func TestByteSize(t *testing.T) {
	cases := []struct{ numSectors, want int }{
		{0, 0},
		{1, 1},
		{8, 1},
		{9, 2},
		{128, 16},
	}
	for _, c := range cases {
		if got := ByteSize(c.numSectors); got != c.want {
			t.Errorf("ByteSize(%d) = %d, want %d", c.numSectors, got, c.want)
		}
	}
}
