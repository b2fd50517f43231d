// file: kernel/kernel_test.go

package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/fsdisk"
)

func TestKernelCreateWriteCloseReopenReadScenario(t *testing.T) {
	disk := fsdisk.NewMemDisk(128)

	k, err := New(disk, true)
	require.NoError(t, err)

	payload := []byte("operating systems are fun")
	require.NoError(t, k.Create("/note.txt", len(payload)))

	id, err := k.Open("/note.txt")
	require.NoError(t, err)

	n, err := k.Write(id, payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.NoError(t, k.Close(id))

	// Remount the same disk from scratch, proving writes are durable
	// and not dependent on the first Kernel's in-memory state.
	k2, err := New(disk, false)
	require.NoError(t, err)

	id2, err := k2.Open("/note.txt")
	require.NoError(t, err)

	buf := make([]byte, len(payload))
	n, err = k2.Read(id2, buf)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
	require.NoError(t, k2.Close(id2))
}

func TestKernelHaltRejectsFurtherSyscalls(t *testing.T) {
	disk := fsdisk.NewMemDisk(64)
	k, err := New(disk, true)
	require.NoError(t, err)

	k.Halt()
	require.True(t, k.Halted())
	require.ErrorIs(t, k.Create("/x", 4), ErrHalted)
}

func TestKernelRemove(t *testing.T) {
	disk := fsdisk.NewMemDisk(64)
	k, err := New(disk, true)
	require.NoError(t, err)

	require.NoError(t, k.Create("/gone.txt", 4))
	require.NoError(t, k.Remove("/gone.txt"))

	_, err = k.Open("/gone.txt")
	require.ErrorIs(t, err, fsdisk.ErrNotFound)
}
