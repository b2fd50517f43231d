// file: cmd/nachos/root.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allowwidth/NTHU-OperatingSystem2020/kernel"
	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/fsdisk"
)

var (
	diskPath   string
	numSectors int
)

var rootCmd = &cobra.Command{
	Use:   "nachos",
	Short: "Operate on a simulated NachOS-style disk image",
	Long: "nachos is a command-line front end over the scheduler and " +
		"file-system packages: it formats, inspects, and edits a disk " +
		"image file the way the original NachOS shell would.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&diskPath, "disk", "nachos.img", "path to the disk image file")
	rootCmd.PersistentFlags().IntVar(&numSectors, "sectors", 1024, "sector count for a new disk image")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nachos:", err)
		os.Exit(1)
	}
}

// openKernel mounts diskPath, formatting it first if format is true.
// The caller is responsible for closing the returned FileDisk.
func openKernel(format bool) (*kernel.Kernel, *fsdisk.FileDisk, error) {
	fd, err := fsdisk.OpenFileDisk(diskPath, numSectors)
	if err != nil {
		return nil, nil, fmt.Errorf("open disk image %s: %w", diskPath, err)
	}
	k, err := kernel.New(fd, format)
	if err != nil {
		fd.Close()
		return nil, nil, fmt.Errorf("mount %s: %w", diskPath, err)
	}
	return k, fd, nil
}
