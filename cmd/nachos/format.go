// file: cmd/nachos/format.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// FormatOptions configures the format subcommand, in the teacher's
// Options-struct style (cmd/create/create.go's CreateOptions).
type FormatOptions struct {
	Force bool // overwrite an existing, already-formatted image
}

// DefaultFormatOptions returns format's default options.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{Force: false}
}

var formatOpts = DefaultFormatOptions()

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Initialize a blank disk image with an empty file system",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !formatOpts.Force {
			if _, err := os.Stat(diskPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to reformat)", diskPath)
			}
		}

		k, fd, err := openKernel(true)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		fmt.Printf("formatted %s (%d sectors)\n", diskPath, numSectors)
		return nil
	},
}

func init() {
	formatCmd.Flags().BoolVar(&formatOpts.Force, "force", false, "reformat an existing image instead of refusing")
	rootCmd.AddCommand(formatCmd)
}
