// file: cmd/nachos/fsck.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Dump the bitmap's free-sector count and the full directory tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		if err := k.FileSystem().Debug(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("fsck: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)
}
