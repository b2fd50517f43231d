// file: cmd/nachos/mkdir.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a new, empty sub-directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		if err := k.FileSystem().CreateDirectory(args[0]); err != nil {
			return fmt.Errorf("mkdir %s: %w", args[0], err)
		}
		fmt.Printf("created directory %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
