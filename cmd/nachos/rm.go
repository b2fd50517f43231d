// file: cmd/nachos/rm.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Remove a file or an empty directory entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		if err := k.Remove(args[0]); err != nil {
			return fmt.Errorf("rm %s: %w", args[0], err)
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

var rmrCmd = &cobra.Command{
	Use:   "rmr PATH",
	Short: "Remove a file or directory, recursing into its contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		if err := k.FileSystem().RecursiveRemove(args[0]); err != nil {
			return fmt.Errorf("rmr %s: %w", args[0], err)
		}
		fmt.Printf("removed %s recursively\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(rmrCmd)
}
