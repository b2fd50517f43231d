// file: cmd/nachos/create.go

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create PATH SIZE",
	Short: "Create a new fixed-size file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}

		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		if err := k.Create(args[0], size); err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		fmt.Printf("created %s (%d bytes)\n", args[0], size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
