// file: cmd/nachos/cat.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print a file's contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		id, err := k.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer k.Close(id)

		buf := make([]byte, 4096)
		for {
			n, err := k.Read(id, buf)
			if n > 0 {
				if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if n == 0 {
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
