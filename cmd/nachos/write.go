// file: cmd/nachos/write.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var writeFrom string

var writeCmd = &cobra.Command{
	Use:   "write PATH",
	Short: "Write data into an existing file, starting at offset 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if writeFrom != "" {
			data, err = os.ReadFile(writeFrom)
			if err != nil {
				return fmt.Errorf("read %s: %w", writeFrom, err)
			}
		} else {
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

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

		n, err := k.Write(id, data)
		if err != nil {
			return fmt.Errorf("write %s: %w", args[0], err)
		}
		fmt.Printf("wrote %d bytes to %s\n", n, args[0])
		return nil
	},
}

func init() {
	writeCmd.Flags().StringVar(&writeFrom, "from", "", "read content from this host file instead of stdin")
	rootCmd.AddCommand(writeCmd)
}
