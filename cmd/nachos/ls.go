// file: cmd/nachos/ls.go

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var lsRecursive bool

var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a directory's entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		fs := k.FileSystem()
		if lsRecursive {
			return fs.RecursiveList(path, cmd.OutOrStdout())
		}

		names, err := fs.List(path)
		if err != nil {
			return fmt.Errorf("list %s: %w", path, err)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "list sub-directories recursively")
	rootCmd.AddCommand(lsCmd)
}
