package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shroud"
)

func newStatusesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "List the status codes the library can report",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, int(shroud.StatusRequestCancelled)+1)
			for st := shroud.StatusSuccess; st <= shroud.StatusRequestCancelled; st++ {
				rows = append(rows, []string{strconv.FormatUint(uint64(st), 10), st.String()})
			}

			if isTerminal(out) {
				fmt.Fprintln(out, renderTable([]string{"Code", "Meaning"}, rows))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%s\t%s\n", row[0], row[1])
			}
			return nil
		},
	}
	return cmd
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
