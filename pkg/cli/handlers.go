package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/httpseq/pkg/cli/internal/output"
	"github.com/getmockd/httpseq/pkg/handler"
)

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List the response handlers that can be enabled with run -r",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "NAME\tTEST KEY\tBODY FORMAT")
		for _, h := range handler.Core() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", "(always)", testKey(h), bodyFormat(h))
		}
		for _, name := range handler.Names() {
			h, _ := handler.Lookup(name)
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, testKey(h), bodyFormat(h))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", handler.YAMLDisk, "-", "reads <@file data as YAML")
		return w.Flush()
	},
}

func testKey(h any) string {
	if rh, ok := h.(handler.ResponseHandler); ok {
		return rh.Key()
	}
	return "-"
}

func bodyFormat(h any) string {
	if _, ok := h.(handler.ContentHandler); ok {
		return "yes"
	}
	return "-"
}

func init() {
	rootCmd.AddCommand(handlersCmd)
}
