// Copyright © 2024 The Quill authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/quill/repl"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive analysis shell",
	Long: `Start an interactive shell over a growing buffer of source.

Each source line is appended to the buffer, which is re-analyzed; new
diagnostics are printed. Lines starting with a colon query the latest
analysis. Line editing, history and name completion are supported via
readline. Use Ctrl-D or :quit to exit.

Commands:
  :hover LINE COL | NAME          describe a symbol
  :def LINE COL | NAME            locate the declaration of a symbol
  :refs LINE COL | NAME           list every occurrence of a symbol
  :rename LINE COL NEW | NAME NEW rename a symbol throughout the buffer
  :symbols                        print the outline of the buffer
  :diag                           print every diagnostic of the buffer
  :load FILE                      replace the buffer with the contents of FILE
  :show                           print the buffer with line numbers
  :reset                          clear the buffer
  :help                           list the commands

Example session:
  quill> def area(width, height=1):
  ...        return width * height
  ...
  quill> :hover area
  def area(width, height=...)  (function)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newCmdConfig(nil)
		return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
			repl.WithService(cfg.newService()),
			repl.WithFs(cfg.fs),
			repl.WithColor(colorMode()),
		)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
