// Copyright © 2024 The Quill authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/quill/lsp"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// LSPCommand creates the "lsp" cobra command.  Embedders can pass
// WithGlobals to predefine host names for the analysis.
func LSPCommand(opts ...Option) *cobra.Command {
	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Language Server Protocol server",
		Long: `Start an LSP server for .py source files.

The language server provides diagnostics, hover, go-to-definition, find
references, document highlights, completion, signature help, document and
workspace symbols, semantic tokens, folding ranges, quick fixes and rename.
Formatting is delegated to the program named by the format.command setting.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  quill lsp                          Start with stdio transport
  quill lsp --stdio                  Same as above (explicit)
  quill lsp --port 7998              Start with TCP on port 7998

Logs are written to stderr; set QUILL_LOG_LEVEL=debug for request traces.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := newCmdConfig(opts)
			s := currentSettings()
			srv := lsp.New(
				lsp.WithLogger(logger),
				lsp.WithService(cfg.newService()),
				lsp.WithDebounce(s.LSP.Debounce),
				lsp.WithFormatCommand(s.Format.Command),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				logger.Info().Str("addr", addr).Msg("language server listening")
				if err := srv.RunTCP(addr); err != nil {
					return errors.Errorf("lsp server: %w", err)
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return errors.Errorf("lsp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	cmd.SilenceUsage = true
	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
