// Copyright © 2024 The Quill authors

package cmd

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/luthersystems/quill/query"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// symbolRow is one declaration of the symbols listing.
type symbolRow struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
	Detail    string `json:"detail,omitempty"`
	Container string `json:"container,omitempty"`
	depth     int
}

// SymbolsCommand creates the "symbols" cobra command.
func SymbolsCommand(opts ...Option) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "symbols [flags] FILE",
		Short: "List the declarations of a source file",
		Long: `List the module level declarations of a source file, with the
methods and attributes of each class nested below it.

Examples:
  quill symbols shapes.py          Print a table of declarations
  quill symbols --json shapes.py   Print the declarations as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newCmdConfig(opts)
			snap, err := analyzeFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			rows := symbolRows(snap, snap.DocumentSymbols(), "", 0, nil)
			if jsonOut {
				if rows == nil {
					rows = []symbolRow{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Kind", "Line", "Col", "Detail"})
			for _, r := range rows {
				t.AppendRow(table.Row{strings.Repeat("  ", r.depth) + r.Name, r.Kind, r.Line, r.Col, r.Detail})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the declarations as JSON.")
	cmd.SilenceUsage = true
	return cmd
}

func symbolRows(snap *query.Snapshot, items []*query.OutlineItem, container string, depth int, rows []symbolRow) []symbolRow {
	for _, item := range items {
		pos := snap.PositionOf(item.Selection.Start)
		rows = append(rows, symbolRow{
			Name:      item.Name,
			Kind:      item.Kind.String(),
			Line:      pos.Line,
			Col:       pos.Col,
			Detail:    item.Detail,
			Container: container,
			depth:     depth,
		})
		rows = symbolRows(snap, item.Children, item.Name, depth+1, rows)
	}
	return rows
}

// analyzeFile reads path from the command filesystem and analyzes it.
func analyzeFile(cmd *cobra.Command, cfg *cmdConfig, path string) (*query.Snapshot, error) {
	src, err := afero.ReadFile(cfg.fs, path)
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	qc := cfg.queryConfig()
	return query.Analyze(cmd.Context(), path, string(src), 1, &qc)
}

func init() {
	rootCmd.AddCommand(SymbolsCommand())
}
