// Copyright © 2024 The Quill authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

const docWidth = 78

// HoverCommand creates the "hover" cobra command.
func HoverCommand(opts ...Option) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "hover [flags] FILE LINE COL",
		Short: "Describe the symbol at a position",
		Long: `Describe the symbol at a 1-based line and column: its kind, signature
and documentation. Exits with status 1 when no symbol is there.

Example:
  quill hover shapes.py 12 9`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newCmdConfig(opts)
			pos, err := parsePosition(args[1], args[2])
			if err != nil {
				return err
			}
			svc, id, err := openFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			info, err := svc.Hover(id, pos.Line, pos.Col)
			if err != nil {
				return err
			}
			if info == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: no symbol\n", args[0], pos.Line, pos.Col) //nolint:errcheck
				return &ExitError{Code: 1}
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			writeHover(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the description as JSON.")
	cmd.SilenceUsage = true
	return cmd
}

func writeHover(w io.Writer, info *query.HoverInfo) {
	fmt.Fprintf(w, "%s  (%s)\n", info.Summary, info.KindName) //nolint:errcheck
	if info.Signature != "" && info.Signature != info.Summary {
		fmt.Fprintf(w, "  %s\n", info.Signature) //nolint:errcheck
	}
	if info.Doc != "" {
		fmt.Fprintf(w, "\n%s\n", indent.String(wordwrap.String(info.Doc, docWidth-2), 2)) //nolint:errcheck
	}
}

// RenameCommand creates the "rename" cobra command.
func RenameCommand(opts ...Option) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "rename [flags] FILE LINE COL NEWNAME",
		Short: "Rename the symbol at a position",
		Long: `Rename the symbol at a 1-based line and column, together with every
reference to it. The edits are listed; with --write the file is
rewritten.

Builtins cannot be renamed, and a new name already bound in a scope the
symbol is visible from is rejected.

Examples:
  quill rename shapes.py 12 9 perimeter
  quill rename --write shapes.py 12 9 perimeter`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newCmdConfig(opts)
			path := args[0]
			pos, err := parsePosition(args[1], args[2])
			if err != nil {
				return err
			}
			svc, id, err := openFile(cmd, cfg, path)
			if err != nil {
				return err
			}
			res, err := svc.Rename(id, pos.Line, pos.Col, args[3])
			if err != nil {
				return errors.Errorf("%s:%d:%d: %w", path, pos.Line, pos.Col, err)
			}
			for _, e := range res.Edits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d: %s\n", path, e.Start.Line, e.Start.Col, e.NewText) //nolint:errcheck
			}
			if !write {
				return nil
			}

			next, err := svc.Commit(cmd.Context(), id, res.QueryEdits())
			if err != nil {
				return err
			}
			snap, err := svc.Snapshot(next.ID)
			if err != nil {
				return err
			}
			info, err := cfg.fs.Stat(path)
			if err != nil {
				return errors.Errorf("%s: %w", path, err)
			}
			if err := afero.WriteFile(cfg.fs, path, []byte(snap.Text), info.Mode().Perm()); err != nil {
				return errors.Errorf("%s: %w", path, err)
			}
			logger.Info().Str("file", path).Int("edits", len(res.Edits)).Msg("renamed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file with the edits applied.")
	cmd.SilenceUsage = true
	return cmd
}

func parsePosition(line, col string) (query.Position, error) {
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return query.Position{}, errors.Errorf("invalid line %q", line)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return query.Position{}, errors.Errorf("invalid column %q", col)
	}
	return query.Position{Line: l, Col: c}, nil
}

// openFile analyzes path as the first snapshot of a fresh service.
func openFile(cmd *cobra.Command, cfg *cmdConfig, path string) (*service.Service, service.ID, error) {
	src, err := afero.ReadFile(cfg.fs, path)
	if err != nil {
		return nil, "", errors.Errorf("%s: %w", path, err)
	}
	svc := cfg.newService()
	res, err := svc.Analyze(cmd.Context(), path, string(src))
	if err != nil {
		return nil, "", err
	}
	return svc, res.ID, nil
}

func init() {
	rootCmd.AddCommand(HoverCommand(), RenameCommand())
}
