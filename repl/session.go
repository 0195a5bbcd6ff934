// Copyright © 2024 The Quill authors

package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/afero"
)

var errUsage = errors.New("usage")

// session is the buffer edited by the shell and the service analyzing it.
type session struct {
	cfg   *config
	svc   *service.Service
	out   io.Writer
	lines []string
	block []string // lines of a compound statement still being entered
	id    service.ID
}

type command struct {
	usage string
	help  string
	run   func(s *session, ctx context.Context, args []string) error
}

var commands map[string]*command

func init() {
	commands = map[string]*command{
		"help":    {"", "list the commands", (*session).cmdHelp},
		"load":    {"FILE", "replace the buffer with the contents of FILE", (*session).cmdLoad},
		"show":    {"", "print the buffer with line numbers", (*session).cmdShow},
		"diag":    {"", "print every diagnostic of the buffer", (*session).cmdDiag},
		"hover":   {"LINE COL | NAME", "describe a symbol", (*session).cmdHover},
		"def":     {"LINE COL | NAME", "locate the declaration of a symbol", (*session).cmdDef},
		"refs":    {"LINE COL | NAME", "list every occurrence of a symbol", (*session).cmdRefs},
		"rename":  {"LINE COL NEW | NAME NEW", "rename a symbol throughout the buffer", (*session).cmdRename},
		"symbols": {"", "print the outline of the buffer", (*session).cmdSymbols},
		"reset":   {"", "clear the buffer", (*session).cmdReset},
		"quit":    {"", "leave the shell", nil},
	}
}

func newSession(ctx context.Context, cfg *config, out io.Writer) (*session, error) {
	s := &session{cfg: cfg, svc: cfg.svc, out: out}
	if _, err := s.analyze(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	s.svc.Close(DefaultURI)
}

func (s *session) pending() bool {
	return len(s.block) > 0
}

func (s *session) discard() {
	s.block = nil
}

func (s *session) text() string {
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n") + "\n"
}

func (s *session) snapshot() *query.Snapshot {
	snap, err := s.svc.Snapshot(s.id)
	if err != nil {
		return nil
	}
	return snap
}

func (s *session) analyze(ctx context.Context) (*service.AnalyzeResult, error) {
	res, err := s.svc.Analyze(ctx, DefaultURI, s.text())
	if err != nil {
		return nil, err
	}
	s.id = res.ID
	return res, nil
}

// feed processes one line of input.  It returns true when the shell should
// exit.
func (s *session) feed(ctx context.Context, line string) bool {
	if s.pending() {
		if strings.TrimSpace(line) != "" {
			s.block = append(s.block, line)
			return false
		}
		s.flush(ctx)
		return false
	}
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false
	case strings.HasPrefix(trimmed, ":"):
		return s.exec(ctx, trimmed[1:])
	}
	s.block = append(s.block, line)
	if !opensBlock(line) {
		s.flush(ctx)
	}
	return false
}

// opensBlock reports whether line is the header of a compound statement.
func opensBlock(line string) bool {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.HasSuffix(strings.TrimSpace(line), ":")
}

// flush appends the pending block to the buffer and reports the diagnostics
// it introduced.
func (s *session) flush(ctx context.Context) {
	if !s.pending() {
		return
	}
	first := len(s.lines) + 1
	s.lines = append(s.lines, s.block...)
	s.block = nil
	res, err := s.analyze(ctx)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	var fresh []lint.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Pos.Line >= first {
			fresh = append(fresh, d)
		}
	}
	s.render(fresh)
}

func (s *session) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		s.errorf("missing command; try :help")
		return false
	}
	name := fields[0]
	if name == "q" {
		name = "quit"
	}
	cmd, ok := commands[name]
	if !ok {
		s.errorf("unknown command :%s; try :help", name)
		return false
	}
	if cmd.run == nil {
		return true
	}
	err := cmd.run(s, ctx, fields[1:])
	if errors.Is(err, errUsage) {
		s.errorf("usage: :%s %s", name, cmd.usage)
	} else if err != nil {
		s.errorf("%v", err)
	}
	return false
}

func (s *session) printf(format string, v ...any) {
	fmt.Fprintf(s.out, format, v...) //nolint:errcheck // best-effort REPL output
}

func (s *session) errorf(format string, v ...any) {
	s.printf("error: "+format+"\n", v...)
}

func (s *session) cmdHelp(context.Context, []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		s.printf("  :%-8s %-24s %s\n", name, cmd.usage, cmd.help)
	}
	return nil
}

func (s *session) cmdLoad(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	b, err := afero.ReadFile(s.cfg.fs, args[0])
	if err != nil {
		return err
	}
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	s.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		s.lines = nil
	}
	res, err := s.analyze(ctx)
	if err != nil {
		return err
	}
	s.printf("loaded %d lines, %d diagnostics\n", len(s.lines), len(res.Diagnostics))
	return nil
}

func (s *session) cmdShow(context.Context, []string) error {
	width := len(strconv.Itoa(len(s.lines)))
	for i, line := range s.lines {
		s.printf("%*d | %s\n", width, i+1, line)
	}
	return nil
}

func (s *session) cmdDiag(context.Context, []string) error {
	snap := s.snapshot()
	if snap == nil || len(snap.Diagnostics) == 0 {
		s.printf("no diagnostics\n")
		return nil
	}
	s.render(snap.Diagnostics)
	return nil
}

// position resolves the leading arguments of a query command, either a line
// and column or the name of a module level declaration, and returns the
// arguments that follow.
func (s *session) position(args []string) (query.Position, []string, error) {
	if len(args) >= 2 {
		line, err1 := strconv.Atoi(args[0])
		col, err2 := strconv.Atoi(args[1])
		if err1 == nil && err2 == nil {
			return query.Position{Line: line, Col: col}, args[2:], nil
		}
	}
	if len(args) == 0 {
		return query.Position{}, nil, errUsage
	}
	snap := s.snapshot()
	if snap == nil || snap.Semantics == nil {
		return query.Position{}, nil, errUsage
	}
	sym := snap.Semantics.RootScope.LookupLocal(args[0])
	if sym == nil || sym.Decl.IsZero() {
		return query.Position{}, nil, fmt.Errorf("%s is not declared in the buffer", args[0])
	}
	return snap.PositionOf(sym.Decl.Start), args[1:], nil
}

func (s *session) cmdHover(_ context.Context, args []string) error {
	pos, rest, err := s.position(args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errUsage
	}
	info, err := s.svc.Hover(s.id, pos.Line, pos.Col)
	if err != nil {
		return err
	}
	if info == nil {
		s.printf("no symbol at %d:%d\n", pos.Line, pos.Col)
		return nil
	}
	s.printf("%s  (%s)\n", info.Summary, info.KindName)
	if info.Signature != "" && info.Signature != info.Summary {
		s.printf("  %s\n", info.Signature)
	}
	if info.Doc != "" {
		s.printf("\n%s\n", indent.String(wordwrap.String(info.Doc, max(s.cfg.width-2, 20)), 2))
	}
	return nil
}

func (s *session) cmdDef(_ context.Context, args []string) error {
	pos, rest, err := s.position(args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errUsage
	}
	loc, err := s.svc.Definition(s.id, pos.Line, pos.Col)
	if err != nil {
		return err
	}
	if loc == nil {
		s.printf("no declaration\n")
		return nil
	}
	s.printLocation(*loc)
	return nil
}

func (s *session) cmdRefs(_ context.Context, args []string) error {
	pos, rest, err := s.position(args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errUsage
	}
	locs, err := s.svc.References(s.id, pos.Line, pos.Col)
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		s.printf("no references\n")
		return nil
	}
	for _, loc := range locs {
		s.printLocation(loc)
	}
	return nil
}

func (s *session) printLocation(loc service.Location) {
	line := ""
	if snap := s.snapshot(); snap != nil {
		line = strings.TrimSpace(snap.LineText(loc.Start.Line))
	}
	s.printf("%d:%d\t%s\n", loc.Start.Line, loc.Start.Col, line)
}

func (s *session) cmdRename(ctx context.Context, args []string) error {
	pos, rest, err := s.position(args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errUsage
	}
	res, err := s.svc.Rename(s.id, pos.Line, pos.Col, rest[0])
	if err != nil {
		return err
	}
	committed, err := s.svc.Commit(ctx, s.id, res.QueryEdits())
	if err != nil {
		return err
	}
	s.id = committed.ID
	if snap := s.snapshot(); snap != nil {
		s.lines = strings.Split(strings.TrimSuffix(snap.Text, "\n"), "\n")
	}
	s.printf("renamed %d occurrences\n", len(res.Edits))
	return nil
}

func (s *session) cmdSymbols(context.Context, []string) error {
	snap := s.snapshot()
	if snap == nil {
		return nil
	}
	s.printOutline(snap, snap.DocumentSymbols(), 0)
	return nil
}

func (s *session) printOutline(snap *query.Snapshot, items []*query.OutlineItem, depth int) {
	for _, item := range items {
		pos := snap.PositionOf(item.Selection.Start)
		s.printf("%s%s %s%s\t%d:%d\n", strings.Repeat("  ", depth), item.Kind, item.Name, item.Detail, pos.Line, pos.Col)
		s.printOutline(snap, item.Children, depth+1)
	}
}

func (s *session) cmdReset(ctx context.Context, _ []string) error {
	s.svc.Close(DefaultURI)
	s.lines = nil
	s.block = nil
	_, err := s.analyze(ctx)
	return err
}
