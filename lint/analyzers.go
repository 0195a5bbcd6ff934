// Copyright © 2024 The Quill authors

package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// AnalyzerSyntaxError reports the errors the parser recovered from.
var AnalyzerSyntaxError = &Analyzer{
	Name:     "syntax-error",
	Doc:      "Report syntax errors.\n\nThe parser recovers from an error at the next statement boundary, so every malformed statement is reported while the rest of the file is still checked.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, err := range pass.SyntaxErrors {
			pass.Reportf(err.Span, "%s", err.Msg)
		}
		return nil
	},
}

// AnalyzerUndefinedName reports names that resolve in no enclosing scope.
var AnalyzerUndefinedName = &Analyzer{
	Name:     "undefined-name",
	Doc:      "Report uses of names that are never defined.\n\nA name must be bound in an enclosing function, the module or the builtins. Names in class bodies are not visible from methods. When the module uses a star import the finding is downgraded to a warning since the import may provide the name.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		stars := starImports(pass.Module)
		for _, ref := range pass.Semantics.Unresolved {
			if len(stars) > 0 {
				pass.Report(Diagnostic{
					Span:     ref.Span,
					Severity: SeverityWarning,
					Message: fmt.Sprintf("'%s' may be undefined, or defined from star imports: %s",
						ref.Name, strings.Join(stars, ", ")),
				})
				continue
			}
			pass.Reportf(ref.Span, "undefined name '%s'", ref.Name)
		}
		return nil
	},
}

func starImports(mod *ast.Module) []string {
	var mods []string
	ast.Inspect(mod, func(n ast.Node) bool {
		if imp, ok := n.(*ast.ImportFrom); ok && imp.Star {
			mods = append(mods, strings.Repeat(".", imp.Level)+imp.Module)
		}
		return true
	})
	return mods
}

// AnalyzerArityMismatch checks argument counts for calls to functions and
// classes defined in the file.
var AnalyzerArityMismatch = &Analyzer{
	Name:     "arity-mismatch",
	Doc:      "Check argument counts of calls to known functions and classes.\n\nA call is checked when its callee is a plain name resolving to a def or class statement that is never rebound by assignment. Classes are checked against their __init__ method. Calls unpacking *args or **kwargs and calls to decorated definitions are skipped.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		rebound := reboundSymbols(pass.Semantics)
		WalkCalls(pass.Module, func(call *ast.Call) {
			name := CalleeName(call)
			if name == nil {
				return
			}
			sym := pass.Semantics.SymbolOf(name)
			if sym == nil || sym.Signature == nil || rebound[sym] || decorated(sym) {
				return
			}
			switch sym.Kind {
			case analysis.SymFunction, analysis.SymClass, analysis.SymBuiltin:
			default:
				return
			}
			positional, keywords, unpacked := CallArgs(call)
			if unpacked {
				return
			}
			msg := sym.Signature.CheckCall(sym.Name, positional, keywords)
			if msg == "" {
				return
			}
			d := Diagnostic{Span: call.Src, Message: msg}
			if sym.Kind == analysis.SymBuiltin {
				pass.Report(d)
				return
			}
			pass.ReportWithNotes(d, fmt.Sprintf("%s '%s%s' is defined at line %d",
				sym.Kind, sym.Name, sym.Signature, sym.Decl.Line))
		})
		return nil
	},
}

// reboundSymbols returns the symbols assigned to by a name binding, which
// makes their value at a call site unknown.
func reboundSymbols(result *analysis.Result) map[*analysis.Symbol]bool {
	rebound := make(map[*analysis.Symbol]bool)
	for _, ref := range result.References {
		if _, ok := ref.Node.(*ast.Name); ok && ref.Write {
			rebound[ref.Symbol] = true
		}
	}
	return rebound
}

func decorated(sym *analysis.Symbol) bool {
	switch n := sym.Node.(type) {
	case *ast.FunctionDef:
		return len(n.Decorators) > 0
	case *ast.ClassDef:
		return len(n.Decorators) > 0
	}
	return false
}

// AnalyzerUnusedVariable reports variables and parameters that are never
// referenced after their declaration.
var AnalyzerUnusedVariable = &Analyzer{
	Name:     "unused-variable",
	Doc:      "Report variables and parameters that are never referenced.\n\nA binding counts as used when any occurrence other than its declaration refers to it, including a later assignment. Names starting with an underscore, constants, class attributes, self and cls, and the parameters of stub functions are exempt.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		interpolated := fstringSymbols(pass.Module, pass.Semantics)
		for _, sym := range pass.Semantics.Symbols {
			if len(sym.Refs) > 0 || interpolated[sym] || exemptFromUnused(sym) {
				continue
			}
			switch sym.Kind {
			case analysis.SymVariable:
				if sym.Scope.Kind == analysis.ScopeModule {
					pass.Reportf(sym.Decl, "variable '%s' is assigned to but never used", sym.Name)
				} else {
					pass.Reportf(sym.Decl, "local variable '%s' is assigned to but never used", sym.Name)
				}
			case analysis.SymParameter:
				pass.Reportf(sym.Decl, "parameter '%s' is never used", sym.Name)
			}
		}
		return nil
	},
}

func exemptFromUnused(sym *analysis.Symbol) bool {
	if strings.HasPrefix(sym.Name, "_") || sym.Name == "self" || sym.Name == "cls" {
		return true
	}
	switch sym.Scope.Kind {
	case analysis.ScopeClass, analysis.ScopeComprehension:
		return true
	}
	if sym.Kind == analysis.SymParameter {
		if fn, ok := sym.Scope.Node.(*ast.FunctionDef); ok && isStub(fn) {
			return true
		}
	}
	return false
}

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// fstringSymbols returns the symbols named in f-string replacement fields,
// resolved from the scope enclosing each literal.  The lexer keeps f-strings
// opaque, so these uses are not among the references.
func fstringSymbols(mod *ast.Module, result *analysis.Result) map[*analysis.Symbol]bool {
	syms := make(map[*analysis.Symbol]bool)
	ast.Inspect(mod, func(n ast.Node) bool {
		lit, ok := n.(*ast.Literal)
		if !ok || lit.Kind != ast.LitString || !isFString(lit.Value) {
			return true
		}
		scope := result.ScopeAt(lit.Src.Start)
		for _, name := range fstringNames(lit.Value) {
			if sym := scope.Resolve(name); sym != nil {
				syms[sym] = true
			}
		}
		return true
	})
	return syms
}

// fstringNames returns the identifiers in the replacement fields of an
// f-string literal.
func fstringNames(raw string) []string {
	var names []string
	body := strings.ReplaceAll(strings.ReplaceAll(raw, "{{", ""), "}}", "")
	for {
		open := strings.IndexByte(body, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(body[open:], '}')
		if end < 0 {
			break
		}
		names = append(names, identPattern.FindAllString(body[open+1:open+end], -1)...)
		body = body[open+end:]
	}
	return names
}

func isFString(raw string) bool {
	for _, c := range raw {
		switch c {
		case 'f', 'F':
			return true
		case '\'', '"':
			return false
		}
	}
	return false
}

// isStub reports whether a function body only holds a docstring, pass,
// an ellipsis or a raise statement.
func isStub(fn *ast.FunctionDef) bool {
	if fn.Body == nil {
		return true
	}
	for _, stmt := range fn.Body.Stmts {
		switch s := stmt.(type) {
		case *ast.KeywordStmt:
			if s.Keyword != "pass" {
				return false
			}
		case *ast.Raise:
		case *ast.ExprStmt:
			lit, ok := s.X.(*ast.Literal)
			if !ok || (lit.Kind != ast.LitString && lit.Kind != ast.LitEllipsis) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// AnalyzerRedefinition reports a def or class statement that replaces an
// earlier def or class of the same name in the same scope.
var AnalyzerRedefinition = &Analyzer{
	Name:     "redefinition",
	Doc:      "Report functions and classes defined twice in the same scope.\n\nThe later definition replaces the earlier one, which is usually a copy and paste mistake.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		for _, redef := range pass.Semantics.Redefinitions {
			pass.ReportWithNotes(Diagnostic{
				Span:    redef.Span,
				Message: fmt.Sprintf("redefinition of '%s' from line %d", redef.Symbol.Name, redef.Previous.Line),
			}, fmt.Sprintf("'%s' was first defined at line %d", redef.Symbol.Name, redef.Previous.Line))
		}
		return nil
	},
}

// AnalyzerInvalidImport reports imports of modules missing from the host
// supplied allow-list.
var AnalyzerInvalidImport = &Analyzer{
	Name:     "invalid-import",
	Doc:      "Report imports of modules that are not in the allowed import list.\n\nA module is allowed when it or one of its parent packages is listed. Relative imports are always allowed. The check is disabled when no list is configured.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.AllowedImports == nil {
			return nil
		}
		allowed := make(map[string]bool, len(pass.AllowedImports))
		for _, name := range pass.AllowedImports {
			allowed[name] = true
		}
		check := func(module string, span token.Span) {
			if module == "" || importAllowed(module, allowed) {
				return
			}
			pass.Reportf(span, "module '%s' is not in the allowed import list", module)
		}
		for _, stmt := range importStmts(pass.Module) {
			switch s := stmt.(type) {
			case *ast.Import:
				for _, alias := range s.Names {
					check(alias.Name, alias.NameSpan)
				}
			case *ast.ImportFrom:
				if s.Level == 0 {
					check(s.Module, s.ModuleSpan)
				}
			}
		}
		return nil
	},
}

func importStmts(mod *ast.Module) []ast.Stmt {
	var stmts []ast.Stmt
	ast.Inspect(mod, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.Import:
			stmts = append(stmts, s)
		case *ast.ImportFrom:
			stmts = append(stmts, s)
		}
		return true
	})
	return stmts
}

func importAllowed(module string, allowed map[string]bool) bool {
	for name := module; ; {
		if allowed[name] {
			return true
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return false
		}
		name = name[:i]
	}
}

// AnalyzerUnknownAttribute reports attribute accesses on literal values of
// builtin types that do not have that attribute.
var AnalyzerUnknownAttribute = &Analyzer{
	Name:     "unknown-attribute",
	Doc:      "Report unknown attributes of str, bytes, list, tuple, dict and set values.\n\nOnly fixed patterns are checked: a literal receiver, or a name bound exactly once to a literal. No type inference is attempted.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		values := literalBindings(pass)
		ast.Inspect(pass.Module, func(n ast.Node) bool {
			attr, ok := n.(*ast.Attribute)
			if !ok || attr.Attr == "" || strings.HasPrefix(attr.Attr, "__") {
				return true
			}
			typ := LiteralType(attr.X)
			if name, ok := attr.X.(*ast.Name); ok && typ == "" {
				typ = values[name]
			}
			methods, ok := builtinMethods[typ]
			if !ok || methods[attr.Attr] {
				return true
			}
			d := Diagnostic{
				Span:    attr.AttrSpan,
				Message: fmt.Sprintf("'%s' object has no attribute '%s'", typ, attr.Attr),
			}
			if hint := closestMethod(attr.Attr, methods); hint != "" {
				pass.ReportWithNotes(d, fmt.Sprintf("did you mean '%s'?", hint))
			} else {
				pass.Report(d)
			}
			return true
		})
		return nil
	},
}

// literalBindings maps name uses to the builtin type of the literal their
// symbol was bound to, for symbols bound exactly once.
func literalBindings(pass *Pass) map[*ast.Name]string {
	uses := make(map[*ast.Name]string)
	if pass.Semantics == nil {
		return uses
	}
	declared := make(map[*ast.Name]string)
	ast.Inspect(pass.Module, func(n ast.Node) bool {
		assign, ok := n.(*ast.Assign)
		if !ok || assign.Augmented() || len(assign.Targets) != 1 {
			return true
		}
		if name, ok := assign.Targets[0].(*ast.Name); ok {
			if typ := LiteralType(assign.Value); typ != "" {
				declared[name] = typ
			}
		}
		return true
	})
	rebound := reboundSymbols(pass.Semantics)
	for _, ref := range pass.Semantics.References {
		name, ok := ref.Node.(*ast.Name)
		if !ok || ref.Write || rebound[ref.Symbol] {
			continue
		}
		decl, ok := ref.Symbol.Node.(*ast.Name)
		if !ok {
			continue
		}
		if typ := declared[decl]; typ != "" {
			uses[name] = typ
		}
	}
	return uses
}

// closestMethod suggests a method whose name differs from attr by at most
// two edits.
func closestMethod(attr string, methods map[string]bool) string {
	best, bestDist := "", 3
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if d := editDistance(attr, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// AnalyzerInvalidOperand reports arithmetic between literals of types that
// do not support the operator.
var AnalyzerInvalidOperand = &Analyzer{
	Name:     "invalid-operand",
	Doc:      "Report arithmetic on literal operands of incompatible types.\n\nOnly expressions whose operands are both literals are checked, such as \"text\" + 42.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		ast.Inspect(pass.Module, func(n ast.Node) bool {
			op, ok := n.(*ast.BinaryOp)
			if !ok || !arithmeticOps[op.Op] {
				return true
			}
			left, right := LiteralType(op.X), LiteralType(op.Y)
			if left == "" || right == "" || operandsCompatible(op.Op, left, right) {
				return true
			}
			pass.Reportf(op.Src, "unsupported operand type(s) for %s: '%s' and '%s'", op.Op, left, right)
			return true
		})
		return nil
	},
}

var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true, "**": true,
}

func isNumeric(typ string) bool {
	return typ == "int" || typ == "float" || typ == "complex" || typ == "bool"
}

func isSequence(typ string) bool {
	return typ == "str" || typ == "bytes" || typ == "list" || typ == "tuple"
}

func operandsCompatible(op, left, right string) bool {
	switch {
	case isNumeric(left) && isNumeric(right):
		return true
	case op == "+":
		return left == right && isSequence(left)
	case op == "*":
		return (isSequence(left) && (right == "int" || right == "bool")) ||
			(isSequence(right) && (left == "int" || left == "bool"))
	case op == "%":
		return left == "str" || left == "bytes"
	}
	return false
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
