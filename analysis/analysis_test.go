// Copyright © 2024 The Quill authors

package analysis

import (
	"strings"
	"testing"

	"github.com/luthersystems/quill/parser"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseAndAnalyze is a test helper that parses source and runs analysis.
func parseAndAnalyze(t *testing.T, source string) *Result {
	t.Helper()
	mod, errs := parser.ParseString("test.py", source)
	require.Empty(t, errs)
	result := Analyze(mod, nil)
	require.NoError(t, result.Check())
	return result
}

// findSymbol returns the first declared symbol with the given name.
func findSymbol(result *Result, name string) *Symbol {
	for _, sym := range result.Symbols {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// spanText returns the source text covered by span.
func spanText(src string, span token.Span) string {
	return src[span.Start:span.End]
}

// nameRefs scans the tree for every Name node the result resolved to sym.
func nameRefs(result *Result, sym *Symbol) []token.Span {
	var spans []token.Span
	ast.Inspect(result.Module, func(n ast.Node) bool {
		if name, ok := n.(*ast.Name); ok && result.SymbolOf(name) == sym {
			spans = append(spans, name.Src)
		}
		return true
	})
	return spans
}

// --- Scope tests ---

func TestScope_Define_Lookup(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeFunction, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	// Child can see both x and y
	assert.NotNil(t, child.Lookup("x"))
	assert.NotNil(t, child.Lookup("y"))

	// Parent can only see x
	assert.NotNil(t, parent.Lookup("x"))
	assert.Nil(t, parent.Lookup("y"))
	assert.Equal(t, []*Scope{child}, parent.Children)
}

func TestScope_LookupLocal(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeFunction, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	assert.Nil(t, child.LookupLocal("x"))
	assert.NotNil(t, child.LookupLocal("y"))
}

func TestScope_Shadowing(t *testing.T) {
	parent := NewScope(ScopeModule, nil, nil)
	child := NewScope(ScopeFunction, parent, nil)

	parentSym := &Symbol{Name: "x", Kind: SymVariable}
	childSym := &Symbol{Name: "x", Kind: SymVariable}
	parent.Define(parentSym)
	child.Define(childSym)

	assert.Same(t, childSym, child.Lookup("x"))
	assert.Same(t, parentSym, parent.Lookup("x"))
	assert.Same(t, childSym, child.Resolve("x"))
	assert.Same(t, childSym, child.Visible()[0])
	assert.Same(t, child, childSym.Scope)
}

func TestScope_ResolveSkipsClass(t *testing.T) {
	module := NewScope(ScopeModule, nil, nil)
	class := NewScope(ScopeClass, module, nil)
	method := NewScope(ScopeFunction, class, nil)

	global := &Symbol{Name: "x"}
	member := &Symbol{Name: "x"}
	module.Define(global)
	class.Define(member)

	assert.Same(t, member, class.Resolve("x"))
	assert.Same(t, global, method.Resolve("x"))
	assert.Same(t, member, method.Lookup("x"))
}

// --- Signature tests ---

func TestSignature_MinMaxArity(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMin int
		wantMax int
	}{
		{"no params", "def f(): pass", 0, 0},
		{"required", "def f(a, b): pass", 2, 2},
		{"defaults", "def f(a, b=1, c=2): pass", 1, 3},
		{"varargs", "def f(a, *rest): pass", 1, -1},
		{"kwonly", "def f(a, *, key): pass", 1, 1},
		{"varkw", "def f(**kw): pass", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseAndAnalyze(t, tt.src+"\n")
			sym := findSymbol(result, "f")
			require.NotNil(t, sym)
			assert.Equal(t, tt.wantMin, sym.Signature.MinArity())
			assert.Equal(t, tt.wantMax, sym.Signature.MaxArity())
		})
	}
	var nilSig *Signature
	assert.Equal(t, 0, nilSig.MinArity())
	assert.Equal(t, -1, nilSig.MaxArity())
}

func TestSignature_String(t *testing.T) {
	result := parseAndAnalyze(t, "def f(a, b=1, *args, c, d=2, **kw): pass\ndef g(a, *, b): pass\n")
	assert.Equal(t, "(a, b=..., *args, c, d=..., **kw)", findSymbol(result, "f").Signature.String())
	assert.Equal(t, "(a, *, b)", findSymbol(result, "g").Signature.String())
	var nilSig *Signature
	assert.Equal(t, "(...)", nilSig.String())
}

func TestSignature_CheckCall(t *testing.T) {
	result := parseAndAnalyze(t, strings.Join([]string{
		"def two(a, b): pass",
		"def opt(a, b=1): pass",
		"def one(a): pass",
		"def kw(a, *, key): pass",
		"def three(a, b, c): pass",
		"def star(*args, **kw): pass",
	}, "\n")+"\n")
	sig := func(name string) *Signature { return findSymbol(result, name).Signature }

	tests := []struct {
		fn         string
		positional int
		keywords   []string
		want       string
	}{
		{"two", 2, nil, ""},
		{"two", 1, []string{"b"}, ""},
		{"two", 1, nil, "two() missing 1 required positional argument: 'b'"},
		{"two", 0, nil, "two() missing 2 required positional arguments: 'a' and 'b'"},
		{"two", 3, nil, "two() takes 2 positional arguments but 3 were given"},
		{"one", 2, nil, "one() takes 1 positional argument but 2 were given"},
		{"opt", 3, nil, "opt() takes from 1 to 2 positional arguments but 3 were given"},
		{"two", 1, []string{"a"}, "two() got multiple values for argument 'a'"},
		{"two", 2, []string{"c"}, "two() got an unexpected keyword argument 'c'"},
		{"kw", 1, nil, "kw() missing 1 required keyword-only argument: 'key'"},
		{"kw", 1, []string{"key"}, ""},
		{"three", 0, nil, "three() missing 3 required positional arguments: 'a', 'b', and 'c'"},
		{"star", 10, []string{"anything"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sig(tt.fn).CheckCall(tt.fn, tt.positional, tt.keywords), "%s/%d/%v", tt.fn, tt.positional, tt.keywords)
	}
}

// --- Analyzer tests ---

func TestAnalyze_Kinds(t *testing.T) {
	src := strings.Join([]string{
		"import os.path",
		"from collections import OrderedDict as OD",
		"MAX_SIZE = 10",
		"count = 0",
		"def helper(x):",
		"    return x",
		"class Greeter:",
		"    greeting = 'hi'",
		"    def greet(self, name):",
		"        return name",
	}, "\n") + "\n"
	result := parseAndAnalyze(t, src)

	tests := []struct {
		name string
		kind SymbolKind
	}{
		{"os", SymModule},
		{"OD", SymModule},
		{"MAX_SIZE", SymConstant},
		{"count", SymVariable},
		{"helper", SymFunction},
		{"x", SymParameter},
		{"Greeter", SymClass},
		{"greeting", SymVariable},
		{"greet", SymMethod},
		{"self", SymParameter},
		{"name", SymParameter},
	}
	for _, tt := range tests {
		sym := findSymbol(result, tt.name)
		if assert.NotNil(t, sym, tt.name) {
			assert.Equal(t, tt.kind, sym.Kind, tt.name)
			assert.Equal(t, tt.name, spanText(src, sym.Decl))
		}
	}
	assert.Nil(t, result.RootScope.LookupLocal("greet"))
	greeter := findSymbol(result, "Greeter")
	require.NotNil(t, greeter.Members)
	assert.NotNil(t, greeter.Members.LookupLocal("greet"))
	assert.Empty(t, result.Unresolved)
}

func TestAnalyze_ResolvesReferences(t *testing.T) {
	src := "def takes_two(a, b):\n    return a+b\n\ntakes_two(1, 2)\ntakes_two(3, 4)\n"
	result := parseAndAnalyze(t, src)

	fn := findSymbol(result, "takes_two")
	require.NotNil(t, fn)
	assert.Len(t, fn.Refs, 2)
	for _, span := range fn.Refs {
		assert.Equal(t, "takes_two", spanText(src, span))
	}
	assert.Len(t, fn.Occurrences(), 3)
	assert.Equal(t, fn.Decl, fn.Occurrences()[0])

	a := findSymbol(result, "a")
	require.NotNil(t, a)
	assert.Len(t, a.Refs, 1)
	assert.Equal(t, 2, a.Refs[0].Line)
}

func TestAnalyze_ReferencesMatchTree(t *testing.T) {
	src := strings.Join([]string{
		"import os",
		"LIMIT = 3",
		"def walk(root, depth=LIMIT):",
		"    total = 0",
		"    for entry in os.listdir(root):",
		"        total += depth",
		"        items = [entry for entry in root if entry]",
		"    return total, items",
		"class Node:",
		"    def __init__(self, value):",
		"        self.value = value",
		"    def walk(self):",
		"        return walk(self.value)",
		"n = Node(1)",
		"print(n.walk(), walk('.', LIMIT))",
	}, "\n") + "\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	for _, sym := range result.Symbols {
		var want []token.Span
		if _, ok := sym.Node.(*ast.Name); ok {
			want = append(want, sym.Decl)
		}
		for _, span := range nameRefs(result, sym) {
			if span != sym.Decl {
				want = append(want, span)
			}
		}
		got := sym.Occurrences()
		for _, span := range want {
			assert.Contains(t, got, span, "%s %s", sym.Kind, sym.Name)
		}
		assert.Contains(t, got, sym.Decl)
	}
}

func TestAnalyze_Redefinition(t *testing.T) {
	src := "def f(): pass\nf()\ndef f(): pass\nf()\n"
	result := parseAndAnalyze(t, src)

	require.Len(t, result.Redefinitions, 1)
	redef := result.Redefinitions[0]
	assert.Equal(t, 1, redef.Previous.Line)
	assert.Equal(t, 3, redef.Span.Line)

	sym := findSymbol(result, "f")
	require.NotNil(t, sym)
	assert.Same(t, sym, redef.Symbol)
	assert.Equal(t, 3, sym.Decl.Line)
	assert.Len(t, sym.Occurrences(), 4)
	assert.Len(t, result.Symbols, 1)
}

func TestAnalyze_VariableThenDefIsNotRedefinition(t *testing.T) {
	result := parseAndAnalyze(t, "f = None\ndef f(): pass\n")
	assert.Empty(t, result.Redefinitions)
	sym := findSymbol(result, "f")
	assert.Equal(t, SymFunction, sym.Kind)
	assert.Equal(t, 2, sym.Decl.Line)
}

func TestAnalyze_ReassignmentIsWrite(t *testing.T) {
	src := "x = 1\nx = 2\nprint(x)\n"
	result := parseAndAnalyze(t, src)
	sym := findSymbol(result, "x")
	require.NotNil(t, sym)
	assert.Equal(t, 1, sym.Decl.Line)
	require.Len(t, sym.Refs, 2)

	var writes, reads int
	for _, ref := range result.References {
		if ref.Symbol != sym {
			continue
		}
		if ref.Write {
			writes++
		} else {
			reads++
		}
	}
	assert.Equal(t, 1, writes)
	assert.Equal(t, 1, reads)
}

func TestAnalyze_AugmentedAssignmentReadsAndWrites(t *testing.T) {
	result := parseAndAnalyze(t, "n = 0\nn += 1\n")
	sym := findSymbol(result, "n")
	require.NotNil(t, sym)
	require.Len(t, sym.Refs, 1)
	var ref *Reference
	for _, r := range result.References {
		if r.Symbol == sym {
			ref = r
		}
	}
	require.NotNil(t, ref)
	assert.True(t, ref.Write)
	assert.True(t, ref.Read)
	assert.Same(t, result.RootScope, ref.Scope)
}

func TestAnalyze_ReferenceScope(t *testing.T) {
	src := "x = 1\ndef f(a=x):\n    return x\n"
	result := parseAndAnalyze(t, src)
	x := findSymbol(result, "x")
	var scopes []ScopeKind
	for _, ref := range result.References {
		if ref.Symbol == x {
			scopes = append(scopes, ref.Scope.Kind)
		}
	}
	assert.Equal(t, []ScopeKind{ScopeModule, ScopeFunction}, scopes, "defaults resolve in the enclosing scope")
}

func TestAnalyze_KeywordArguments(t *testing.T) {
	src := strings.Join([]string{
		"def g(a, *, b=1, **rest):",
		"    return a + b",
		"class P:",
		"    def __init__(self, size):",
		"        self.size = size",
		"g(a=1, b=2, rest=3)",
		"P(size=4)",
		"print(a=5)",
	}, "\n") + "\n"
	result := parseAndAnalyze(t, src)

	a := findSymbol(result, "a")
	require.Len(t, a.Keywords, 1)
	assert.Equal(t, 6, a.Keywords[0].Line)
	assert.Equal(t, "a", spanText(src, a.Keywords[0]))
	assert.Len(t, findSymbol(result, "b").Keywords, 1)
	assert.Empty(t, findSymbol(result, "rest").Keywords, "**rest does not bind rest=")

	size := findSymbol(result, "size")
	require.Len(t, size.Keywords, 1)
	assert.Equal(t, 7, size.Keywords[0].Line)
	assert.Len(t, size.Occurrences(), 3)
	assert.Len(t, size.Refs, 1, "keywords are not references")
}

func TestAnalyze_Unresolved(t *testing.T) {
	src := "x = undefined_name + 1\n"
	result := parseAndAnalyze(t, src)
	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, "undefined_name", result.Unresolved[0].Name)
	assert.Equal(t, "undefined_name", spanText(src, result.Unresolved[0].Span))
	assert.Nil(t, findSymbol(result, "undefined_name"))
}

func TestAnalyze_Builtins(t *testing.T) {
	result := parseAndAnalyze(t, "print(len([]), __name__)\n")
	assert.Empty(t, result.Unresolved)
	assert.Empty(t, result.Symbols)
	require.Len(t, result.References, 3)
	assert.Equal(t, SymBuiltin, result.References[0].Symbol.Kind)
	assert.NotEmpty(t, result.References[0].Symbol.Doc)
	assert.Len(t, result.Occurrences(), 3)
}

func TestAnalyze_ExtraGlobals(t *testing.T) {
	mod, errs := parser.ParseString("test.py", "host_call(1)\n")
	require.Empty(t, errs)
	result := Analyze(mod, &Config{ExtraGlobals: []ExternalSymbol{{Name: "host_call", Doc: "Provided by the host."}}})
	assert.Empty(t, result.Unresolved)
	sym := result.Builtins.LookupLocal("host_call")
	require.NotNil(t, sym)
	assert.Equal(t, "Provided by the host.", sym.Doc)
}

func TestAnalyze_ClassScopeNotVisibleFromMethods(t *testing.T) {
	src := "class A:\n    size = 1\n    def get(self):\n        return size\n"
	result := parseAndAnalyze(t, src)
	require.Len(t, result.Unresolved, 1)
	assert.Equal(t, "size", result.Unresolved[0].Name)
	assert.Equal(t, 4, result.Unresolved[0].Span.Line)
}

func TestAnalyze_Global(t *testing.T) {
	src := "counter = 0\ndef bump():\n    global counter\n    counter = counter + 1\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	counters := 0
	for _, sym := range result.Symbols {
		if sym.Name == "counter" {
			counters++
			assert.Equal(t, ScopeModule, sym.Scope.Kind)
			assert.Len(t, sym.Refs, 3)
		}
	}
	assert.Equal(t, 1, counters)
}

func TestAnalyze_Nonlocal(t *testing.T) {
	src := "def outer():\n    n = 0\n    def inner():\n        nonlocal n\n        n = 1\n    return inner\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	n := findSymbol(result, "n")
	require.NotNil(t, n)
	assert.Equal(t, ScopeFunction, n.Scope.Kind)
	assert.Len(t, n.Refs, 2)
	for _, sym := range result.Symbols {
		if sym.Name == "n" {
			assert.Same(t, n, sym)
		}
	}
}

func TestAnalyze_Comprehension(t *testing.T) {
	src := "items = [1, 2]\nsquares = [v * v for v in items if v]\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	v := findSymbol(result, "v")
	require.NotNil(t, v)
	assert.Equal(t, ScopeComprehension, v.Scope.Kind)
	assert.Len(t, v.Refs, 3)
	assert.Nil(t, result.RootScope.LookupLocal("v"))
}

func TestAnalyze_Lambda(t *testing.T) {
	src := "scale = 2\nf = lambda x, k=scale: x * k\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	x := findSymbol(result, "x")
	require.NotNil(t, x)
	assert.Equal(t, ScopeLambda, x.Scope.Kind)
	assert.Len(t, findSymbol(result, "scale").Refs, 1)
}

func TestAnalyze_Walrus(t *testing.T) {
	src := "def f(data):\n    if (n := len(data)) > 1:\n        return n\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	n := findSymbol(result, "n")
	require.NotNil(t, n)
	assert.Equal(t, ScopeFunction, n.Scope.Kind)
	assert.Len(t, n.Refs, 1)
}

func TestAnalyze_ForwardReferenceInFunction(t *testing.T) {
	src := "def first():\n    return second()\ndef second():\n    return 1\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	assert.Len(t, findSymbol(result, "second").Refs, 1)
}

func TestAnalyze_AttributeResolvesReceiverOnly(t *testing.T) {
	src := "import os\nos.path.join('a')\n"
	result := parseAndAnalyze(t, src)
	assert.Empty(t, result.Unresolved)
	os := findSymbol(result, "os")
	require.Len(t, os.Refs, 1)
	assert.Equal(t, "os", spanText(src, os.Refs[0]))
}

func TestAnalyze_ClassSignature(t *testing.T) {
	src := strings.Join([]string{
		"class Point:",
		"    def __init__(self, x, y=0):",
		"        self.x = x",
		"class Empty:",
		"    pass",
		"class Derived(Point):",
		"    pass",
	}, "\n") + "\n"
	result := parseAndAnalyze(t, src)
	assert.Equal(t, "(x, y=...)", findSymbol(result, "Point").Signature.String())
	assert.Equal(t, 0, findSymbol(result, "Empty").Signature.MaxArity())
	assert.Nil(t, findSymbol(result, "Derived").Signature)
}

func TestAnalyze_DocAndHeader(t *testing.T) {
	src := "def greet(name: str) -> str:\n    \"\"\"Say hello.\"\"\"\n    return name\n"
	result := parseAndAnalyze(t, src)
	sym := findSymbol(result, "greet")
	require.NotNil(t, sym)
	assert.Equal(t, "Say hello.", sym.Doc)
	assert.Equal(t, "def greet(name: str) -> str", spanText(src, sym.Header))
}

func TestAnalyze_ScopeAt(t *testing.T) {
	src := "x = 1\ndef f(a):\n    return a\n"
	result := parseAndAnalyze(t, src)
	assert.Equal(t, ScopeModule, result.ScopeAt(0).Kind)
	assert.Equal(t, ScopeFunction, result.ScopeAt(strings.Index(src, "return")).Kind)
}

func TestAnalyze_ToleratesSyntaxErrors(t *testing.T) {
	mod, errs := parser.ParseString("test.py", "def ok(a):\n    return a\nx = = 1\ny = ok(2)\n")
	require.NotEmpty(t, errs)
	result := Analyze(mod, nil)
	require.NoError(t, result.Check())
	assert.NotNil(t, findSymbol(result, "ok"))
	assert.NotNil(t, findSymbol(result, "y"))
}

func TestResult_CheckDetectsInconsistency(t *testing.T) {
	result := parseAndAnalyze(t, "def f(a):\n    return a\n")
	a := findSymbol(result, "a")
	a.Refs = append(a.Refs, token.Span{Start: 100, End: 101, Line: 9, Col: 1, EndLine: 9, EndCol: 2})
	assert.ErrorIs(t, result.Check(), ErrInconsistent)
}

func TestIsConstantName(t *testing.T) {
	assert.True(t, isConstantName("MAX"))
	assert.True(t, isConstantName("MAX_SIZE_2"))
	assert.False(t, isConstantName("Max"))
	assert.False(t, isConstantName("_"))
	assert.False(t, isConstantName("__ALL__"))
}
