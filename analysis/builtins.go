// Copyright © 2024 The Quill authors

package analysis

import "sort"

// builtinDocs maps every predefined name to a one line description.
var builtinDocs = map[string]string{
	"__doc__":             "The module docstring.",
	"__file__":            "The path of the current module.",
	"__name__":            "The name of the current module.",
	"abs":                 "Return the absolute value of a number.",
	"all":                 "Return True if every element of the iterable is true.",
	"any":                 "Return True if any element of the iterable is true.",
	"bin":                 "Return the binary representation of an integer.",
	"bool":                "Convert a value to a Boolean.",
	"bytearray":           "Return a new mutable array of bytes.",
	"bytes":               "Return a new immutable bytes object.",
	"callable":            "Return whether the object is callable.",
	"chr":                 "Return the string for a Unicode code point.",
	"classmethod":         "Convert a function to be a class method.",
	"delattr":             "Delete the named attribute from an object.",
	"dict":                "Create a new dictionary.",
	"dir":                 "List the names in the current scope or of an object.",
	"divmod":              "Return the quotient and remainder of a division.",
	"enumerate":           "Return an enumerate object yielding (index, value) pairs.",
	"filter":              "Return the items of an iterable for which a function is true.",
	"float":               "Convert a string or number to a floating point number.",
	"format":              "Return value formatted according to a format spec.",
	"frozenset":           "Return a new immutable set.",
	"getattr":             "Get a named attribute from an object.",
	"globals":             "Return the dictionary of the module namespace.",
	"hasattr":             "Return whether the object has an attribute with the given name.",
	"hash":                "Return the hash value of an object.",
	"hex":                 "Return the hexadecimal representation of an integer.",
	"id":                  "Return the identity of an object.",
	"input":               "Read a line from standard input.",
	"int":                 "Convert a number or string to an integer.",
	"isinstance":          "Return whether an object is an instance of a class.",
	"issubclass":          "Return whether a class is derived from another class.",
	"iter":                "Return an iterator for an object.",
	"len":                 "Return the number of items in a container.",
	"list":                "Create a new list.",
	"locals":              "Return a dictionary of the current local names.",
	"map":                 "Apply a function to every item of an iterable.",
	"max":                 "Return the largest item.",
	"min":                 "Return the smallest item.",
	"next":                "Retrieve the next item from an iterator.",
	"object":              "The base class of all classes.",
	"oct":                 "Return the octal representation of an integer.",
	"open":                "Open a file and return a file object.",
	"ord":                 "Return the Unicode code point of a one character string.",
	"pow":                 "Return base to the power exp.",
	"print":               "Print values to a stream, or to standard output by default.",
	"property":            "Return a property attribute.",
	"range":               "Return an immutable sequence of integers.",
	"repr":                "Return the canonical string representation of an object.",
	"reversed":            "Return a reverse iterator over a sequence.",
	"round":               "Round a number to a given precision.",
	"set":                 "Create a new set.",
	"setattr":             "Set a named attribute on an object.",
	"slice":               "Return a slice object.",
	"sorted":              "Return a new sorted list from the items of an iterable.",
	"staticmethod":        "Convert a function to be a static method.",
	"str":                 "Return a string version of an object.",
	"sum":                 "Return the sum of a start value and an iterable of numbers.",
	"super":               "Return a proxy object that delegates to a parent class.",
	"tuple":               "Create a new tuple.",
	"type":                "Return the type of an object.",
	"vars":                "Return the __dict__ attribute of an object.",
	"zip":                 "Iterate over several iterables in parallel.",
	"ArithmeticError":     "Base class for arithmetic errors.",
	"AssertionError":      "Raised when an assert statement fails.",
	"AttributeError":      "Raised when an attribute reference or assignment fails.",
	"BaseException":       "The base class of all exceptions.",
	"Exception":           "The base class of all non-exit exceptions.",
	"FileNotFoundError":   "Raised when a file or directory does not exist.",
	"ImportError":         "Raised when an import fails.",
	"IndexError":          "Raised when a sequence subscript is out of range.",
	"KeyError":            "Raised when a mapping key is not found.",
	"KeyboardInterrupt":   "Raised when the user interrupts the program.",
	"LookupError":         "Base class for lookup errors.",
	"NameError":           "Raised when a name is not found.",
	"NotImplemented":      "Returned by binary methods for unsupported operand types.",
	"NotImplementedError": "Raised by abstract methods.",
	"OSError":             "Raised for system errors.",
	"RuntimeError":        "Raised for errors that fit no other category.",
	"StopIteration":       "Raised by next() when an iterator is exhausted.",
	"TypeError":           "Raised when an operation is applied to an object of the wrong type.",
	"ValueError":          "Raised when an argument has the right type but a wrong value.",
	"ZeroDivisionError":   "Raised when dividing by zero.",
}

// BuiltinNames returns the predefined names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinDocs))
	for name := range builtinDocs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// populateBuiltins adds every predefined name and any host supplied globals
// to the given scope.
func populateBuiltins(scope *Scope, extra []ExternalSymbol) {
	for name, doc := range builtinDocs {
		scope.Define(&Symbol{
			Name: name,
			Kind: SymBuiltin,
			Doc:  doc,
		})
	}
	for _, ext := range extra {
		scope.Define(&Symbol{
			Name:      ext.Name,
			Kind:      SymBuiltin,
			Doc:       ext.Doc,
			Signature: ext.Signature,
		})
	}
}
