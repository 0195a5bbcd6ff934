// Copyright © 2024 The Quill authors

package lint

import "strings"

// builtinMethods lists the public attributes of the builtin types whose
// literals the unknown-attribute check recognizes.
var builtinMethods = map[string]map[string]bool{
	"str": set(`capitalize casefold center count encode endswith expandtabs find
		format format_map index isalnum isalpha isascii isdecimal isdigit
		isidentifier islower isnumeric isprintable isspace istitle isupper join
		ljust lower lstrip maketrans partition removeprefix removesuffix replace
		rfind rindex rjust rpartition rsplit rstrip split splitlines startswith
		strip swapcase title translate upper zfill`),
	"bytes": set(`capitalize center count decode endswith expandtabs find fromhex
		hex index isalnum isalpha isascii isdigit islower isspace istitle isupper
		join ljust lower lstrip maketrans partition removeprefix removesuffix
		replace rfind rindex rjust rpartition rsplit rstrip split splitlines
		startswith strip swapcase title translate upper zfill`),
	"list": set(`append clear copy count extend index insert pop remove reverse
		sort`),
	"tuple": set(`count index`),
	"dict": set(`clear copy fromkeys get items keys pop popitem setdefault update
		values`),
	"set": set(`add clear copy difference difference_update discard intersection
		intersection_update isdisjoint issubset issuperset pop remove
		symmetric_difference symmetric_difference_update union update`),
}

func set(names string) map[string]bool {
	m := make(map[string]bool)
	for _, name := range strings.Fields(names) {
		m[name] = true
	}
	return m
}
