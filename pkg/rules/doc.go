// Package rules maps a module path to the ordered list of stages it must
// pass through.
//
// # Pattern Conventions
//
// Test and exclude predicates accept two spellings:
//
//   - `/\.fs(x|proj)?$/` - a regular expression between slashes, matched
//     anywhere in the slash-separated absolute path (a trailing `i` makes it
//     case-insensitive)
//   - `*.sass` - a glob without a slash, matched against the file name
//   - `**/vendor/**` - a glob with a slash, matched against the full path
//
// # Rule Matching
//
// Rules are tested in configuration order and the first matching rule whose
// exclusion predicate does not match wins. Matching rules are never merged.
// A rule's exclusion is checked before its test, so a path that matches both
// is never handled by that rule.
//
// When no rule applies the module is a pass-through asset and Match returns
// an empty chain.
//
// # Execution Order
//
// Dialect and script chains execute in declaration order. Stylesheet chains
// execute in reverse declaration order, the stage closest to the source
// running first:
//
//	[[rules]]
//	test = '/\.sass$/'
//	use = ["stylesheet-injector", "stylesheet-resolver", "stylesheet-preprocessor"]
//
// runs the preprocessor, then the resolver, then the injector.
package rules
