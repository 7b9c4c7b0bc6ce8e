// Package runner runs test documents from files or a reader against one
// target and reports the results.
//
// Each document is its own suite. Run-wide options such as --ssl,
// --verbose and --insecure are written into every document's defaults
// before it is built, so they apply to every test while a document can
// still override them per test.
//
// The Reporter prints one line per test:
//
//	... ✓ widgets_create_widget: makes a cow
//	... ✗ widgets_list
//	... E widgets_delete
//	... - widgets_skipped
//	... o widgets_known_bug
//	... ! widgets_fixed_bug
//
// followed by the failure and error details and a summary.
package runner
