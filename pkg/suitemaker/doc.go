// Package suitemaker turns parsed test documents into runnable suites.
//
// Every test in a document starts from the same canonical defaults: the
// base test keys, the defaults of each registered response handler and the
// document's own defaults section. Each test entry is overlaid on a copy of
// those defaults (see Merge), named, checked for a "METHOD: url" shortcut
// and validated against the canonical key set. All of this happens before
// any request is sent, so a malformed document never partially runs.
//
// Cases are chained in file order: each one's prior is the case before it
// and all of them share one History, so $HISTORY references can name any
// test in the document.
package suitemaker
