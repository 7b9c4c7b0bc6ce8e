// Package cli implements the httpseq command line.
//
//	httpseq run [target] [prefix] [-- files...]
//	httpseq handlers
//	httpseq version
//
// The target is host[:port] or a URL; a URL's path is the prefix. Without
// files a single document is read from stdin.
package cli
