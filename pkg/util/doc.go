// Package util provides small helpers shared by the httpseq packages:
// bounded failure output and test-directory relative file access.
package util
