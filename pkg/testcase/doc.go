// Package testcase runs a single declarative HTTP test.
//
// A TestCase is built from a Spec, the merged test mapping of one entry in
// a test document, and is linked to the case before it (its prior) and to
// a History shared by every case of the document. Running a case:
//
//  1. does nothing new if it has already run; its first result is
//     recorded again,
//  2. skips when the test is marked skip,
//  3. runs the unrun part of the prior chain, discarding those results,
//  4. resolves templates in the URL, query parameters, headers and body,
//  5. sends the request, retrying under a poll policy,
//  6. checks the status and runs every response handler.
//
// The outcome is one of Passed, Failed, ExpectedFailure,
// UnexpectedSuccess, Skipped or Errored. Assertion errors fail a test; any
// other error, a refused connection for example, errors it.
package testcase
