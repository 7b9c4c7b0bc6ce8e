// Package httpclient executes the HTTP requests of a test case.
//
// A Client sends one request at a time, either over the network or to an
// in-process http.Handler (intercept mode), and returns the response with
// normalized headers: lower-case names plus the synthetic "status" and
// "reason" entries that assertions and templates refer to.
//
// Redirect following, TLS certificate validation and the timeout are request
// properties. They are applied afresh on every call so one test never leaks
// its settings into the next.
package httpclient
