// Package template resolves the $TOKEN references that let one test in a
// sequence use data produced by earlier tests.
//
// # Tokens
//
// Tokens about the current request:
//   - $SCHEME - scheme of the current request (http or https)
//   - $NETLOC - host[:port] of the current request plus the mount prefix
//
// Environment:
//   - $ENVIRON['NAME'] - process environment variable. "true"/"false"
//     become booleans, "null" becomes nil, numbers become int or float64.
//
// Tokens about the prior test, or a named test with a $HISTORY prefix:
//   - $LOCATION - Location response header
//   - $URL - request URL (before query parameters were added)
//   - $LAST_URL - request URL of the prior test; never qualified
//   - $HEADERS['name'] - response header, case-insensitive
//   - $COOKIE - Set-Cookie values reduced to name=value pairs
//   - $RESPONSE['path'] - value at path in the decoded response body
//
// # History
//
// Prefixing a token with $HISTORY["test name"]. resolves it against that
// test instead of the immediately prior one:
//
//	$HISTORY['create widget'].$RESPONSE['$.id']
//
// # Usage
//
//	engine := template.New()
//	v, err := engine.Resolve("$SCHEME://$NETLOC/items/$RESPONSE['$.id']", ctx)
//
// Unresolvable tokens produce an *Error, which is an assertion failure
// (see package failure).
package template
