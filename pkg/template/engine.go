package template

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/httpseq/internal/matching"
)

// Token names a substitution. The text form in a message is "$" + Token.
type Token string

// Tokens in the order they are applied to a message.
const (
	TokenScheme   Token = "SCHEME"
	TokenNetloc   Token = "NETLOC"
	TokenEnviron  Token = "ENVIRON"
	TokenLocation Token = "LOCATION"
	TokenCookie   Token = "COOKIE"
	TokenLastURL  Token = "LAST_URL"
	TokenURL      Token = "URL"
	TokenHeaders  Token = "HEADERS"
	TokenResponse Token = "RESPONSE"
)

// Order lists the tokens in application order.
var Order = []Token{
	TokenScheme,
	TokenNetloc,
	TokenEnviron,
	TokenLocation,
	TokenCookie,
	TokenLastURL,
	TokenURL,
	TokenHeaders,
	TokenResponse,
}

// historyPrefix matches an optional $HISTORY["name"]. qualifier. RE2 has no
// backreferences, so each quote style is its own alternative.
const historyPrefix = `(?:\$HISTORY\[(?:'([^']+?)'|"([^"]+?)")\]\.)?`

// argument matches a quoted bracketed argument: ['x'] or ["x"].
const argument = `\[(?:'(.+?)'|"(.+?)")\]`

var (
	environRegex  = regexp.MustCompile(`\$ENVIRON` + argument)
	locationRegex = regexp.MustCompile(historyPrefix + `\$LOCATION`)
	cookieRegex   = regexp.MustCompile(historyPrefix + `\$COOKIE`)
	urlRegex      = regexp.MustCompile(historyPrefix + `\$URL`)
	headersRegex  = regexp.MustCompile(historyPrefix + `\$HEADERS` + argument)
	responseRegex = regexp.MustCompile(historyPrefix + `\$RESPONSE` + argument)
)

// resolver substitutes one token in message.
type resolver func(e *Engine, message string, ctx *Context, escape bool) (any, error)

// Engine resolves $TOKEN references in test data.
// An Engine is stateless apart from its environment lookup and is safe for
// concurrent use.
type Engine struct {
	lookupEnv func(string) (string, bool)
	resolvers map[Token]resolver
}

// New creates an engine that reads the process environment.
func New() *Engine {
	return NewWithEnv(os.LookupEnv)
}

// NewWithEnv creates an engine with a custom environment lookup.
func NewWithEnv(lookup func(string) (string, bool)) *Engine {
	return &Engine{
		lookupEnv: lookup,
		resolvers: map[Token]resolver{
			TokenScheme:   resolveScheme,
			TokenNetloc:   resolveNetloc,
			TokenEnviron:  resolveEnviron,
			TokenLocation: resolveLocation,
			TokenCookie:   resolveCookie,
			TokenLastURL:  resolveLastURL,
			TokenURL:      resolveURL,
			TokenHeaders:  resolveHeaders,
			TokenResponse: resolveResponse,
		},
	}
}

// Resolve substitutes tokens in message. Strings are resolved, maps and
// slices are resolved element by element into new containers, anything else
// is returned unchanged.
//
// A string consisting of exactly one $RESPONSE or $ENVIRON token resolves to
// the typed value (a list, a number, a bool); otherwise substitutions are
// stringified into the message.
func (e *Engine) Resolve(message any, ctx *Context) (any, error) {
	return e.resolve(message, ctx, false)
}

// ResolveRegex is Resolve for messages that will be compiled as regular
// expressions: substituted values are regex-escaped.
func (e *Engine) ResolveRegex(message any, ctx *Context) (any, error) {
	return e.resolve(message, ctx, true)
}

// ResolveString resolves message and stringifies the result.
func (e *Engine) ResolveString(message string, ctx *Context) (string, error) {
	v, err := e.resolveString(message, ctx, false)
	if err != nil {
		return "", err
	}
	return matching.Stringify(v), nil
}

func (e *Engine) resolve(message any, ctx *Context, escape bool) (any, error) {
	switch m := message.(type) {
	case string:
		return e.resolveString(m, ctx, escape)
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			r, err := e.resolve(v, ctx, escape)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(m))
		for i, v := range m {
			r, err := e.resolve(v, ctx, escape)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return message, nil
	}
}

func (e *Engine) resolveString(message string, ctx *Context, escape bool) (any, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	var current any = message
	for _, tok := range Order {
		s, ok := current.(string)
		if !ok {
			// A previous token produced a typed value.
			return current, nil
		}
		if !strings.Contains(s, "$"+string(tok)) {
			continue
		}
		v, err := e.resolvers[tok](e, s, ctx, escape)
		if err != nil {
			return nil, &Error{Token: string(tok), Message: message, Err: err}
		}
		current = v
	}
	return current, nil
}

// reference is one regex match of a token.
type reference struct {
	history string
	arg     string
}

// substitute replaces every match of re in message with the value returned
// by fn. A match covering the whole message yields fn's value unchanged.
func substitute(message string, re *regexp.Regexp, escape bool, fn func(reference) (any, error)) (any, error) {
	locs := re.FindAllStringSubmatchIndex(message, -1)
	if len(locs) == 0 {
		return message, nil
	}
	withHistory := re != environRegex
	if len(locs) == 1 && locs[0][0] == 0 && locs[0][1] == len(message) && !escape {
		return fn(referenceAt(message, locs[0], withHistory))
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(message[last:loc[0]])
		v, err := fn(referenceAt(message, loc, withHistory))
		if err != nil {
			return nil, err
		}
		b.WriteString(quote(matching.Stringify(v), escape))
		last = loc[1]
	}
	b.WriteString(message[last:])
	return b.String(), nil
}

// referenceAt extracts the history name and argument of one match. Each
// quoted group comes as a single-quote and a double-quote alternative; the
// unused one reports -1.
func referenceAt(message string, loc []int, withHistory bool) reference {
	var groups []string
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, message[loc[i]:loc[i+1]])
	}
	var ref reference
	if withHistory && len(groups) >= 2 {
		ref.history = first(groups[0], groups[1])
		groups = groups[2:]
	}
	if len(groups) >= 2 {
		ref.arg = first(groups[0], groups[1])
	}
	return ref
}

func first(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func quote(s string, escape bool) string {
	if escape {
		return regexp.QuoteMeta(s)
	}
	return s
}

func resolveScheme(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return strings.ReplaceAll(message, "$SCHEME", quote(ctx.Scheme, escape)), nil
}

func resolveNetloc(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return strings.ReplaceAll(message, "$NETLOC", quote(ctx.Netloc, escape)), nil
}

func resolveEnviron(e *Engine, message string, _ *Context, escape bool) (any, error) {
	v, err := substitute(message, environRegex, escape, func(r reference) (any, error) {
		val, ok := e.lookupEnv(r.arg)
		if !ok {
			return nil, fmt.Errorf("environment variable %s not set", r.arg)
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		return coerce(s), nil
	}
	return v, nil
}

// coerce turns environment strings into the scalar they spell.
func coerce(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func resolveLocation(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return substitute(message, locationRegex, escape, func(r reference) (any, error) {
		ref, err := ctx.referent(r.history)
		if err != nil {
			return nil, err
		}
		loc, ok := ref.ResponseHeader("location")
		if !ok {
			return nil, fmt.Errorf("no location header in response")
		}
		return loc, nil
	})
}

func resolveCookie(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return substitute(message, cookieRegex, escape, func(r reference) (any, error) {
		ref, err := ctx.referent(r.history)
		if err != nil {
			return nil, err
		}
		return cookieString(ref.SetCookies())
	})
}

// cookieString parses Set-Cookie values and serializes them as a Cookie
// request header value, dropping attributes.
func cookieString(setCookies []string) (string, error) {
	if len(setCookies) == 0 {
		return "", fmt.Errorf("no set-cookie header in response")
	}
	var cookies []*http.Cookie
	for _, line := range setCookies {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			return "", fmt.Errorf("parsing set-cookie %q: %w", line, err)
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	sort.SliceStable(cookies, func(i, j int) bool { return cookies[i].Name < cookies[j].Name })
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; "), nil
}

func resolveLastURL(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	if ctx.Prior == nil {
		return nil, errNoPrior
	}
	return strings.ReplaceAll(message, "$LAST_URL", quote(ctx.Prior.URL(), escape)), nil
}

func resolveURL(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return substitute(message, urlRegex, escape, func(r reference) (any, error) {
		ref, err := ctx.referent(r.history)
		if err != nil {
			return nil, err
		}
		return ref.URL(), nil
	})
}

func resolveHeaders(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return substitute(message, headersRegex, escape, func(r reference) (any, error) {
		ref, err := ctx.referent(r.history)
		if err != nil {
			return nil, err
		}
		v, ok := ref.ResponseHeader(r.arg)
		if !ok {
			return nil, fmt.Errorf("no %s header in response", r.arg)
		}
		return v, nil
	})
}

func resolveResponse(_ *Engine, message string, ctx *Context, escape bool) (any, error) {
	return substitute(message, responseRegex, escape, func(r reference) (any, error) {
		ref, err := ctx.referent(r.history)
		if err != nil {
			return nil, err
		}
		if ctx.Replacer == nil {
			return r.arg, nil
		}
		return ctx.Replacer(ref.ContentType(), ref.ResponseData(), r.arg)
	})
}
