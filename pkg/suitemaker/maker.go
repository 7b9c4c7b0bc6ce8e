package suitemaker

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/httpseq/pkg/config"
	"github.com/getmockd/httpseq/pkg/failure"
	"github.com/getmockd/httpseq/pkg/handler"
	"github.com/getmockd/httpseq/pkg/httpclient"
	"github.com/getmockd/httpseq/pkg/logging"
	"github.com/getmockd/httpseq/pkg/suite"
	"github.com/getmockd/httpseq/pkg/template"
	"github.com/getmockd/httpseq/pkg/testcase"
)

// Options are the invariants shared by every test of a document.
type Options struct {
	// Host, Port and Prefix locate the system under test. They are
	// ignored when Intercept is set.
	Host   string
	Port   string
	Prefix string

	// Intercept, when set, receives every request of the suite in
	// process instead of the network. Each suite gets its own synthetic
	// host so that repeated builds never collide.
	Intercept http.Handler

	// Registry holds the response and content handlers. Nil uses
	// handler.Default().
	Registry *handler.Registry
	// Engine resolves templates. Nil reads the process environment.
	Engine *template.Engine
	// Arena resolves the names in a document's fixtures list. Without an
	// arena fixtures are ignored.
	Arena *suite.Arena

	// TestDir is the directory "<@file" data references are relative to.
	TestDir string
	// Namespace, when set, prefixes every test name.
	Namespace string
	// Overrides are merged over the document defaults, so they apply to
	// every test that does not set the key itself.
	Overrides map[string]any

	MaxChars int
	Timeout  time.Duration

	// VerboseOutput receives the traffic of verbose tests.
	VerboseOutput io.Writer
	UserAgent     string

	Logger *slog.Logger
}

// Maker builds the cases of one document.
type Maker struct {
	base     string
	defaults map[string]any
	keys     map[string]bool
	opts     Options
	host     string
	port     string
	client   *httpclient.Client
	history  testcase.History
	ids      map[string]bool
	prior    *testcase.TestCase
	lower    cases.Caser
}

// BuildSuite builds the suite for the document doc named name, usually the
// base name of its file. Any problem with the document is a format error
// and no suite is returned.
func BuildSuite(name string, doc map[string]any, opts Options) (*suite.Suite, error) {
	if opts.Registry == nil {
		opts.Registry = handler.Default()
	}
	if opts.Engine == nil {
		opts.Engine = template.New()
	}
	logger := logging.ForSuite(logging.OrNop(opts.Logger), name)

	rawTests, ok := doc["tests"]
	if !ok {
		return nil, failure.Formatf(`malformed test file, "tests" key required`)
	}
	entries, ok := rawTests.([]any)
	if !ok && rawTests != nil {
		return nil, failure.Formatf("malformed test file, invalid format")
	}

	defaults, err := canonicalDefaults(opts.Registry, doc["defaults"], opts.Overrides)
	if err != nil {
		return nil, err
	}
	fixtures, err := fixtureNames(doc["fixtures"], opts.Arena, logger)
	if err != nil {
		return nil, err
	}

	m := &Maker{
		base:     name,
		defaults: defaults,
		keys:     make(map[string]bool, len(defaults)),
		opts:     opts,
		host:     opts.Host,
		port:     opts.Port,
		history:  testcase.History{},
		ids:      make(map[string]bool),
		lower:    cases.Lower(language.Und),
	}
	if opts.Namespace != "" {
		m.base = opts.Namespace + "_" + name
	}
	for k := range defaults {
		m.keys[k] = true
	}

	clientOpts := []httpclient.Option{httpclient.WithLogger(logger)}
	if opts.VerboseOutput != nil {
		clientOpts = append(clientOpts, httpclient.WithVerboseOutput(opts.VerboseOutput))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, httpclient.WithUserAgent(opts.UserAgent))
	}
	if opts.Intercept != nil {
		m.host = uuid.NewString()
		m.port = ""
		clientOpts = append(clientOpts, httpclient.WithIntercept(opts.Intercept))
	}
	m.client = httpclient.New(clientOpts...)

	s := &suite.Suite{
		Name:     name,
		Fixtures: fixtures,
		Arena:    opts.Arena,
		Client:   m.client,
		Logger:   opts.Logger,
	}
	for _, entry := range entries {
		tc, err := m.makeOne(entry)
		if err != nil {
			m.client.Close()
			return nil, err
		}
		s.Cases = append(s.Cases, tc)
	}

	logger.Debug("built suite", "tests", len(s.Cases), "host", m.host, "fixtures", fixtures)
	return s, nil
}

// canonicalDefaults merges the handler defaults, the base test, the
// document defaults and the overrides, in that order.
func canonicalDefaults(registry *handler.Registry, raw any, overrides map[string]any) (map[string]any, error) {
	defaults := registry.Defaults()
	for k, v := range testcase.BaseDefaults() {
		defaults[k] = v
	}

	local := map[string]any{}
	if raw != nil {
		var ok bool
		if local, ok = raw.(map[string]any); !ok {
			return nil, failure.Formatf("malformed test file, defaults must be a mapping")
		}
	}
	for _, layer := range []map[string]any{local, overrides} {
		if err := checkDefaults(defaults, layer); err != nil {
			return nil, err
		}
		Merge(defaults, deepCopy(layer).(map[string]any))
	}
	return defaults, nil
}

func checkDefaults(known, layer map[string]any) error {
	var unknown []string
	for key := range layer {
		if isMethodShortcut(key) {
			return failure.Formatf(`"METHOD: url" pairs not allowed in defaults`)
		}
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return failure.Formatf("Invalid test keys used in defaults: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func fixtureNames(raw any, arena *suite.Arena, logger *slog.Logger) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, failure.Formatf("malformed test file, fixtures must be a list")
	}
	if arena == nil {
		logger.Warn("fixtures ignored, none are registered", "fixtures", list)
		return nil, nil
	}

	names := make([]string, 0, len(list))
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, failure.Formatf("fixture name must be a string, got %v", item)
		}
		if !arena.Has(name) {
			return nil, failure.Formatf("unknown fixture %s (registered: %s)", name, strings.Join(arena.Names(), ", "))
		}
		names = append(names, name)
	}
	return names, nil
}

// makeOne builds the next case of the document from one test entry.
func (m *Maker) makeOne(entry any) (*testcase.TestCase, error) {
	raw, ok := entry.(map[string]any)
	if !ok {
		return nil, failure.Formatf(`test chunk is not a dict at "%v"`, entry)
	}

	test := deepCopy(m.defaults).(map[string]any)
	Merge(test, raw)

	id, err := m.testName(test)
	if err != nil {
		return nil, err
	}
	if m.ids[id] {
		return nil, failure.Formatf("duplicate test name %s", id)
	}
	m.ids[id] = true
	if err := setMethodAndURL(test, id); err != nil {
		return nil, err
	}
	if err := m.validateKeys(test, id); err != nil {
		return nil, err
	}

	spec, err := testcase.SpecFromMap(test)
	if err != nil {
		return nil, fmt.Errorf("test %s: %w", id, err)
	}

	tc := testcase.New(id, spec, testcase.Options{
		Host:     m.host,
		Port:     m.port,
		Prefix:   m.opts.Prefix,
		Client:   m.client,
		Registry: m.opts.Registry,
		Engine:   m.opts.Engine,
		TestDir:  m.opts.TestDir,
		Prior:    m.prior,
		History:  m.history,
		MaxChars: m.opts.MaxChars,
		Timeout:  m.opts.Timeout,
		Logger:   m.opts.Logger,
	})
	m.history[spec.Name] = tc
	m.prior = tc
	return tc, nil
}

// testName returns the canonical name of test: the lower-cased name with
// spaces replaced by underscores, prefixed by the document base name.
func (m *Maker) testName(test map[string]any) (string, error) {
	name, _ := test["name"].(string)
	if name == "" {
		return "", failure.Formatf("Test name missing in a test in %s.", m.base)
	}
	return m.base + "_" + strings.ReplaceAll(m.lower.String(name), " ", "_"), nil
}

// setMethodAndURL moves a "METHOD: url" shortcut into the method and url
// keys. Without a shortcut the url key must be set.
func setMethodAndURL(test map[string]any, id string) error {
	var shortcuts []string
	for key := range test {
		if isMethodShortcut(key) {
			shortcuts = append(shortcuts, key)
		}
	}
	if len(shortcuts) > 1 {
		return failure.Formatf(`duplicate method/URL directive in "%s"`, id)
	}
	if len(shortcuts) == 1 {
		method := shortcuts[0]
		test["method"] = method
		test["url"] = test[method]
		delete(test, method)
	}

	if url, _ := test["url"].(string); url == "" {
		return failure.Formatf("Test url missing in test %s.", id)
	}
	return nil
}

// validateKeys requires test to have exactly the canonical keys.
func (m *Maker) validateKeys(test map[string]any, id string) error {
	var diff []string
	for key := range test {
		if !m.keys[key] {
			diff = append(diff, key)
		}
	}
	for key := range m.keys {
		if _, ok := test[key]; !ok {
			diff = append(diff, key)
		}
	}
	if len(diff) == 0 {
		return nil
	}
	sort.Strings(diff)
	return failure.Formatf("Invalid test keys used in test %s: %s", id, strings.Join(diff, ", "))
}

// isMethodShortcut reports whether key is all upper case, like GET or
// POST, with at least one letter.
func isMethodShortcut(key string) bool {
	cased := false
	for _, r := range key {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// BuildFromDir builds one suite per YAML document in dir, in file name
// order. Data file references are relative to dir.
func BuildFromDir(dir string, opts Options) ([]*suite.Suite, error) {
	files, err := config.DiscoverFiles([]string{filepath.Join(dir, "*.yaml"), filepath.Join(dir, "*.yml")})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	opts.TestDir = dir

	suites := make([]*suite.Suite, 0, len(files))
	for _, path := range files {
		doc, err := config.LoadDocument(path)
		if err != nil {
			return nil, err
		}
		s, err := BuildSuite(config.BaseName(path), doc, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		suites = append(suites, s)
	}
	return suites, nil
}
