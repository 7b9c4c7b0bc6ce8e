package testcase

import (
	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// Base test keys. Handler keys are added by the registry.
const (
	KeyName            = "name"
	KeyDesc            = "desc"
	KeyVerbose         = "verbose"
	KeySSL             = "ssl"
	KeyCertValidate    = "cert_validate"
	KeyRedirects       = "redirects"
	KeyMethod          = "method"
	KeyURL             = "url"
	KeyStatus          = "status"
	KeyRequestHeaders  = "request_headers"
	KeyQueryParameters = "query_parameters"
	KeyData            = "data"
	KeyXfail           = "xfail"
	KeySkip            = "skip"
	KeyPoll            = "poll"
	KeyUsePriorTest    = "use_prior_test"
)

// BaseDefaults returns a fresh copy of the base test: every key a test may
// declare apart from handler keys, with its default.
func BaseDefaults() map[string]any {
	return map[string]any{
		KeyName:            "",
		KeyDesc:            "",
		KeyVerbose:         false,
		KeySSL:             false,
		KeyCertValidate:    true,
		KeyRedirects:       false,
		KeyMethod:          "GET",
		KeyURL:             "",
		KeyStatus:          "200",
		KeyRequestHeaders:  map[string]any{},
		KeyQueryParameters: map[string]any{},
		KeyData:            "",
		KeyXfail:           false,
		KeySkip:            "",
		KeyPoll:            map[string]any{},
		KeyUsePriorTest:    true,
	}
}

// Spec is the declarative description of one test after defaults have been
// merged in.
type Spec struct {
	Name string
	Desc string
	// Verbose is "", "all", "headers" or "body".
	Verbose      string
	SSL          bool
	CertValidate bool
	Redirects    bool
	Method       string
	URL          string
	// Status is one code or several joined by "||".
	Status          string
	RequestHeaders  map[string]any
	QueryParameters map[string]any
	// Data is the request body: a string, a "<@file" reference or
	// structured data encoded by the request content type's handler.
	Data         any
	Xfail        bool
	Skip         string
	Poll         map[string]any
	UsePriorTest bool
	// Assertions holds the handler keys, e.g. response_strings.
	Assertions map[string]any
}

// SpecFromMap converts a merged test mapping into a Spec. Keys that are not
// base keys are handler assertions.
func SpecFromMap(m map[string]any) (Spec, error) {
	var s Spec
	var err error
	str := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = stringValue(m, key)
		return v
	}
	boolean := func(key string) bool {
		if err != nil {
			return false
		}
		var v bool
		v, err = boolValue(m, key)
		return v
	}
	mapping := func(key string) map[string]any {
		if err != nil {
			return nil
		}
		var v map[string]any
		v, err = mapValue(m, key)
		return v
	}

	s.Name = str(KeyName)
	s.Desc = str(KeyDesc)
	s.Verbose = verboseValue(m[KeyVerbose])
	s.SSL = boolean(KeySSL)
	s.CertValidate = boolean(KeyCertValidate)
	s.Redirects = boolean(KeyRedirects)
	s.Method = str(KeyMethod)
	s.URL = str(KeyURL)
	s.Status = matching.Stringify(m[KeyStatus])
	s.RequestHeaders = mapping(KeyRequestHeaders)
	s.QueryParameters = mapping(KeyQueryParameters)
	s.Data = m[KeyData]
	s.Xfail = boolean(KeyXfail)
	s.Skip = skipValue(m[KeySkip])
	s.Poll = mapping(KeyPoll)
	s.UsePriorTest = boolean(KeyUsePriorTest)
	if err != nil {
		return Spec{}, err
	}

	base := BaseDefaults()
	s.Assertions = make(map[string]any)
	for k, v := range m {
		if _, ok := base[k]; !ok {
			s.Assertions[k] = v
		}
	}
	return s, nil
}

func stringValue(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, float64:
		return matching.Stringify(v), nil
	default:
		return "", failure.Formatf("%s must be a string, got %T", key, v)
	}
}

func boolValue(m map[string]any, key string) (bool, error) {
	switch v := m[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, failure.Formatf("%s must be true or false, got %v", key, v)
	}
}

func mapValue(m map[string]any, key string) (map[string]any, error) {
	switch v := m[key].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, failure.Formatf("%s must be a mapping, got %T", key, v)
	}
}

// verboseValue accepts true, false or an output mode.
func verboseValue(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "all"
		}
		return ""
	case string:
		if t == "true" {
			return "all"
		}
		if t == "false" {
			return ""
		}
		return t
	}
	return ""
}

// skipValue accepts a reason, or true for an unexplained skip.
func skipValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "skipped"
		}
		return ""
	case string:
		return t
	}
	return matching.Stringify(v)
}
