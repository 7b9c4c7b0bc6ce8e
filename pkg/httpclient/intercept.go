package httpclient

import (
	"fmt"
	"net/http"
	"net/http/httptest"
)

// interceptTransport serves requests with an in-process handler.
type interceptTransport struct {
	handler http.Handler
}

// RoundTrip runs the handler. A panicking handler becomes an error.
func (t *interceptTransport) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("intercepted handler panicked: %v", r)
		}
	}()
	if req.Body == nil {
		req.Body = http.NoBody
	}
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	resp = rec.Result()
	resp.Request = req
	return resp, nil
}
