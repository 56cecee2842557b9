package transport

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// Request is an owned HTTP request. It is mutable until handed to a
// Connector; after that it belongs to the in-flight attempt. The body is held
// as bytes so the same logical operation can be dispatched again on retry
// with a fresh, fully rewound request.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header

	body []byte
}

// NewRequest builds a Request for the given method and URL. A nil body means
// no body.
func NewRequest(method, rawURL string, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method: method,
		URL:    u,
		Header: make(http.Header),
		body:   body,
	}, nil
}

// SetBody replaces the request body.
func (r *Request) SetBody(body []byte) {
	r.body = body
}

// BodyBytes returns the raw body, nil when the request has none.
func (r *Request) BodyBytes() []byte {
	return r.body
}

// Body returns a fresh reader over the body. Each call starts from the
// beginning, so every dispatch attempt sends the complete body.
func (r *Request) Body() io.ReadCloser {
	if r.body == nil {
		return http.NoBody
	}
	return io.NopCloser(bytes.NewReader(r.body))
}

// ContentLength reports the body length in bytes.
func (r *Request) ContentLength() int64 {
	return int64(len(r.body))
}

// Clone returns a deep copy of the request. Retry attempts dispatch a clone
// so that mutation by one attempt never leaks into the next.
func (r *Request) Clone() *Request {
	u := *r.URL
	header := make(http.Header, len(r.Header))
	for k, vs := range r.Header {
		header[k] = append([]string(nil), vs...)
	}

	var body []byte
	if r.body != nil {
		body = append([]byte(nil), r.body...)
	}

	return &Request{
		Method: r.Method,
		URL:    &u,
		Header: header,
		body:   body,
	}
}
