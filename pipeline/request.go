package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request describes one outgoing call. It is also the descriptor used to replay
// a request verbatim once a refresh has completed.
type Request struct {
	Method string
	// Path is relative to the dispatcher's base URL and may carry a query string.
	Path   string
	Body   []byte
	Header http.Header
}

// NewRequest creates a request with an empty header set.
func NewRequest(method, path string, body []byte) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method: method,
		Path:   path,
		Body:   body,
		Header: make(http.Header),
	}
}

// NewJSONRequest encodes payload as the JSON body of a new request. A nil payload sends no body.
func NewJSONRequest(method, path string, payload any) (*Request, error) {
	if payload == nil {
		return NewRequest(method, path, nil), nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req := NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Clone returns a deep copy so middleware can decorate a request without touching the caller's.
func (r *Request) Clone() *Request {
	clone := &Request{
		Method: r.Method,
		Path:   r.Path,
		Header: r.Header.Clone(),
	}
	if clone.Header == nil {
		clone.Header = make(http.Header)
	}
	if r.Body != nil {
		clone.Body = append([]byte(nil), r.Body...)
	}
	return clone
}

func (r *Request) String() string {
	return r.Method + " " + r.Path
}

// Response is the fully read reply to a Request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a status below 400.
func (r *Response) OK() bool {
	return r.Status < http.StatusBadRequest
}

// Decode unmarshals a JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
