package pipeline

import "context"

// Handler sends a request and returns its response, or an error when no usable outcome exists.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware decorates a Handler. Work done before calling next acts on the outgoing request;
// work done after acts on the response.
type Middleware func(next Handler) Handler

// Chain wraps h with mw. The first middleware is the outermost, so it sees the
// request first and the response last.
func Chain(h Handler, mw ...Middleware) Handler {
	chained := h
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}
