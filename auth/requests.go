package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-admin-session/pipeline"
)

// Do sends in as a JSON body (nil for none; json.RawMessage and []byte are sent verbatim)
// and decodes a JSON reply into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, method, path string, in, out any) error {
	req, err := newRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func newRequest(method, path string, in any) (*pipeline.Request, error) {
	switch body := in.(type) {
	case nil:
		return pipeline.NewRequest(method, path, nil), nil
	case []byte:
		req := pipeline.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	case json.RawMessage:
		req := pipeline.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	default:
		return pipeline.NewJSONRequest(method, path, in)
	}
}

func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, in, out any) error {
	return g.Do(ctx, http.MethodPost, path, in, out)
}

func (g *Gateway) Put(ctx context.Context, path string, in, out any) error {
	return g.Do(ctx, http.MethodPut, path, in, out)
}

func (g *Gateway) Patch(ctx context.Context, path string, in, out any) error {
	return g.Do(ctx, http.MethodPatch, path, in, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodDelete, path, nil, out)
}
