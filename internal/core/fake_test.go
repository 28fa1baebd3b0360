package core_test

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
)

type call struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// fakeAPI answers Requester calls from a handler. A string result is treated
// as raw JSON; anything else is marshalled.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	handler func(c call) (any, error)
}

func (f *fakeAPI) Do(_ context.Context, method, path string, query url.Values, body, out any) error {
	c := call{Method: method, Path: path, Query: query}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		c.Body = string(b)
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	resp, err := f.handler(c)
	if err != nil || out == nil || resp == nil {
		return err
	}
	var raw []byte
	if s, ok := resp.(string); ok {
		raw = []byte(s)
	} else if raw, err = json.Marshal(resp); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAPI) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}
