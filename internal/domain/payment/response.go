package payment

import (
	"bytes"
	"encoding/json"
)

// Response is a provider's decoded reply. Ownership passes to the caller;
// nothing keeps a reference to it.
type Response struct {
	StatusCode int
	// Body is the decoded JSON object, nil for empty or non-object bodies.
	Body map[string]any
	Raw  json.RawMessage
}

// NewResponse decodes raw into a Response. Empty bodies (204) are allowed.
func NewResponse(status int, raw []byte) *Response {
	resp := &Response{StatusCode: status}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return resp
	}
	resp.Raw = json.RawMessage(raw)

	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err == nil {
		resp.Body = body
	}
	return resp
}

// ID returns the "id" attribute of the body, if any.
func (r *Response) ID() string {
	if r == nil {
		return ""
	}
	return Fields(r.Body).String("id")
}

// MarshalJSON emits the provider body verbatim.
func (r *Response) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.Raw) == 0 {
		return []byte("{}"), nil
	}
	return r.Raw, nil
}
