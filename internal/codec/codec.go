// Package codec centralizes JSON handling on sonic, both for our own HTTP
// responses and for the vendor REST clients.
package codec

import (
	"io"

	"github.com/bytedance/sonic"
	"resty.dev/v3"
)

// resty registers its JSON codec under this key
const _restyJSONKey = "json"

func Encode(w io.Writer, v any) error {
	return sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return sonic.ConfigDefault.NewDecoder(r).Decode(v)
}

func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// WithSonic swaps resty's encoding/json codec for sonic.
func WithSonic(c *resty.Client) *resty.Client {
	return c.
		AddContentTypeEncoder(_restyJSONKey, Encode).
		AddContentTypeDecoder(_restyJSONKey, Decode)
}
