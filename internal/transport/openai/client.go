package openai

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/TanishqMishra12/VAYO/internal/version"
)

// newClient builds an OpenAI-compatible client that identifies itself with the service user agent.
func newClient(apiKey, baseURL string) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = &http.Client{Transport: userAgentTransport{base: http.DefaultTransport}}
	return openai.NewClientWithConfig(clientCfg)
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", version.UserAgent())
	return t.base.RoundTrip(r)
}
