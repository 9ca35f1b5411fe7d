package httpx

import "net/http"

// Client is the outbound HTTP surface used by the captcha and mail adapters.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}
