package httpx

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 10 * time.Second
	DefaultMaxConnsPerHost     = 64
	DefaultMaxIdleConnDuration = 30 * time.Second
	DefaultMaxResponseBodySize = 4 * 1024 * 1024
)

type Options struct {
	// Timeout bounds a request whose context carries no deadline.
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	MaxResponseBodySize int
	UserAgent           string
}

type fastHTTPClient struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

// NewFastHTTPClient adapts a fasthttp.Client to the net/http request and
// response types. Compressed response bodies are decoded before returning.
func NewFastHTTPClient(opts Options) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = DefaultMaxConnsPerHost
	}
	if opts.MaxIdleConnDuration <= 0 {
		opts.MaxIdleConnDuration = DefaultMaxIdleConnDuration
	}
	if opts.MaxResponseBodySize <= 0 {
		opts.MaxResponseBodySize = DefaultMaxResponseBodySize
	}
	return &fastHTTPClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:          opts.MaxConnsPerHost,
			MaxIdleConnDuration:      opts.MaxIdleConnDuration,
			MaxResponseBodySize:      opts.MaxResponseBodySize,
			NoDefaultUserAgentHeader: opts.UserAgent == "",
		},
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
}

func (c *fastHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(fastReq)
	defer fasthttp.ReleaseResponse(fastResp)

	if err := copyRequest(fastReq, req, c.userAgent); err != nil {
		return nil, err
	}

	deadline, ok := req.Context().Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(fastReq, fastResp, deadline); err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	body, _, err := DecodeChain(string(fastResp.Header.Peek(fasthttp.HeaderContentEncoding)), fastResp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	// fastResp's buffer is reused after release.
	bodyCopy := append([]byte(nil), body...)

	headers := make(http.Header)
	fastResp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})
	headers.Del(fasthttp.HeaderContentEncoding)

	status := fastResp.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(bodyCopy)),
		ContentLength: int64(len(bodyCopy)),
		Request:       req,
	}, nil
}

func copyRequest(dst *fasthttp.Request, src *http.Request, userAgent string) error {
	if src.URL == nil {
		return fmt.Errorf("request has no URL")
	}
	dst.SetRequestURI(src.URL.String())
	dst.Header.SetMethod(src.Method)
	if src.Host != "" {
		dst.Header.SetHost(src.Host)
	}
	for key, values := range src.Header {
		for i, value := range values {
			if i == 0 {
				dst.Header.Set(key, value)
				continue
			}
			dst.Header.Add(key, value)
		}
	}
	if userAgent != "" && src.Header.Get("User-Agent") == "" {
		dst.Header.SetUserAgent(userAgent)
	}
	if src.Body == nil {
		return nil
	}
	defer src.Body.Close()
	body, err := io.ReadAll(src.Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	dst.SetBody(body)
	return nil
}
