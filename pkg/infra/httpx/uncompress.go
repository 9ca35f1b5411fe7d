package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

type decoder func([]byte) ([]byte, error)

var decoders = map[string]decoder{
	"br": func(b []byte) ([]byte, error) {
		return io.ReadAll(brotli.NewReader(bytes.NewReader(b)))
	},
	"gzip": func(b []byte) ([]byte, error) {
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		return readAndClose(r)
	},
	"zstd": func(b []byte) ([]byte, error) {
		r, err := zstd.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	},
	"deflate": func(b []byte) ([]byte, error) {
		if r, err := zlib.NewReader(bytes.NewReader(b)); err == nil {
			return readAndClose(r)
		}
		return readAndClose(flate.NewReader(bytes.NewReader(b)))
	},
}

// DecodeChain undoes a Content-Encoding value, last applied first. It reports
// whether any decoding happened.
func DecodeChain(contentEncoding string, body []byte) ([]byte, bool, error) {
	if contentEncoding == "" {
		return body, false, nil
	}
	codings := strings.Split(contentEncoding, ",")
	changed := false
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		switch coding {
		case "", "identity":
			continue
		}
		decode, ok := decoders[coding]
		if !ok {
			return nil, false, fmt.Errorf("unsupported content-encoding: %q", coding)
		}
		out, err := decode(body)
		if err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", coding, err)
		}
		body = out
		changed = true
	}
	return body, changed, nil
}

func readAndClose(r io.ReadCloser) ([]byte, error) {
	out, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return out, err
}
