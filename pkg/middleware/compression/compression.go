// Package compression encodes responses with brotli or gzip according to Accept-Encoding.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Config controls response compression.
type Config struct {
	Enabled      bool
	EnableGzip   bool
	EnableBrotli bool
	GzipLevel    int
	BrotliLevel  int
	// MinSize is the body size in bytes below which responses are sent as is.
	MinSize      int
	ContentTypes []string
}

// DefaultConfig compresses JSON and text bodies of at least 1 KiB.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		EnableGzip:   true,
		EnableBrotli: true,
		GzipLevel:    gzip.DefaultCompression,
		BrotliLevel:  brotli.DefaultCompression,
		MinSize:      1024,
		ContentTypes: []string{"application/json", "text/"},
	}
}

// Middleware negotiates an encoding and compresses the response body once it reaches
// MinSize. Bodies that already carry a Content-Encoding are left alone. It must run
// outside the recovery middleware so that recovered error bodies are flushed.
func Middleware(cfg Config) router.MiddlewareFunc {
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = gzip.DefaultCompression
	}
	if cfg.BrotliLevel <= 0 {
		cfg.BrotliLevel = brotli.DefaultCompression
	}
	if cfg.MinSize < 0 {
		cfg.MinSize = 0
	}
	if len(cfg.ContentTypes) == 0 {
		cfg.ContentTypes = DefaultConfig().ContentTypes
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !cfg.Enabled || c.Request().Method == http.MethodHead {
				return next(c)
			}
			encoding := negotiate(c.Request().Header.Get("Accept-Encoding"), cfg)
			if encoding == "" {
				return next(c)
			}
			appendVary(c.Response().Header(), "Accept-Encoding")

			w := &compressWriter{base: c.Response(), encoding: encoding, cfg: cfg}
			c.SetResponse(w)
			err := next(c)
			if closeErr := w.Close(); err == nil {
				err = closeErr
			}
			return err
		}
	}
}

// negotiate picks the encoding with the highest quality, preferring brotli on a tie.
func negotiate(acceptEncoding string, cfg Config) string {
	if strings.TrimSpace(acceptEncoding) == "" {
		return ""
	}
	qAny, hasAny := quality(acceptEncoding, "*")

	best, bestQ := "", 0.0
	if cfg.EnableBrotli {
		if q, ok := quality(acceptEncoding, encodingBrotli); ok {
			best, bestQ = encodingBrotli, q
		} else if hasAny {
			best, bestQ = encodingBrotli, qAny
		}
	}
	if cfg.EnableGzip {
		q, ok := quality(acceptEncoding, encodingGzip)
		if !ok && hasAny {
			q, ok = qAny, true
		}
		if ok && q > bestQ {
			best, bestQ = encodingGzip, q
		}
	}
	if bestQ <= 0 {
		return ""
	}
	return best
}

func quality(acceptEncoding, encoding string) (float64, bool) {
	for _, part := range strings.Split(acceptEncoding, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(sections[0]), encoding) {
			continue
		}
		q := 1.0
		for _, section := range sections[1:] {
			kv := strings.SplitN(strings.TrimSpace(section), "=", 2)
			if len(kv) != 2 || !strings.EqualFold(kv[0], "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(kv[1], 64); err == nil {
				q = parsed
			}
		}
		return q, true
	}
	return 0, false
}

// compressWriter buffers the body until MinSize is reached, then commits either to a
// compressed stream or to the plain writer.
type compressWriter struct {
	base     router.ResponseWriter
	encoding string
	cfg      Config
	status   int
	decided  bool
	encoder  io.WriteCloser
	buffer   bytes.Buffer
}

func (w *compressWriter) Header() http.Header {
	return w.base.Header()
}

func (w *compressWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	if !bodyAllowed(code) {
		w.decided = true
		w.base.WriteHeader(code)
	}
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if w.decided {
		if w.encoder != nil {
			return w.encoder.Write(p)
		}
		return w.base.Write(p)
	}

	w.buffer.Write(p)
	if w.buffer.Len() < w.cfg.MinSize {
		return len(p), nil
	}
	if err := w.decide(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *compressWriter) decide() error {
	w.decided = true
	if !w.shouldCompress() {
		w.base.WriteHeader(w.Status())
		_, err := w.base.Write(w.buffer.Bytes())
		w.buffer.Reset()
		return err
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", w.encoding)
	w.base.WriteHeader(w.Status())

	switch w.encoding {
	case encodingBrotli:
		w.encoder = brotli.NewWriterLevel(w.base, w.cfg.BrotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(w.base, w.cfg.GzipLevel)
		if err != nil {
			return fmt.Errorf("create gzip writer: %w", err)
		}
		w.encoder = gz
	}
	_, err := w.encoder.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

func (w *compressWriter) shouldCompress() bool {
	if w.buffer.Len() == 0 || w.buffer.Len() < w.cfg.MinSize || w.Header().Get("Content-Encoding") != "" {
		return false
	}
	contentType := strings.ToLower(w.Header().Get("Content-Type"))
	for _, prefix := range w.cfg.ContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// Close flushes a body that never reached MinSize and terminates the compressed stream.
func (w *compressWriter) Close() error {
	if !w.decided {
		if w.status == 0 && w.buffer.Len() == 0 {
			return nil
		}
		if err := w.decide(); err != nil {
			return err
		}
	}
	if w.encoder != nil {
		return w.encoder.Close()
	}
	return nil
}

func (w *compressWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *compressWriter) Written() bool {
	return w.status != 0 || w.base.Written()
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

func appendVary(header http.Header, value string) {
	current := header.Get("Vary")
	if current == "" {
		header.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	header.Set("Vary", current+", "+value)
}
