package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// 支援的編碼，依偏好排序
const (
	encZstd = "zstd"
	encGzip = "gzip"
)

var (
	gzipPool = sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gw
	}}
	zstdPool = sync.Pool{New: func() any {
		zw, err := zstd.NewWriter(io.Discard,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}}
)

// encoder gzip.Writer 與 zstd.Encoder 的共同行為
type encoder interface {
	io.WriteCloser
	Reset(w io.Writer)
	Flush() error
}

type zstdEncoder struct{ *zstd.Encoder }

func acquire(enc string, w io.Writer) encoder {
	if enc == encZstd {
		z := zstdEncoder{zstdPool.Get().(*zstd.Encoder)}
		z.Reset(w)
		return z
	}
	g := gzipPool.Get().(*gzip.Writer)
	g.Reset(w)
	return g
}

func release(enc string, e encoder) {
	switch v := e.(type) {
	case zstdEncoder:
		zstdPool.Put(v.Encoder)
	case *gzip.Writer:
		gzipPool.Put(v)
	}
}

// negotiate 從 Accept-Encoding 挑出支援的編碼；q=0 視為拒絕。
func negotiate(header string) string {
	accepted := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if strings.ReplaceAll(strings.TrimSpace(params), " ", "") == "q=0" {
			continue
		}
		accepted[name] = true
	}
	for _, enc := range []string{encZstd, encGzip} {
		if accepted[enc] {
			return enc
		}
	}
	return ""
}

// compressWriter 延遲到第一次寫入 header 才決定是否壓縮（204/304/1xx 不壓縮）。
type compressWriter struct {
	http.ResponseWriter
	enc     string
	e       encoder
	decided bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if !cw.decided {
		cw.decided = true
		h := cw.Header()
		if noBody(code) || h.Get("Content-Encoding") != "" {
			cw.enc = ""
		} else {
			h.Del("Content-Length")
			h.Set("Content-Encoding", cw.enc)
			h.Add("Vary", "Accept-Encoding")
			cw.e = acquire(cw.enc, cw.ResponseWriter)
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.decided {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}
	if cw.e == nil {
		return cw.ResponseWriter.Write(b)
	}
	return cw.e.Write(b)
}

func (cw *compressWriter) Flush() {
	if cw.e != nil {
		_ = cw.e.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

func (cw *compressWriter) close() {
	if cw.e == nil {
		return
	}
	_ = cw.e.Close()
	release(cw.enc, cw.e)
	cw.e = nil
}

func noBody(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// Compression 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應。HEAD 與 websocket upgrade 直接放行。
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}
		enc := negotiate(r.Header.Get("Accept-Encoding"))
		if enc == "" {
			next.ServeHTTP(w, r)
			return
		}
		cw := &compressWriter{ResponseWriter: w, enc: enc}
		defer cw.close()
		next.ServeHTTP(cw, r)
	})
}
