package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// gzipMinSize: ответы меньшего размера не сжимаются
const gzipMinSize = 1400

// GzipMiddleware распаковывает сжатые запросы и сжимает крупные JSON и HTML ответы
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid gzip data")
				return
			}
			defer gz.Close()
			r.Body = io.NopCloser(gz)
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gw := &gzipResponseWriter{ResponseWriter: w, status: http.StatusOK}
		defer gw.Close()
		next.ServeHTTP(gw, r)
	})
}

// gzipResponseWriter копит начало ответа, пока не станет ясно, нужно ли сжатие.
// Заголовок статуса откладывается до этого момента.
type gzipResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	gz          *gzip.Writer
	decided     bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = statusCode
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	if w.decided {
		if w.gz != nil {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	if !compressible(w.Header().Get("Content-Type")) {
		if err := w.flushPlain(); err != nil {
			return 0, err
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf.Write(b)
	if w.buf.Len() < gzipMinSize {
		return len(b), nil
	}

	w.decided = true
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	w.gz = gzip.NewWriter(w.ResponseWriter)
	if _, err := w.gz.Write(w.buf.Bytes()); err != nil {
		return 0, err
	}
	w.buf.Reset()
	return len(b), nil
}

// flushPlain отправляет отложенный статус и накопленные данные без сжатия
func (w *gzipResponseWriter) flushPlain() error {
	w.decided = true
	w.ResponseWriter.WriteHeader(w.status)
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

// Close завершает ответ
func (w *gzipResponseWriter) Close() error {
	if w.gz != nil {
		return w.gz.Close()
	}
	if !w.decided {
		return w.flushPlain()
	}
	return nil
}

func compressible(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") || strings.HasPrefix(contentType, "text/html")
}
