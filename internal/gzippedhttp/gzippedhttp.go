// Package gzippedhttp provides middlewares that gzip successful text responses
// and transparently unpack gzip-encoded request bodies.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// compressibleTypes are the media type prefixes worth compressing.
var compressibleTypes = []string{
	"text/",
	"application/json",
	"application/javascript",
	"image/svg+xml",
}

// CompressedReader wraps an io.ReadCloser and decompresses its input using gzip.
type CompressedReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// NewCompressedReader returns a new CompressedReader that reads gzip-compressed data
// from the provided io.ReadCloser.
func NewCompressedReader(requestBody io.ReadCloser) (*CompressedReader, error) {
	zippedRequestBody, err := gzip.NewReader(requestBody)
	if err != nil {
		return nil, err
	}

	return &CompressedReader{
		r:  requestBody,
		zr: zippedRequestBody,
	}, nil
}

func (c *CompressedReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

// Close closes both the gzip reader and the underlying io.ReadCloser.
func (c *CompressedReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// CompressedHTTPResponseWriter decides on the first WriteHeader whether the
// body gets compressed: only 2xx responses with a compressible Content-Type do.
// Redirects, errors and binary assets pass through untouched.
type CompressedHTTPResponseWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

func NewCompressedHTTPResponseWriter(w http.ResponseWriter) *CompressedHTTPResponseWriter {
	return &CompressedHTTPResponseWriter{w: w}
}

// Close flushes the gzip stream, if one was started.
func (c *CompressedHTTPResponseWriter) Close() error {
	if c.zw == nil {
		return nil
	}
	err := c.zw.Close()
	gzipWriterPool.Put(c.zw)
	c.zw = nil
	return err
}

func (c *CompressedHTTPResponseWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	if shouldCompress(statusCode, c.w.Header()) {
		c.w.Header().Set("Content-Encoding", "gzip")
		c.w.Header().Add("Vary", "Accept-Encoding")
		c.w.Header().Del("Content-Length")
		c.zw = gzipWriterPool.Get().(*gzip.Writer)
		c.zw.Reset(c.w)
	}

	c.w.WriteHeader(statusCode)
}

func (c *CompressedHTTPResponseWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		if c.w.Header().Get("Content-Type") == "" {
			c.w.Header().Set("Content-Type", http.DetectContentType(p))
		}
		c.WriteHeader(http.StatusOK)
	}

	if c.zw != nil {
		return c.zw.Write(p)
	}
	return c.w.Write(p)
}

func (c *CompressedHTTPResponseWriter) Header() http.Header {
	return c.w.Header()
}

func shouldCompress(statusCode int, header http.Header) bool {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices || statusCode == http.StatusNoContent {
		return false
	}
	if header.Get("Content-Encoding") != "" {
		return false
	}

	contentType := header.Get("Content-Type")
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// GzipResponse compresses the response when the client's Accept-Encoding allows gzip.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		responseWithCompression := NewCompressedHTTPResponseWriter(response)
		defer responseWithCompression.Close()

		h.ServeHTTP(responseWithCompression, request)
	}

	return http.HandlerFunc(middleware)
}

// UngzipRequest replaces a gzip-encoded request body with a decompressing reader.
// A body that is not valid gzip is rejected with 400.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			requestBodyWithCompression, err := NewCompressedReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusBadRequest)
				return
			}
			request.Body = requestBodyWithCompression
			request.Header.Del("Content-Encoding")
			defer requestBodyWithCompression.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
