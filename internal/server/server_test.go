package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quadra-ocr/quadra/internal/config"
	"github.com/quadra-ocr/quadra/internal/pipeline"
	"github.com/quadra-ocr/quadra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p, err := pipeline.New(pipeline.DefaultConfig())
	require.NoError(t, err)
	s, err := New(config.ServerConfig{
		Host:        "localhost",
		Port:        0,
		MaxUploadMB: 10,
		TimeoutSec:  5,
	}, p)
	require.NoError(t, err)
	return s
}

// encodeMapPNG renders a synthetic probability map with one text region as
// PNG bytes.
func encodeMapPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	data := testutil.UniformProbs(w, h, 0)
	testutil.FillRect(data, w, h, 8, 24, 48, 40, 0.95)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.GrayFromProbs(data, w, h)))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestDetectHandler(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "map", "map.png", encodeMapPNG(t, 64, 64), map[string]string{
		"orig_width":  "128",
		"orig_height": "128",
	})

	req := httptest.NewRequest(http.MethodPost, "/detect", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out pipeline.DetectionOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 128, out.Width)
	assert.Equal(t, 128, out.Height)
	require.Len(t, out.Boxes, 1)
	// Coordinates are scaled up to the doubled original dimensions.
	assert.Greater(t, out.Boxes[0].Points[2].X, 64.0)
}

func TestDetectHandler_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/detect", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDetectHandler_MissingFile(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("orig_width", "100"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestCropHandler(t *testing.T) {
	s := newTestServer(t)

	img := testutil.CheckerboardImage(100, 60, 8)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	body, contentType := multipartBody(t, "image", "img.png", buf.Bytes(), map[string]string{
		"points": `[{"x":10,"y":10},{"x":50,"y":10},{"x":50,"y":25},{"x":10,"y":25}]`,
	})

	req := httptest.NewRequest(http.MethodPost, "/crop", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "false", rec.Header().Get("X-Quadra-Rotated"))

	decoded, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 15, decoded.Bounds().Dy())
}

func TestCropHandler_InvalidPoints(t *testing.T) {
	s := newTestServer(t)

	img := testutil.CheckerboardImage(20, 20, 4)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	body, contentType := multipartBody(t, "image", "img.png", buf.Bytes(), map[string]string{
		"points": "not json",
	})

	req := httptest.NewRequest(http.MethodPost, "/crop", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quadra_")
}
