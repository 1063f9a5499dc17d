package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"floorplan-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visionReply = `{
  "responses": [{
    "textAnnotations": [
      {"description": "W\n301\nC310", "boundingPoly": {"vertices": [{"x": 0, "y": 0}, {"x": 500, "y": 0}, {"x": 500, "y": 300}, {"x": 0, "y": 300}]}},
      {"description": "W", "boundingPoly": {"vertices": [{"x": 10, "y": 10}, {"x": 15, "y": 10}, {"x": 15, "y": 15}, {"x": 10, "y": 15}]}},
      {"description": " 301 ", "boundingPoly": {"vertices": [{"x": 9, "y": 16}, {"x": 24, "y": 16}, {"x": 24, "y": 21}, {"x": 9, "y": 21}]}},
      {"description": "C310", "boundingPoly": {"vertices": [{"y": 2}, {"x": 40, "y": 2}, {"x": 40, "y": 22}, {"y": 22}]}}
    ]
  }]
}`

func TestVisionDetectText(t *testing.T) {
	var got visionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(visionReply))
	}))
	defer srv.Close()

	d := NewVisionDetector(srv.URL+"/v1", "secret", nil)
	blocks, err := d.DetectText(context.Background(), []byte("img"))
	require.NoError(t, err)

	require.Len(t, got.Requests, 1)
	assert.Equal(t, "aW1n", got.Requests[0].Image.Content)
	assert.Equal(t, "TEXT_DETECTION", got.Requests[0].Features[0].Type)

	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Text: "W", Bounds: geometry.NewRect(10, 10, 5, 5)}, blocks[0])
	assert.Equal(t, Block{Text: "301", Bounds: geometry.NewRect(9, 16, 15, 5)}, blocks[1])
	// Missing x coordinates count as 0.
	assert.Equal(t, geometry.NewRect(0, 2, 40, 20), blocks[2].Bounds)
}

func TestVisionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	d := NewVisionDetector(srv.URL, "secret", nil)
	_, err := d.DetectText(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestVisionEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses": [{}]}`))
	}))
	defer srv.Close()

	blocks, err := NewVisionDetector(srv.URL, "secret", nil).DetectText(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestVisionRequiresKey(t *testing.T) {
	_, err := NewVisionDetector("", "", nil).DetectText(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
