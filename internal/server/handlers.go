package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/quadra-ocr/quadra/internal/detector"
	"github.com/quadra-ocr/quadra/internal/geometry"
	"github.com/quadra-ocr/quadra/internal/pipeline"
	_ "golang.org/x/image/bmp"
)

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the error payload for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// detectHandler converts an uploaded probability map (grayscale PNG, field
// "map") into detected boxes. Optional form fields orig_width/orig_height
// give the original image dimensions for coordinate scaling; they default
// to the map dimensions.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	img, err := decodeFormImage(r, "map")
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	probMap := detector.ProbabilityMapFromGray(img)
	defer probMap.Release()

	origW := formInt(r, "orig_width", probMap.Width)
	origH := formInt(r, "orig_height", probMap.Height)

	start := time.Now()
	boxes, err := s.pipeline.Detect(r.Context(), probMap, origW, origH)
	if err != nil {
		detectRequestsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Detection failed: %v", err), http.StatusInternalServerError)
		return
	}
	detectRequestsTotal.WithLabelValues("ok").Inc()
	detectDuration.Observe(time.Since(start).Seconds())
	boxesDetected.Observe(float64(len(boxes)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pipeline.NewDetectionOutput(boxes, origW, origH)); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding detect response: %v\n", err)
	}
}

// cropHandler extracts one quad (form field "points", JSON array of four
// {x,y} objects) from an uploaded image (field "image") and returns the
// resampled patch as PNG. The X-Quadra-Rotated header reports whether the
// vertical-text rotation was applied.
func (s *Server) cropHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	img, err := decodeFormImage(r, "image")
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var pts [4]pipeline.PointResult
	if err := json.Unmarshal([]byte(r.FormValue("points")), &pts); err != nil {
		s.writeErrorResponse(w, "Invalid points", http.StatusBadRequest)
		return
	}
	var quad geometry.Quad
	for i, p := range pts {
		quad[i] = geometry.Point{X: p.X, Y: p.Y}
	}

	results, err := s.pipeline.CropBoxes(r.Context(), img, []detector.DetectedBox{{Quad: geometry.OrderClockwise(quad)}})
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Crop failed: %v", err), http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		s.writeErrorResponse(w, "Degenerate quad", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Quadra-Rotated", strconv.FormatBool(results[0].Rotated))
	if err := png.Encode(w, results[0].Img); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding crop response: %v\n", err)
	}
}

// writeErrorResponse writes a JSON error with the given status code.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding error response: %v\n", err)
	}
}

// decodeFormImage reads and decodes an uploaded image file.
func decodeFormImage(r *http.Request, field string) (image.Image, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("no %s file provided", field)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s data", field)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid %s format", field)
	}
	return img, nil
}

// formInt parses an integer form value, falling back to def.
func formInt(r *http.Request, field string, def int) int {
	v := r.FormValue(field)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
