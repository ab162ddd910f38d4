package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/pinmap-go/internal/storage"
	"github.com/ukaji3/pinmap-go/pkg/pinmap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return New(store, Options{Config: pinmap.DefaultConfig()}, nil)
}

// chipBook returns a workbook with an empty "Cover" sheet and a "Pins" sheet
// holding fields, a pin table and one picture.
func chipBook(t *testing.T) (book, picture []byte) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Cover"))
	_, err := f.NewSheet("Pins")
	require.NoError(t, err)

	cells := map[string]any{
		"A1": "Project", "B1": "PX-9",
		"A2": "Chip Size", "B2": "123.5 um X 456 um",
		"A3": "CUP", "B3": "Yes",
		"A5": "Pin No", "B5": "Pin Name", "C5": "X", "D5": "Y",
		"A6": "1", "B6": "VDD", "C6": "12.5", "D6": "-3",
		"A7": "2", "B7": "NC", "C7": "1", "D7": "1",
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue("Pins", cell, v))
	}

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewGray(image.Rect(0, 0, 8, 4))))
	picture = buf.Bytes()
	require.NoError(t, f.AddPictureFromBytes("Pins", "F2", &excelize.Picture{Extension: ".png", File: picture}))

	out, err := f.WriteToBuffer()
	require.NoError(t, err)
	return out.Bytes(), picture
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestUploadInfoPinsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	book, picture := chipBook(t)

	rec := serve(s, uploadRequest(t, "chip.xlsx", book))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var upload uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	require.NotEmpty(t, upload.SessionID)
	assert.Equal(t, []string{"Pins"}, upload.Sheets)
	require.Len(t, upload.SheetList, 2)
	assert.False(t, upload.SheetList[0].HasData)
	assert.True(t, upload.SheetList[1].HasImage)
	require.NotNil(t, upload.ImageURL)
	assert.Equal(t, "/uploads/"+upload.SessionID+"/Pins.png", *upload.ImageURL)

	img := serve(s, httptest.NewRequest(http.MethodGet, *upload.ImageURL, nil))
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, picture, img.Body.Bytes())

	form := url.Values{"session_id": {upload.SessionID}, "sheet_name": {"Pins"}}
	rec = serve(s, formRequest("/sheet_info", form))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"chip_size": {"width": 123.5, "height": 456},
		"project_code": "PX-9",
		"image_url": "/uploads/`+upload.SessionID+`/Pins.png",
		"extras": {"PadWindow": "", "CUP": "Yes"}
	}`, rec.Body.String())

	rec = serve(s, formRequest("/parse_pins", form))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"valid_pins": [{"pin_no": "1", "pin_name": "VDD", "x": 12.5, "y": -3}],
		"invalid_pins": ["2, NC"]
	}`, rec.Body.String())

	form.Set("sheet_name", "Cover")
	rec = serve(s, formRequest("/sheet_info", form))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chip_size": null, "project_code": null, "image_url": null, "extras": {"PadWindow": "", "CUP": ""}}`, rec.Body.String())
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "missing upload file")

	rec = serve(s, uploadRequest(t, "junk.xlsx", []byte("not a workbook")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "failed to read Excel")

	entries, err := os.ReadDir(s.store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed uploads leave no session behind")
}

func TestUploadTooLarge(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	s := New(store, Options{Config: pinmap.DefaultConfig(), MaxUploadBytes: 1 << 10}, nil)

	tests := []struct {
		name string
		size int
	}{
		{"file over the limit", 4 << 10},
		{"body over the limit", 1 << 20},
	}
	for _, tt := range tests {
		rec := serve(s, uploadRequest(t, "big.xlsx", bytes.Repeat([]byte("x"), tt.size)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, tt.name)
		assert.Contains(t, decode(t, rec)["error"], "limit", tt.name)
	}

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSheetRequestErrors(t *testing.T) {
	s := newTestServer(t)
	book, _ := chipBook(t)
	rec := serve(s, uploadRequest(t, "chip.xlsx", book))
	require.Equal(t, http.StatusOK, rec.Code)
	sid := decode(t, rec)["session_id"].(string)

	tests := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{"missing sheet name", "/sheet_info", url.Values{"session_id": {sid}}, http.StatusBadRequest},
		{"missing session", "/parse_pins", url.Values{"sheet_name": {"Pins"}}, http.StatusBadRequest},
		{"unknown session", "/sheet_info", url.Values{"session_id": {"nope"}, "sheet_name": {"Pins"}}, http.StatusNotFound},
		{"unknown sheet", "/sheet_info", url.Values{"session_id": {sid}, "sheet_name": {"Missing"}}, http.StatusNotFound},
		{"unknown sheet pins", "/parse_pins", url.Values{"session_id": {sid}, "sheet_name": {"Missing"}}, http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := serve(s, formRequest(tt.path, tt.form))
		assert.Equal(t, tt.status, rec.Code, tt.name)
		assert.NotEmpty(t, decode(t, rec)["error"], tt.name)
	}
}

func TestServeUploadNotFound(t *testing.T) {
	s := newTestServer(t)
	book, _ := chipBook(t)
	rec := serve(s, uploadRequest(t, "chip.xlsx", book))
	require.Equal(t, http.StatusOK, rec.Code)
	sid := decode(t, rec)["session_id"].(string)

	for _, path := range []string{
		"/uploads/nope/Pins.png",
		"/uploads/" + sid + "/missing.png",
		"/uploads/" + sid + "/manifest.json",
	} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, map[string]any{"error": "file not found"}, decode(t, rec), path)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/uploads/"+sid+"/workbook.xlsx", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = serve(s, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(pinmap.ErrSheetNotFound))
	assert.Equal(t, http.StatusNotFound, statusFor(storage.ErrSessionNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(pinmap.ErrInvalidFormat))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
