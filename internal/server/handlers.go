package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ukaji3/pinmap-go/internal/storage"
	"github.com/ukaji3/pinmap-go/pkg/pinmap"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/models"
	"github.com/ukaji3/pinmap-go/pkg/pinmap/output"
)

// sheetRequest is the form body of sheet_info and parse_pins.
type sheetRequest struct {
	SessionID string `form:"session_id" binding:"required"`
	SheetName string `form:"sheet_name" binding:"required"`
}

// uploadResponse answers a successful upload.
type uploadResponse struct {
	SessionID string `json:"session_id"`
	// Sheets lists the sheets holding data, or every sheet when none does.
	Sheets    []string              `json:"sheets"`
	SheetList []models.SheetSummary `json:"sheet_list"`
	ImageURL  *string               `json:"image_url"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// multipartSlack covers the form framing around the uploaded file.
const multipartSlack = 64 << 10

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+multipartSlack)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds the %d byte limit", s.opts.MaxUploadBytes))
			return
		}
		s.fail(c, http.StatusBadRequest, fmt.Errorf("missing upload file: %w", err))
		return
	}
	if file.Size > s.opts.MaxUploadBytes {
		s.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload of %d bytes exceeds the %d byte limit", file.Size, s.opts.MaxUploadBytes))
		return
	}

	sess, err := s.store.Create()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	kept := false
	defer func() {
		if kept {
			return
		}
		if err := sess.Remove(); err != nil {
			s.logger.Warn("session cleanup failed", "session", sess.ID, "error", err)
		}
	}()

	src, err := file.Open()
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	_, err = sess.SaveWorkbook(file.Filename, src)
	src.Close()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	wb, err := pinmap.Open(sess.WorkbookPath(), s.opts.Config, s.logger)
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("failed to read Excel: %w", err))
		return
	}
	defer wb.Close()

	summaries, err := wb.Sheets()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	var sheets []string
	for _, sh := range summaries {
		if sh.HasData {
			sheets = append(sheets, sh.Name)
		}
	}
	if len(sheets) == 0 {
		sheets = wb.SheetNames()
	}

	resp := uploadResponse{SessionID: sess.ID, Sheets: sheets, SheetList: summaries}
	for _, name := range sheets {
		asset, ok := wb.Images().Lookup(name)
		if !ok {
			continue
		}
		url, err := s.storeImage(sess, name, asset)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		resp.ImageURL = &url
		break
	}

	kept = true
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSheetInfo(c *gin.Context) {
	sess, wb, req, ok := s.openSheetRequest(c)
	if !ok {
		return
	}
	defer wb.Close()

	info, err := wb.SheetInfo(req.SheetName)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	var url string
	if info.Image != nil {
		if url, err = s.storeImage(sess, req.SheetName, *info.Image); err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
	}

	c.JSON(http.StatusOK, output.SheetInfoPayload(info, url))
}

func (s *Server) handleParsePins(c *gin.Context) {
	_, wb, req, ok := s.openSheetRequest(c)
	if !ok {
		return
	}
	defer wb.Close()

	result, err := wb.Pins(req.SheetName)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, output.PinsPayload(result))
}

func (s *Server) handleServeUpload(c *gin.Context) {
	sess, err := s.store.Open(c.Param("sid"))
	if err != nil {
		s.fail(c, http.StatusNotFound, errors.New("file not found"))
		return
	}
	path, err := sess.FilePath(c.Param("fname"))
	if err != nil {
		s.fail(c, http.StatusNotFound, errors.New("file not found"))
		return
	}
	c.File(path)
}

// openSheetRequest binds the form, opens the session and its workbook. On
// failure the response is already written.
func (s *Server) openSheetRequest(c *gin.Context) (*storage.Session, *pinmap.Workbook, sheetRequest, bool) {
	var req sheetRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("session_id and sheet_name are required: %w", err))
		return nil, nil, req, false
	}

	sess, err := s.store.Open(req.SessionID)
	if err != nil {
		s.fail(c, http.StatusNotFound, err)
		return nil, nil, req, false
	}

	wb, err := pinmap.Open(sess.WorkbookPath(), s.opts.Config, s.logger)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, req, false
	}
	return sess, wb, req, true
}

func (s *Server) storeImage(sess *storage.Session, sheet string, asset models.ImageAsset) (string, error) {
	name, err := sess.SaveImage(sheet, asset)
	if err != nil {
		return "", err
	}
	return "/uploads/" + sess.ID + "/" + name, nil
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound),
		errors.Is(err, storage.ErrFileNotFound),
		errors.Is(err, pinmap.ErrSheetNotFound),
		errors.Is(err, pinmap.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, pinmap.ErrInvalidFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
