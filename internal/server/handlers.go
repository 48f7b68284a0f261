package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	errNoFilePart     = "No file part"
	errNoSelectedFile = "No selected file"
	errProcessImage   = "Failed to process the image."
	errFileTooLarge   = "File too large."
)

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handlePredict(c *gin.Context) {
	if s.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errFileTooLarge})
		case s.hasEmptyFileField(c):
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoSelectedFile})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoFilePart})
		}
		return
	}
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoSelectedFile})
		return
	}

	data, err := readUpload(header)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errProcessImage})
		return
	}

	pred, err := s.service.Predict(c.Request.Context(), data)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errProcessImage})
		return
	}

	c.JSON(http.StatusOK, pred)
}

// hasEmptyFileField reports a "file" part sent without a filename, which the
// multipart reader files under form values rather than files.
func (s *Server) hasEmptyFileField(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func (s *Server) handleFacts(c *gin.Context) {
	label := strings.TrimSpace(c.Query("label"))
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}

	c.JSON(http.StatusOK, s.service.LookupFacts(c.Request.Context(), label))
}

func (s *Server) handleHealth(c *gin.Context) {
	classifier := s.service.Classifier()
	if err := classifier.Health(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "unavailable",
			"classifier": classifier.Name(),
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "classifier": classifier.Name()})
}
