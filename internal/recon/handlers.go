package recon

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// maxUploadSize bounds multipart uploads (high-resolution phone photos)
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// guessContentType fills in a content type from the file extension when the
// upload did not carry one
func guessContentType(filename, contentType string) string {
	if contentType != "" {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleUploadInvoices receives one or more invoice photos and submits them
// as a batch
func (s *Server) handleUploadInvoices(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	var files []*multipartFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			files = append(files, &multipartFile{header: header})
		}
	}
	if len(files) == 0 {
		jsonError(w, "No files were selected. Use the 'files' form field.", http.StatusBadRequest)
		return
	}

	uploads := make([]Upload, 0, len(files))
	for _, mf := range files {
		data, err := mf.read()
		if err != nil {
			slog.Error("Error reading uploaded file", "filename", mf.header.Filename, "error", err)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		uploads = append(uploads, Upload{
			Filename:    mf.header.Filename,
			ContentType: guessContentType(mf.header.Filename, mf.header.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	ids, err := s.service.SubmitInvoices(r.Context(), uploads)
	if err != nil {
		slog.Error("Error submitting invoices", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"ids": ids}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListItems returns all tracked invoice items in submission order
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items := s.service.Items()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetItem returns a single invoice item
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Item ID required", http.StatusBadRequest)
		return
	}
	item, err := s.service.Item(id)
	if err != nil {
		corsError(w, "Item not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(item); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetItemFile returns the original uploaded file for an item
func (s *Server) handleGetItemFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Item ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.ItemFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleUploadLedger replaces the reference ledger from a CSV upload
func (s *Server) handleUploadLedger(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file was selected. Use the 'file' form field.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	count, err := s.service.ReplaceLedger(f)
	if err != nil {
		slog.Error("Error replacing ledger", "error", err)
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "still processing") {
			status = http.StatusConflict
		}
		jsonError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]int{"entries": count}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetLedger returns the current reference ledger
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	entries := s.service.Ledger()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSummary returns the derived batch counters
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.service.Summary()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// multipartFile wraps a multipart header so its contents can be read once
type multipartFile struct {
	header *multipart.FileHeader
}

func (m *multipartFile) read() ([]byte, error) {
	f, err := m.header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
