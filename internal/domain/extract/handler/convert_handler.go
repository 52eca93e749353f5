package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/export"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/model"
	"github.com/FACorreiaa/statement-converter/internal/domain/extract/service"
	"github.com/FACorreiaa/statement-converter/pkg/storage"
)

// Form overhead allowed on top of the file size limit.
const multipartOverhead = 1 << 20

// Converter runs the extraction pipeline on an uploaded document.
type Converter interface {
	Convert(ctx context.Context, name string, data []byte) (*service.Result, error)
}

// RequestRecorder counts answered conversion requests.
type RequestRecorder interface {
	RequestServed(format, code string)
}

// OutputStore keeps converted files for the download endpoints.
type OutputStore interface {
	Save(ctx context.Context, jobID uuid.UUID, name, contentType string, r io.Reader) (*storage.FileInfo, error)
	Open(ctx context.Context, jobID uuid.UUID) (io.ReadCloser, *storage.FileInfo, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

// ConvertHandler serves the conversion API.
type ConvertHandler struct {
	converter Converter
	maxUpload int64
	recorder  RequestRecorder // Optional
	store     OutputStore     // Optional: nil disables downloads
	logger    *slog.Logger
}

// NewConvertHandler creates a new conversion handler
func NewConvertHandler(converter Converter, maxUpload int64, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// WithRecorder counts requests by format and status code.
func (h *ConvertHandler) WithRecorder(r RequestRecorder) *ConvertHandler {
	h.recorder = r
	return h
}

// WithStore keeps every converted file so it can be fetched again from
// /api/download/{id} until it is cleaned up.
func (h *ConvertHandler) WithStore(store OutputStore) *ConvertHandler {
	h.store = store
	return h
}

// RegisterRoutes mounts the API endpoints.
func (h *ConvertHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/convert", h.Convert)
	mux.HandleFunc("GET /api/health", h.Health)
	if h.store != nil {
		mux.HandleFunc("GET /api/download/{id}", h.Download)
		mux.HandleFunc("POST /api/cleanup/{id}", h.Cleanup)
	}
}

// Health handles GET /api/health
func (h *ConvertHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ConvertResponse is the JSON answer of a successful conversion.
type ConvertResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Source           string              `json:"source"`
	Method           string              `json:"method"`
	Pages            int                 `json:"pages"`
	Scanned          bool                `json:"scanned"`
	TransactionCount int                 `json:"transaction_count"`
	Transactions     []model.Transaction `json:"transactions"`
	Summary          model.Summary       `json:"summary"`
	Unparseable      int                 `json:"unparseable_fields"`
	DownloadURL      string              `json:"download_url,omitempty"`
}

// Convert handles POST /api/convert. The multipart form carries the PDF in
// "file" and an optional "output_format" of json, excel or csv.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	status := http.StatusOK
	defer func() {
		if h.recorder != nil {
			h.recorder.RequestServed(string(format), strconv.Itoa(status))
		}
	}()
	fail := func(code int, msg string) {
		status = code
		WriteError(w, code, msg)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		fail(http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		fail(http.StatusBadRequest, "No file selected")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		fail(http.StatusBadRequest, "Invalid file type. Only PDF files are allowed")
		return
	}
	if header.Size > h.maxUpload {
		fail(http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	format, err = export.ParseFormat(r.FormValue("output_format"))
	if err != nil {
		format = export.FormatJSON
		fail(http.StatusBadRequest, `Invalid output format. Must be "json", "excel" or "csv"`)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		fail(http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.converter.Convert(r.Context(), header.Filename, data)
	if err != nil {
		code, msg := h.classify(err)
		h.logger.Error("conversion failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("file", header.Filename),
			slog.Any("error", err),
		)
		fail(code, msg)
		return
	}

	if result.Empty() {
		fail(http.StatusUnprocessableEntity,
			"No transactions found in PDF. Please ensure the PDF contains a bank statement with transaction data.")
		return
	}

	name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))

	if format == export.FormatJSON {
		resp := ConvertResponse{
			ID:               result.ID.String(),
			Status:           "success",
			Source:           result.Source,
			Method:           result.Method,
			Pages:            result.Pages,
			Scanned:          result.Scanned,
			TransactionCount: len(result.Transactions),
			Transactions:     result.Transactions,
			Summary:          result.Summary,
			Unparseable:      result.Unparseable,
		}
		// JSON callers can still download the spreadsheet later.
		if h.store != nil {
			var buf bytes.Buffer
			if err := export.Write(&buf, export.FormatExcel, result.Transactions, result.Summary); err != nil {
				h.logger.Warn("export for download failed", slog.Any("error", err))
			} else if h.keep(r.Context(), result.ID, name, export.FormatExcel, buf.Bytes()) {
				resp.DownloadURL = "/api/download/" + result.ID.String()
			}
		}
		WriteJSON(w, http.StatusOK, resp)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, result.Transactions, result.Summary); err != nil {
		h.logger.Error("export failed", slog.String("format", string(format)), slog.Any("error", err))
		fail(http.StatusInternalServerError, "Failed to generate output file")
		return
	}

	if h.store != nil && h.keep(r.Context(), result.ID, name, format, buf.Bytes()) {
		w.Header().Set("X-Job-ID", result.ID.String())
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(name+"_transactions"+format.Extension()))
	w.Header().Set("X-Transaction-Count", strconv.Itoa(len(result.Transactions)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write response", slog.Any("error", err))
	}
}

// keep stores a converted file, logging instead of failing the request.
func (h *ConvertHandler) keep(ctx context.Context, id uuid.UUID, name string, format export.Format, data []byte) bool {
	_, err := h.store.Save(ctx, id, name+"_transactions"+format.Extension(), format.ContentType(), bytes.NewReader(data))
	if err != nil {
		h.logger.Warn("failed to store converted file", slog.String("job_id", id.String()), slog.Any("error", err))
		return false
	}
	return true
}

// Download handles GET /api/download/{id}
func (h *ConvertHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	rc, info, err := h.store.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found or expired")
			return
		}
		h.logger.Error("failed to open stored file", slog.String("job_id", id.String()), slog.Any("error", err))
		WriteError(w, http.StatusInternalServerError, "Failed to download file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", attachment(info.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to write download", slog.String("job_id", id.String()), slog.Any("error", err))
	}
}

// Cleanup handles POST /api/cleanup/{id}. Unknown jobs are not an error.
func (h *ConvertHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to clean up job", slog.String("job_id", id.String()), slog.Any("error", err))
		WriteError(w, http.StatusInternalServerError, "Failed to clean up files")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Files cleaned up successfully"})
}

// attachment builds a Content-Disposition value. Quotes and non-ASCII
// names are escaped by mime.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func (h *ConvertHandler) classify(err error) (int, string) {
	var extErr *model.ExtractionError
	switch {
	case errors.Is(err, model.ErrTooManyPages):
		return http.StatusRequestEntityTooLarge, "Document has too many pages"
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity, "Failed to read PDF. Please ensure the file is a valid bank statement."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Conversion did not finish in time"
	default:
		return http.StatusInternalServerError, "Failed to process PDF"
	}
}

func (h *ConvertHandler) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", h.maxUpload>>20)
}
