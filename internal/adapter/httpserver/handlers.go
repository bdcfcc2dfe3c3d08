package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flookyhq/flooky-tools/internal/config"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Bill        usecase.BillService
	Contract    usecase.ContractService
	Financial   usecase.FinancialService
	CV          usecase.CVService
	Video       usecase.VideoService
	Chat        usecase.ChatService
	Transcriber domain.Transcriber
	Detector    domain.LanguageDetector
	DBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	TikaCheck   func(ctx context.Context) error
}

// Extension allowlists per tool. Content sniffing runs on top of these.
var (
	billExts      = []string{".pdf", ".png", ".jpg", ".jpeg"}
	contractExts  = []string{".pdf", ".doc", ".docx", ".txt"}
	financialExts = []string{".pdf", ".csv", ".txt"}
	cvExts        = []string{".pdf", ".doc", ".docx"}
	audioExts     = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm"}
)

func allowedExt(name string, exts []string) bool {
	n := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(n, e) {
			return true
		}
	}
	return false
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	ext := strings.ToLower(filepath.Ext(filename))
	// Plain-text formats are frequently misdetected, accept any text/* for them.
	if ext == ".txt" || ext == ".csv" {
		return strings.HasPrefix(m, "text/")
	}
	if allowedExt(filename, audioExts) {
		// webm audio sniffs as video/webm
		return strings.HasPrefix(m, "audio/") || m == "video/webm"
	}
	switch {
	case strings.HasPrefix(m, "text/plain"), strings.HasPrefix(m, "text/csv"):
		return true
	case m == "application/pdf",
		m == "application/msword",
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		m == "image/png",
		m == "image/jpeg":
		return true
	}
	return false
}

// stageUpload materializes one multipart file into a temp file so the
// extraction adapters can work from a path. The extension allowlist and
// content sniffing both run before anything touches disk.
func stageUpload(h *multipart.FileHeader, exts []string) (string, func(), error) {
	if !allowedExt(h.Filename, exts) {
		return "", nil, fmt.Errorf("%w: unsupported file type: %s", domain.ErrInvalidArgument, h.Filename)
	}
	f, err := h.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: open upload: %v", domain.ErrInvalidArgument, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidArgument, err)
	}
	if m := mimetype.Detect(data); !allowedMIMEFor(m.String(), h.Filename) {
		return "", nil, fmt.Errorf("%w: unsupported content type %s for %s", domain.ErrInvalidArgument, m.String(), h.Filename)
	}
	tmp, err := os.CreateTemp("", "upload-*"+strings.ToLower(filepath.Ext(h.Filename)))
	if err != nil {
		return "", nil, fmt.Errorf("op=httpserver.stageUpload: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("op=httpserver.stageUpload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("op=httpserver.stageUpload: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

func notAcceptable(w http.ResponseWriter, accept string) bool {
	if accept != "" && accept != "*/*" && !strings.Contains(accept, "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotAcceptable)
		_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": accept}}})
		return true
	}
	return false
}

// parseUpload caps and parses a multipart request, mapping oversized
// bodies to 413. Returns false when a response was already written.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	if notAcceptable(w, r.Header.Get("Accept")) {
		return false
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
		return false
	}
	maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2)
	if err := r.ParseMultipartForm(maxBytes * 2); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: fmt.Sprintf("upload exceeds %d MB limit", s.Cfg.MaxUploadMB),
			}})
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrInvalidArgument, err), nil)
		return false
	}
	return true
}

func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, fmt.Errorf("%w: missing file field %q", domain.ErrInvalidArgument, field)
	}
	return r.MultipartForm.File[field][0], nil
}

// BillAnalyzeHandler handles bill OCR analysis uploads.
func (s *Server) BillAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseUpload(w, r) {
			return
		}
		h, err := formFile(r, "file")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		path, cleanup, err := stageUpload(h, billExts)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer cleanup()
		res := s.Bill.Analyze(r.Context(), h.Filename, path)
		writeResult(w, res)
	}
}

// ContractAnalyzeHandler handles contract risk review uploads.
func (s *Server) ContractAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseUpload(w, r) {
			return
		}
		h, err := formFile(r, "file")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		path, cleanup, err := stageUpload(h, contractExts)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer cleanup()
		res := s.Contract.Analyze(r.Context(), h.Filename, path)
		writeResult(w, res)
	}
}

// FinancialAnalyzeHandler handles financial coaching uploads with goal fields.
func (s *Server) FinancialAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseUpload(w, r) {
			return
		}
		goal := SanitizeString(r.FormValue("financial_goal"))
		if goal == "" {
			writeError(w, r, fmt.Errorf("%w: financial_goal is required", domain.ErrInvalidArgument), nil)
			return
		}
		h, err := formFile(r, "file")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		path, cleanup, err := stageUpload(h, financialExts)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer cleanup()
		goalAmount := SanitizeString(r.FormValue("goal_amount"))
		goalTimeframe := SanitizeString(r.FormValue("goal_timeframe"))
		res := s.Financial.Analyze(r.Context(), h.Filename, path, goal, goalAmount, goalTimeframe)
		writeResult(w, res)
	}
}

// CVRankHandler handles multi-file CV ranking.
func (s *Server) CVRankHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseUpload(w, r) {
			return
		}
		jobRole := SanitizeString(r.FormValue("job_role"))
		if jobRole == "" {
			writeError(w, r, fmt.Errorf("%w: job_role is required", domain.ErrInvalidArgument), nil)
			return
		}
		topCount := 0
		if v := r.FormValue("top_count"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: top_count must be an integer", domain.ErrInvalidArgument), nil)
				return
			}
			topCount = n
		}
		var headers []*multipart.FileHeader
		if r.MultipartForm != nil {
			headers = r.MultipartForm.File["cv_files"]
		}
		if len(headers) == 0 {
			writeError(w, r, fmt.Errorf("%w: missing file field %q", domain.ErrInvalidArgument, "cv_files"), nil)
			return
		}
		files := make([]usecase.CVFile, 0, len(headers))
		cleanups := make([]func(), 0, len(headers))
		defer func() {
			for _, c := range cleanups {
				c()
			}
		}()
		for _, h := range headers {
			path, cleanup, err := stageUpload(h, cvExts)
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			cleanups = append(cleanups, cleanup)
			files = append(files, usecase.CVFile{Name: h.Filename, Path: path})
		}
		res := s.CV.Rank(r.Context(), jobRole, files, topCount)
		writeResult(w, res)
	}
}

// VideoAnalyzeHandler handles the JSON fact-checking endpoint.
func (s *Server) VideoAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r.Header.Get("Accept")) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			VideoURL string `json:"video_url" validate:"required,url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		res := s.Video.Analyze(r.Context(), req.VideoURL)
		writeResult(w, res)
	}
}

// ChatHandler handles one chat turn, minting a conversation id when the
// client did not supply one.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r.Header.Get("Accept")) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Message        string `json:"message"`
			ConversationID string `json:"conversation_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		sessionID := SanitizeSessionID(req.ConversationID)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		reply, err := s.Chat.Send(r.Context(), sessionID, req.Message)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// ChatResetHandler clears a conversation's history.
func (s *Server) ChatResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r.Header.Get("Accept")) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			ConversationID string `json:"conversation_id" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if v := ValidateSessionID(req.ConversationID); !v.Valid {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, v.Errors[0].Message), v.Errors)
			return
		}
		if err := s.Chat.Reset(r.Context(), req.ConversationID); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Conversation reset successfully"})
	}
}

// TranscribeHandler turns an uploaded audio file into plain text.
func (s *Server) TranscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseUpload(w, r) {
			return
		}
		h, err := formFile(r, "audio")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		path, cleanup, err := stageUpload(h, audioExts)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer cleanup()
		text, err := s.Transcriber.TranscribePath(r.Context(), path)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"transcript": text})
	}
}

// DetectLanguageHandler names the dominant language of a text snippet.
func (s *Server) DetectLanguageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notAcceptable(w, r.Header.Get("Accept")) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSON(w, http.StatusOK, map[string]string{"language": "unknown"})
			return
		}
		lang, err := s.Detector.Detect(r.Context(), req.Text)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"language": lang})
	}
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// ReadyzHandler probes the backing services the configured store needs.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		if s.TikaCheck != nil {
			if err := s.TikaCheck(ctx); err != nil {
				checks = append(checks, check{Name: "tika", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "tika", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
