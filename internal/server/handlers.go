package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/uploads"
)

const (
	missingJDMessage     = "Please upload or paste a job description."
	missingFilesMessage  = "Please upload at least one resume."
	noResultsMessage     = "No results to download. Run a match first."
	maxJobDescriptionLen = 200_000
)

type matchForm struct {
	JobDescription string `validate:"max=200000"`
	ScoringMethod  string `validate:"max=32"`
	Files          int    `validate:"gte=1,lte=200"`
}

type downloadForm struct {
	TopN    int    `validate:"gte=1"`
	ZipName string `validate:"max=128,excludesall=/\\"`
}

type matchResponse struct {
	BatchID        string      `json:"batch_id"`
	ScoringMethod  string      `json:"scoring_method"`
	JobDescription string      `json:"job_description"`
	Results        results.Set `json:"results"`
}

type resultsResponse struct {
	Results results.Set `json:"results"`
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logger.WithRequest(s.logger, SessionFrom(r.Context()), RequestIDFrom(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	session := SessionFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	form := matchForm{
		JobDescription: strings.TrimSpace(r.FormValue("job_description")),
		ScoringMethod:  strings.TrimSpace(r.FormValue("scoring_method")),
		Files:          len(files),
	}
	if form.ScoringMethod == "" {
		form.ScoringMethod = s.cfg.DefaultMethod
	}

	jd := s.jobDescription(r, form.JobDescription)
	if jd == "" {
		errorResponse(w, http.StatusBadRequest, missingJDMessage)
		return
	}
	if form.Files == 0 {
		errorResponse(w, http.StatusBadRequest, missingFilesMessage)
		return
	}
	if err := s.validate.Struct(form); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	batchID := uuid.NewString()
	docs := make([]matching.Document, 0, len(files))
	for _, fh := range files {
		docs = append(docs, s.document(r, session, batchID, fh))
	}

	batch, err := s.matcher.Run(r.Context(), jd, docs, form.ScoringMethod)
	if err != nil {
		log.Warn("match batch aborted", zap.Error(err))
		errorResponse(w, http.StatusServiceUnavailable, "matching was interrupted")
		return
	}

	if err := s.store.Replace(r.Context(), session, batch.Results); err != nil {
		log.Error("store results", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "failed to store results")
		return
	}
	if s.uploads != nil {
		if err := s.uploads.Prune(session, batchID); err != nil {
			log.Warn("prune previous uploads", zap.Error(err))
		}
	}

	log.Info("match batch finished",
		zap.String("batch_id", batchID),
		zap.String("method", batch.Method),
		zap.Int("resumes", len(batch.Results)),
	)

	jsonResponse(w, http.StatusOK, matchResponse{
		BatchID:        batchID,
		ScoringMethod:  batch.Method,
		JobDescription: batch.JobDescription,
		Results:        batch.Results,
	})
}

// jobDescription prefers an uploaded jd_file when it yields text and falls
// back to the pasted text.
func (s *Server) jobDescription(r *http.Request, pasted string) string {
	file, header, err := r.FormFile("jd_file")
	if err != nil {
		return pasted
	}
	defer file.Close()

	if header.Filename == "" {
		return pasted
	}

	text, err := s.extractor.Extract(r.Context(), header.Filename, file)
	if err != nil {
		s.requestLogger(r).Warn("job description file ignored",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		return pasted
	}
	if text = strings.TrimSpace(text); text != "" {
		if len(text) > maxJobDescriptionLen {
			text = text[:maxJobDescriptionLen]
		}
		return text
	}
	return pasted
}

// document stores the original upload and extracts its text. Failures are
// carried on the document so the batch still lists the file.
func (s *Server) document(r *http.Request, session, batchID string, fh *multipart.FileHeader) matching.Document {
	doc := matching.Document{Filename: fh.Filename}

	if !extract.Supported(fh.Filename) {
		doc.Err = extract.ErrUnsupportedFormat
		return doc
	}

	if s.uploads != nil {
		if f, err := fh.Open(); err == nil {
			path, err := s.uploads.Save(session, batchID, fh.Filename, f)
			f.Close()
			if err != nil {
				s.requestLogger(r).Warn("keep upload", zap.String("filename", fh.Filename), zap.Error(err))
			} else {
				doc.Path = path
			}
		}
	}

	f, err := fh.Open()
	if err != nil {
		doc.Err = err
		return doc
	}
	defer f.Close()

	doc.Text, doc.Err = s.extractor.Extract(r.Context(), fh.Filename, f)
	return doc
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Get(r.Context(), SessionFrom(r.Context()))
	switch {
	case errors.Is(err, results.ErrNotFound):
		set = results.Set{}
	case err != nil:
		s.requestLogger(r).Error("load results", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	jsonResponse(w, http.StatusOK, resultsResponse{Results: set})
}

func (s *Server) handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	topN, err := strconv.Atoi(strings.TrimSpace(r.FormValue("top_n")))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "top_n must be a whole number")
		return
	}
	form := downloadForm{TopN: topN, ZipName: strings.TrimSpace(r.FormValue("zip_name"))}
	if err := s.validate.Struct(form); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := s.store.Get(r.Context(), SessionFrom(r.Context()))
	if errors.Is(err, results.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, noResultsMessage)
		return
	}
	if err != nil {
		log.Error("load results", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	var buf bytes.Buffer
	added, err := uploads.Archive(&buf, set, form.TopN)
	if err != nil {
		log.Error("build archive", zap.Error(err))
		errorResponse(w, http.StatusInternalServerError, "failed to build archive")
		return
	}

	name := uploads.ArchiveName(form.ZipName)
	log.Info("archive ready", zap.String("name", name), zap.Int("files", added), zap.Int("top_n", form.TopN))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
