package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/scraper"
	"github.com/neonlead/leadscraper/internal/search"
)

type scrapeRequest struct {
	URLs        []string `json:"urls"`
	Render      bool     `json:"render"`
	Concurrency int      `json:"concurrency"`
	TimeoutMs   int      `json:"timeout_ms"`
}

type searchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type exportRequest struct {
	Rows []scraper.ContactRecord `json:"rows"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	params, ok := s.decodeBatch(w, r)
	if !ok {
		return
	}
	records := s.orch.RunBatch(r.Context(), params)
	writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	params, ok := s.decodeBatch(w, r)
	if !ok {
		return
	}
	if s.queue == nil {
		writeError(w, http.StatusBadRequest, "job mode requires a configured queue")
		return
	}

	jobID, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate job id failed")
		return
	}
	job := scraper.Job{
		ID:        jobID,
		Status:    scraper.JobStatusQueued,
		Params:    params,
		CreatedAt: s.clock.Now(),
	}
	if err := s.jobStore.CreateJob(r.Context(), job); err != nil {
		s.logger.Error("create job failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create job failed")
		return
	}
	if err := s.queue.Enqueue(r.Context(), scraper.QueueItem{JobID: jobID, Params: params}); err != nil {
		s.logger.Error("enqueue job failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enqueue job failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) getJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobStore.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) getJobResults(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := s.jobStore.GetJob(r.Context(), jobID); err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	records, err := s.jobStore.ListResults(r.Context(), jobID)
	if err != nil {
		s.logger.Error("list results failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch job results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"org", "url", "title", "emails", "phones", "socials", "ok", "error"}
	if err := writer.Write(header); err != nil {
		writeError(w, http.StatusInternalServerError, "csv write failed")
		return
	}
	for _, row := range req.Rows {
		ok := "false"
		if row.OK {
			ok = "true"
		}
		record := []string{
			row.Org,
			row.URL,
			row.Title,
			strings.Join(row.Emails, ","),
			strings.Join(row.Phones, ","),
			strings.Join(row.Socials, ","),
			ok,
			row.Error,
		}
		if err := writer.Write(record); err != nil {
			writeError(w, http.StatusInternalServerError, "csv write failed")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		writeError(w, http.StatusInternalServerError, "csv write failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename": "leads.csv",
		"content":  buf.String(),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	urls, err := s.searcher.Search(r.Context(), req.Query, req.Count)
	if err != nil {
		if errors.Is(err, search.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, "no search key configured; upload a CSV of URLs instead")
			return
		}
		s.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusBadGateway, "search provider failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
}

func (s *Server) decodeBatch(w http.ResponseWriter, r *http.Request) (scraper.BatchParams, bool) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return scraper.BatchParams{}, false
	}
	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if strings.TrimSpace(u) != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return scraper.BatchParams{}, false
	}
	params := scraper.BatchParams{
		URLs:        urls,
		Render:      req.Render,
		Concurrency: req.Concurrency,
		TimeoutMs:   req.TimeoutMs,
	}
	if params.Concurrency == 0 {
		params.Concurrency = s.cfg.Scraper.DefaultConcurrency
	}
	if params.TimeoutMs == 0 {
		params.TimeoutMs = s.cfg.Scraper.DefaultTimeoutMs
	}
	if params.Render && !s.cfg.Scraper.HeadlessEnabled {
		writeError(w, http.StatusBadRequest, "rendered fetch is disabled")
		return scraper.BatchParams{}, false
	}
	return params, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
