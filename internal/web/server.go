// Package web serves the browser front-end: the campaign form, the live
// status panel and the banner grid, plus a small JSON API over the same
// session state.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"adgenius/internal/ad"
	"adgenius/internal/banner"
	"adgenius/internal/campaign"
	"adgenius/internal/session"
)

const sessionCookie = "adgenius_session"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

type Options struct {
	Sessions     *session.Store
	Logger       *slog.Logger
	SecureCookie bool
}

type Server struct {
	sessions     *session.Store
	logger       *slog.Logger
	secureCookie bool
	tmpl         *template.Template
	mux          *http.ServeMux
}

type apiError struct {
	Error string `json:"error"`
}

func New(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session store is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"swatch": banner.SwatchStyle,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	s := &Server{
		sessions:     opts.Sessions,
		logger:       logger,
		secureCookie: opts.SecureCookie,
		tmpl:         tmpl,
		mux:          http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/campaign", s.handleCampaignStatus)
	s.mux.HandleFunc("POST /api/campaign", s.handleCampaignStart)
	s.mux.HandleFunc("GET /api/sizes", s.handleSizes)
	s.mux.HandleFunc("GET /api/samples", s.handleSamples)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return withLogging(s.mux, s.logger)
}

type sampleLink struct {
	Index int
	Label string
	Title string
}

type pageData struct {
	Description string
	URL         string
	Samples     []sampleLink

	Status      campaign.Status
	StatusLabel string
	Busy        bool
	Error       string

	Result  *ad.GeneratedAd
	Banners []banner.Banner

	Year int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	st := sess.Campaign.Snapshot()

	data := pageData{
		Description: st.Description,
		URL:         st.URL,
		Status:      st.Status,
		StatusLabel: st.Status.Label(),
		Busy:        st.Status.IsActive(),
		Error:       st.Error,
		Year:        time.Now().Year(),
	}

	if raw := r.URL.Query().Get("sample"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil {
			if sample, ok := ad.SampleAt(idx); ok {
				data.Description = sample.Description
				data.URL = sample.URL
			}
		}
	}

	for i, sample := range ad.Samples() {
		data.Samples = append(data.Samples, sampleLink{Index: i, Label: sample.Short(), Title: sample.Description})
	}

	if st.Status == campaign.StatusCompleted && st.Result != nil {
		data.Result = st.Result
		data.Banners = banner.RenderAll(st.Result.Copy, st.Result.Image)
	}

	w.Header().Set("content-type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("render index failed", "err", err)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	description := r.PostFormValue("description")
	url := strings.TrimSpace(r.PostFormValue("url"))

	if _, err := sess.Campaign.Start(context.WithoutCancel(r.Context()), description, url); err != nil {
		if !errors.Is(err, campaign.ErrBusy) {
			s.logger.Error("start campaign failed", "session", sess.ID, "err", err)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type generateRequest struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

type bannerResponse struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Class  string `json:"class"`
}

type campaignResponse struct {
	Status      string           `json:"status"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	URL         string           `json:"url,omitempty"`
	Error       string           `json:"error,omitempty"`
	Copy        *ad.Copy         `json:"copy,omitempty"`
	Image       string           `json:"image,omitempty"`
	Banners     []bannerResponse `json:"banners,omitempty"`
}

func (s *Server) handleCampaignStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, toCampaignResponse(sess.Campaign.Snapshot()))
}

func (s *Server) handleCampaignStart(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = 64 << 10
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}

	sess := s.session(w, r)
	started, err := sess.Campaign.Start(context.WithoutCancel(r.Context()), req.Description, strings.TrimSpace(req.URL))
	switch {
	case errors.Is(err, campaign.ErrBusy):
		writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	case !started:
		writeJSON(w, http.StatusBadRequest, apiError{Error: "description is required"})
		return
	}

	writeJSON(w, http.StatusAccepted, toCampaignResponse(sess.Campaign.Snapshot()))
}

func (s *Server) handleSizes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ad.Sizes())
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ad.Samples())
}

func toCampaignResponse(st campaign.State) campaignResponse {
	out := campaignResponse{
		Status:      st.Status.String(),
		Label:       st.Status.Label(),
		Description: st.Description,
		URL:         st.URL,
		Error:       st.Error,
	}

	if st.Status == campaign.StatusCompleted && st.Result != nil {
		c := st.Result.Copy
		out.Copy = &c
		out.Image = st.Result.Image.DataURL()
		for _, b := range banner.RenderAll(st.Result.Copy, st.Result.Image) {
			out.Banners = append(out.Banners, bannerResponse{
				Name:   b.Size.Name,
				Label:  b.Size.Label,
				Width:  b.Size.Width,
				Height: b.Size.Height,
				Class:  string(b.Class),
			})
		}
	}

	return out
}

// session resolves the visitor's session from the cookie, issuing a new one
// when the cookie is missing, malformed or expired server-side.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return s.sessions.GetOrCreate(id.String())
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.GetOrCreate(id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "status", rec.status, "dur_ms", time.Since(start).Milliseconds())
	})
}
