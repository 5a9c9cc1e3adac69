package web

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"home-rugs-studio/internal/credential"
	"home-rugs-studio/internal/export"
	"home-rugs-studio/internal/presets"
	"home-rugs-studio/internal/room"
	"home-rugs-studio/internal/studio"
	"home-rugs-studio/internal/upload"
)

//go:embed static/*
var staticFS embed.FS

const maxUploadBytes = 25 << 20

type Options struct {
	Session   *studio.Session
	Uploads   *upload.Reader
	Exporters map[string]export.Exporter
	Logger    *slog.Logger
}

type Server struct {
	session   *studio.Session
	uploads   *upload.Reader
	exporters map[string]export.Exporter
	logger    *slog.Logger
}

type apiError struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	uploads := opts.Uploads
	if uploads == nil {
		uploads = upload.NewReader(upload.Options{Logger: logger})
	}
	return &Server{
		session:   opts.Session,
		uploads:   uploads,
		exporters: opts.Exporters,
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)

	mux.HandleFunc("POST /api/credential", s.handleSelectCredential)
	mux.HandleFunc("POST /api/credential/check", s.handleCheckCredential)

	mux.HandleFunc("PATCH /api/config", s.handlePatchConfig)
	mux.HandleFunc("POST /api/config/rug-images", s.handleAddRugImages)
	mux.HandleFunc("DELETE /api/config/rug-images/{index}", s.handleRemoveRugImage)
	mux.HandleFunc("PUT /api/config/room-reference", s.handleSetRoomReference)
	mux.HandleFunc("DELETE /api/config/room-reference", s.handleClearRoomReference)

	mux.HandleFunc("POST /api/generate", s.handleGenerate)

	mux.HandleFunc("GET /api/images/{id}", s.handleImage)
	mux.HandleFunc("GET /api/images/{id}/download", s.handleDownload)
	mux.HandleFunc("POST /api/images/{id}/select", s.handleSelect)
	mux.HandleFunc("POST /api/images/{id}/edit", s.handleStartEdit)
	mux.HandleFunc("POST /api/images/{id}/resize", s.handleResize)
	mux.HandleFunc("POST /api/images/{id}/export", s.handleExport)

	mux.HandleFunc("PUT /api/edit", s.handleEditPrompt)
	mux.HandleFunc("POST /api/edit/submit", s.handleSubmitEdit)
	mux.HandleFunc("DELETE /api/edit", s.handleCancelEdit)
	mux.HandleFunc("DELETE /api/current", s.handleClearCurrent)
	mux.HandleFunc("POST /api/alert/dismiss", s.handleDismissAlert)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets", s.handleSavePreset)
	mux.HandleFunc("DELETE /api/presets/{id}", s.handleDeletePreset)
	mux.HandleFunc("POST /api/presets/{id}/load", s.handleLoadPreset)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(staticSub)))

	return withLogging(mux, s.logger)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

type optionsResponse struct {
	AspectRatios []room.NamedOption `json:"aspectRatios"`
	Lenses       []room.NamedOption `json:"lenses"`
	Angles       []room.AngleOption `json:"angles"`
	Lighting     []room.Lighting    `json:"lighting"`
	MaxRugImages int                `json:"maxRugImages"`
	Exports      []string           `json:"exports"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	targets := make([]string, 0, len(s.exporters))
	for name := range s.exporters {
		targets = append(targets, name)
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		AspectRatios: room.AspectRatios(),
		Lenses:       room.Lenses(),
		Angles:       room.Angles(),
		Lighting:     room.LightingOptions(),
		MaxRugImages: room.MaxRugImages,
		Exports:      targets,
	})
}

func (s *Server) handleSelectCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.session.SelectCredential(r.Context(), body.Key); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleCheckCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateView(s.session.CheckCredential(r.Context())))
}

// configPatch carries the fields a client wants to change; nil means keep.
type configPatch struct {
	AspectRatio    *room.AspectRatio `json:"aspectRatio"`
	Lens           *string           `json:"lens"`
	Angle          *float64          `json:"angle"`
	CameraHeight   *int              `json:"cameraHeight"`
	Lighting       *[]room.Lighting  `json:"lighting"`
	RugScale       *int              `json:"rugScale"`
	ExtraPrompt    *string           `json:"extraPrompt"`
	ReferenceAngle *float64          `json:"referenceImageAngle"`
}

func (p configPatch) apply(c room.Config) (room.Config, error) {
	var err error
	if p.AspectRatio != nil {
		if c, err = c.WithAspectRatio(*p.AspectRatio); err != nil {
			return c, err
		}
	}
	if p.Lens != nil {
		if c, err = c.WithLens(*p.Lens); err != nil {
			return c, err
		}
	}
	if p.Angle != nil {
		if c, err = c.WithAngle(*p.Angle); err != nil {
			return c, err
		}
	}
	if p.CameraHeight != nil {
		if c, err = c.WithCameraHeight(*p.CameraHeight); err != nil {
			return c, err
		}
	}
	if p.Lighting != nil {
		if c, err = c.WithLighting(*p.Lighting); err != nil {
			return c, err
		}
	}
	if p.RugScale != nil {
		if c, err = c.WithRugScale(*p.RugScale); err != nil {
			return c, err
		}
	}
	if p.ExtraPrompt != nil {
		c = c.WithExtraPrompt(*p.ExtraPrompt)
	}
	if p.ReferenceAngle != nil {
		if c, err = c.WithReferenceAngle(*p.ReferenceAngle); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch configPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	cfg, err := s.session.UpdateConfig(patch.apply)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleAddRugImages(w http.ResponseWriter, r *http.Request) {
	files, ok := s.parseFiles(w, r, "images")
	if !ok {
		return
	}
	images := s.uploads.ReadAll(r.Context(), files)
	if len(images) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "no readable images"})
		return
	}
	writeJSON(w, http.StatusOK, s.session.AttachRugImages(images))
}

func (s *Server) handleRemoveRugImage(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid index"})
		return
	}
	cfg, err := s.session.RemoveRugImage(idx)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetRoomReference(w http.ResponseWriter, r *http.Request) {
	files, ok := s.parseFiles(w, r, "image")
	if !ok {
		return
	}
	images := s.uploads.ReadAll(r.Context(), files[:1])
	if len(images) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "image is not readable"})
		return
	}
	writeJSON(w, http.StatusOK, s.session.SetRoomReference(&images[0]))
}

func (s *Server) handleClearRoomReference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.SetRoomReference(nil))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Trigger(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newStateView(s.session.Snapshot()))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.session.Image(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "image not found"})
		return
	}
	writeJSON(w, http.StatusOK, newImageView(img))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	img, ok := s.session.Image(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "image not found"})
		return
	}
	data, err := export.Decode(img)
	if err != nil {
		s.writeError(w, err)
		return
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	w.Header().Set("content-type", mimeType)
	w.Header().Set("content-length", strconv.Itoa(len(data)))
	if r.URL.Query().Get("inline") == "" {
		w.Header().Set("content-disposition", `attachment; filename="`+export.Filename(img)+`"`)
	}
	_, _ = w.Write(data)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.session.SelectImage(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartEdit(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AspectRatio room.AspectRatio `json:"aspectRatio"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.session.TriggerResize(r.Context(), r.PathValue("id"), body.AspectRatio); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newStateView(s.session.Snapshot()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target string `json:"target"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	target := strings.TrimSpace(body.Target)
	if target == "" {
		target = "file"
	}
	exporter, ok := s.exporters[target]
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown export target " + strconv.Quote(target)})
		return
	}
	img, ok := s.session.Image(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "image not found"})
		return
	}
	location, err := exporter.Export(r.Context(), img)
	if err != nil {
		s.logger.Warn("export failed", "target", target, "id", img.ID, "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"location": location})
}

func (s *Server) handleEditPrompt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.session.SetEditPrompt(body.Prompt); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleSubmitEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.session.TriggerEdit(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newStateView(s.session.Snapshot()))
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.session.CancelEdit()
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleClearCurrent(w http.ResponseWriter, r *http.Request) {
	s.session.ClearCurrent()
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	s.session.DismissAlert()
	writeJSON(w, http.StatusOK, newStateView(s.session.Snapshot()))
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Presets())
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := s.session.SavePreset(r.Context(), body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	s.session.DeletePreset(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.session.LoadPreset(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) parseFiles(w http.ResponseWriter, r *http.Request, field string) ([]upload.Source, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return nil, false
	}
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing " + field})
		return nil, false
	}
	sources := make([]upload.Source, 0, len(headers))
	for _, fh := range headers {
		sources = append(sources, upload.MultipartSource(fh))
	}
	return sources, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, studio.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, studio.ErrNoCredential):
		status = http.StatusPreconditionFailed
	case errors.Is(err, studio.ErrImageNotFound), errors.Is(err, studio.ErrPresetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrNoImageSelected),
		errors.Is(err, studio.ErrEmptyEdit),
		errors.Is(err, presets.ErrEmptyName),
		errors.Is(err, credential.ErrEmptyKey),
		errors.Is(err, credential.ErrRejected),
		errors.Is(err, room.ErrInvalidAspectRatio),
		errors.Is(err, export.ErrNoData):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
