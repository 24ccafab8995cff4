package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/calllist/internal/core"
	"github.com/JonMunkholm/calllist/internal/logging"
	"github.com/JonMunkholm/calllist/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// errNoFile is matched by the FILE004 message pattern.
var errNoFile = errors.New("no file provided")

// handleIndex renders the page for the caller's session. A date query
// parameter selects the day shown.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := selectDateFromQuery(sess, r); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(toPageData(sess.View())).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleState returns the session view.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, toViewResponse(sessionFrom(r.Context()).View()))
}

// handleImport reads the uploaded file and returns its headers with a
// suggested mapping. The session moves to mapping, or to error on failure.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := core.ReadAllLimited(file, maxSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	analysis, err := sess.Import(ctx, header.Filename, data)
	if err != nil {
		s.respondSessionError(w, r, sess, err)
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, AnalysisResponse{
		FileName:  header.Filename,
		Headers:   analysis.Headers,
		Suggested: analysis.Suggested,
		Source:    analysis.Source,
	})
}

// handleMapping confirms the column mapping. It accepts a JSON body or the
// page's form fields.
func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	m, err := parseMapping(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := sess.ConfirmMapping(r.Context(), m); err != nil {
		s.respondSessionError(w, r, sess, err)
		return
	}
	s.respondView(w, r, sess)
}

func parseMapping(r *http.Request) (core.FieldMapping, error) {
	var m core.FieldMapping
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			return m, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
		}
		return m, nil
	}

	if err := r.ParseForm(); err != nil {
		return m, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	m.NameKey = r.PostFormValue("nameKey")
	m.PhoneKey = r.PostFormValue("phoneKey")
	m.DateKey = r.PostFormValue("dateKey")
	m.DescriptionKey = r.PostFormValue("descriptionKey")
	return m, nil
}

// handleCancel abandons a pending mapping.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Cancel()
	s.respondView(w, r, sess)
}

// handleReset clears the session back to idle.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Reset()
	logging.FromContext(r.Context()).Info("session reset")
	s.respondView(w, r, sess)
}

// handleRecords returns the records of one day. An empty date clears the
// selection; no date parameter keeps the current one.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := selectDateFromQuery(sess, r); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, toViewResponse(sess.View()))
}

// handleSave persists the current batch.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Save(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondView(w, r, sess)
}

// handleClearSaved deletes the saved batch and resets the session.
func (s *Server) handleClearSaved(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.ClearSaved(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondView(w, r, sess)
}

// HealthResponse reports liveness and load.
type HealthResponse struct {
	Status   string             `json:"status"`
	Sessions int                `json:"sessions"`
	Decodes  core.LimiterStatus `json:"decodes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:   "ok",
		Sessions: s.sessions.Len(),
		Decodes:  s.imp.Limiter().Status(),
	})
}

// respondView answers API callers with the view and browser forms with a
// redirect back to the page.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, toViewResponse(sess.View()))
}

// respondSessionError reports a failure the session recorded. Browser forms
// are sent back to the page, which shows the session's error.
func (s *Server) respondSessionError(w http.ResponseWriter, r *http.Request, sess *core.Session, err error) {
	if !wantsJSON(r) && !isHTMX(r) && sess.Status() == core.StatusError {
		logging.FromContext(r.Context()).Warn("import failed", "error", err, "code", core.MapError(err).Code)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.respondError(w, r, err)
}

func selectDateFromQuery(sess *core.Session, r *http.Request) error {
	values, ok := r.URL.Query()["date"]
	if !ok {
		return nil
	}

	raw := strings.TrimSpace(values[0])
	if raw == "" {
		sess.SelectDate(nil)
		return nil
	}

	day, err := core.ParseDay(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidDate, raw)
	}
	sess.SelectDate(&day)
	return nil
}
