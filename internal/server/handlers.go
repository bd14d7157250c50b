package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

// Actions accepted in the _action field of POST /form.
const (
	ActionSave   = "save"
	ActionNext   = "next"
	ActionBack   = "back"
	ActionStart  = "start"
	ActionReview = "review"
	ActionSubmit = "submit"
)

// FieldConsent is the consent checkbox; "yes" means checked.
const FieldConsent = "_consent"

var errUnknownAction = errors.New("server: unknown action")

// showForm renders the active screen. A page parameter naming another
// screen is treated as history navigation; anything the session cannot show
// redirects to the canonical URL.
func (s *Server) showForm(c *gin.Context) {
	requested, hasPage := c.GetQuery("page")
	fs, created, err := s.acquire(c, requested)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "session_unavailable", err)
		return
	}
	defer fs.mu.Unlock()

	if hasPage && !created && !fs.engine.Submitted() {
		fs.history.Visit(requested)
	}
	current := fs.engine.CurrentPage()
	if !hasPage || requested != current {
		fs.history.Replace(current)
		s.redirect(c, http.StatusFound, current)
		return
	}
	s.render(c, fs)
}

// postForm records the posted answers of the active page and applies the
// requested action, then redirects to whatever screen is active afterwards.
// Validation and consent failures stay on the screen with their messages.
func (s *Server) postForm(c *gin.Context) {
	fs, _, err := s.acquire(c, "")
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "session_unavailable", err)
		return
	}
	defer fs.mu.Unlock()

	if err := s.parseBody(c); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid_form", err)
		return
	}

	ctx := c.Request.Context()
	current := fs.engine.CurrentPage()
	if posted := c.PostForm(render.FieldPage); fs.engine.Submitted() || posted != current {
		s.logger.Debug("server: stale form post",
			zap.String("session_id", fs.id),
			zap.String("posted", posted),
			zap.String("current", current),
		)
		s.redirect(c, http.StatusSeeOther, current)
		return
	}

	if page, ok := s.cfg.PageByCode(current); ok {
		if err := s.applyAnswers(ctx, c.Request, fs, page); err != nil {
			s.fail(c, http.StatusInternalServerError, "record_failed", err)
			return
		}
	}
	if current == model.PageReview && s.cfg.RequireConsent {
		fs.engine.SetConsent(c.PostForm(FieldConsent) == "yes")
	}

	action := strings.TrimSpace(c.PostForm(render.FieldAction))
	err = s.dispatch(ctx, fs, current, action)
	switch {
	case err == nil:
	case errors.Is(err, errUnknownAction):
		s.fail(c, http.StatusBadRequest, "unknown_action", err)
		return
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, engine.ErrConsentRequired),
		errors.Is(err, engine.ErrAtStart),
		errors.Is(err, engine.ErrUnknownPage):
		s.logger.Debug("server: action kept screen",
			zap.String("session_id", fs.id),
			zap.String("action", action),
			zap.Error(err),
		)
	default:
		s.fail(c, http.StatusInternalServerError, "action_failed", err)
		return
	}
	s.redirect(c, http.StatusSeeOther, fs.engine.CurrentPage())
}

func (s *Server) dispatch(ctx context.Context, fs *formSession, current, action string) error {
	session := fs.engine
	switch action {
	case ActionSave:
		return nil
	case "", ActionNext, ActionSubmit, ActionStart:
		return session.Next(ctx)
	case ActionBack:
		return session.Back(ctx)
	case ActionReview:
		if !s.cfg.ShowReview {
			return session.Next(ctx)
		}
		if _, onPage := s.cfg.PageByCode(current); onPage {
			if result := session.Validate(); !result.Valid {
				return &engine.ValidationError{Result: result}
			}
		}
		return session.GoTo(ctx, model.PageReview)
	default:
		return fmt.Errorf("%w %q", errUnknownAction, action)
	}
}

// postConsent toggles the consent checkbox without submitting.
func (s *Server) postConsent(c *gin.Context) {
	fs, _, err := s.acquire(c, "")
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "session_unavailable", err)
		return
	}
	defer fs.mu.Unlock()

	if !fs.engine.Submitted() {
		fs.engine.SetConsent(c.PostForm(FieldConsent) == "yes")
	}
	s.redirect(c, http.StatusSeeOther, fs.engine.CurrentPage())
}

type responsesPayload struct {
	Page      string          `json:"page"`
	Responses model.Responses `json:"responses"`
	Errors    model.ErrorMap  `json:"errors,omitempty"`
	Consent   bool            `json:"consent"`
	Submitted bool            `json:"submitted"`
}

func (s *Server) responses(c *gin.Context) {
	fs, _, err := s.acquire(c, "")
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "session_unavailable", err)
		return
	}
	defer fs.mu.Unlock()

	c.JSON(http.StatusOK, responsesPayload{
		Page:      fs.engine.CurrentPage(),
		Responses: fs.engine.Responses(),
		Errors:    fs.engine.Errors(),
		Consent:   fs.engine.Consent(),
		Submitted: fs.engine.Submitted(),
	})
}

func (s *Server) submission(c *gin.Context) {
	fs, _, err := s.acquire(c, "")
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "session_unavailable", err)
		return
	}
	defer fs.mu.Unlock()

	if fs.submission == nil {
		s.fail(c, http.StatusNotFound, "not_submitted", errors.New("form has not been submitted"))
		return
	}
	c.JSON(http.StatusOK, fs.submission)
}

// render writes the active screen with the renderer named by ?format=, or
// the configured default.
func (s *Server) render(c *gin.Context, fs *formSession) {
	screen := fs.engine.Screen()
	ctx, span := s.tracer.Start(c.Request.Context(), "formflow.render", trace.WithAttributes(
		attribute.String("formflow.form", s.cfg.Slug),
		attribute.String("formflow.screen", screen.Code),
		attribute.String("formflow.kind", string(screen.Kind)),
	))
	defer span.End()

	name := c.Query("format")
	if name == "" {
		name = s.renderer
	}
	renderer, err := s.renderers.Get(name)
	if err != nil {
		s.fail(c, http.StatusNotAcceptable, "unknown_format", err)
		return
	}

	messages := render.MergeMessages(fs.takeNotices(), render.ErrorSummary(screen)...)
	out, err := renderer.Render(ctx, screen, render.RenderOptions{
		Action:   PathForm,
		Messages: messages,
		Theme:    s.resolveTheme(c),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.fail(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	c.Data(http.StatusOK, renderer.ContentType(), out)
}

// resolveTheme picks the theme of one render. A failed lookup is logged and
// the screen renders unthemed.
func (s *Server) resolveTheme(c *gin.Context) *theme.RendererConfig {
	if s.themes == nil {
		return nil
	}
	name := c.DefaultQuery("theme", s.themeName)
	variant := c.DefaultQuery("variant", s.variant)
	cfg, err := render.ResolveTheme(s.themes, name, variant, nil)
	if err != nil {
		s.logger.Warn("server: theme unavailable",
			zap.String("theme", name),
			zap.String("variant", variant),
			zap.Error(err),
		)
		return nil
	}
	return cfg
}

func (s *Server) redirect(c *gin.Context, status int, code string) {
	target := PathForm + "?page=" + url.QueryEscape(code)
	for _, key := range []string{"format", "theme", "variant"} {
		if value := c.Query(key); value != "" {
			target += "&" + key + "=" + url.QueryEscape(value)
		}
	}
	c.Redirect(status, target)
}

func (s *Server) parseBody(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.ParseMultipartForm(s.maxUpload)
	}
	return c.Request.ParseForm()
}
