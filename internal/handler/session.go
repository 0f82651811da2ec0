package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sourceplane/designbridge/internal/detect"
	"github.com/sourceplane/designbridge/internal/diagnostic"
	"github.com/sourceplane/designbridge/internal/loader"
	"github.com/sourceplane/designbridge/internal/model"
	"github.com/sourceplane/designbridge/internal/normalize"
	"github.com/sourceplane/designbridge/internal/session"
)

// SessionHandler serves editing sessions
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler creates a session handler
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// SessionView is the reply describing a session
type SessionView struct {
	ID       string                  `json:"id"`
	Format   detect.FormatType       `json:"format"`
	Document interface{}             `json:"document"`
	Data     model.Record            `json:"data"`
	Warnings []diagnostic.Diagnostic `json:"warnings"`
}

func view(id string, s *session.Session) SessionView {
	return SessionView{
		ID:       id,
		Format:   s.Format,
		Document: s.Document(),
		Data:     s.Data,
		Warnings: s.Warnings(),
	}
}

// CreateSession starts a session, optionally seeded with a document
func (h *SessionHandler) CreateSession(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		Error(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	id := h.store.Create()
	var result SessionView
	err = h.store.With(id, func(s *session.Session) error {
		if len(body) > 0 {
			doc, err := loader.ParseDocument(body)
			if err != nil {
				return err
			}
			if err := s.ApplyDocument(doc); err != nil {
				return err
			}
		}
		result = view(id, s)
		return nil
	})
	if err != nil {
		_ = h.store.Delete(id)
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	Success(c, result)
}

// GetSession returns the session state
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	var result SessionView
	err := h.store.With(id, func(s *session.Session) error {
		result = view(id, s)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, result)
}

// DeleteSession drops a session
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	Success(c, nil)
}

// ApplyDocument replaces the session document; invalid OCA keeps the previous one
func (h *SessionHandler) ApplyDocument(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}
	h.update(c, func(s *session.Session) error {
		return s.ApplyDocument(doc)
	})
}

// ReplaceData replaces the bound data
func (h *SessionHandler) ReplaceData(c *gin.Context) {
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(c, func(s *session.Session) error {
		return s.ReplaceData(data)
	})
}

// FieldUpdate is the body of SetField
type FieldUpdate struct {
	Path  string          `json:"path" binding:"required"`
	Value json.RawMessage `json:"value"`
}

// SetField writes one value into the bound data
func (h *SessionHandler) SetField(c *gin.Context) {
	var req FieldUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationError(c, []ErrorItem{{Field: "path", Message: "path is required"}})
		return
	}

	var value interface{} = ""
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			ValidationError(c, []ErrorItem{{Field: "value", Message: "value must be JSON"}})
			return
		}
	}
	h.update(c, func(s *session.Session) error {
		return s.SetField(req.Path, value)
	})
}

// FormatSwitch is the body of SwitchFormat
type FormatSwitch struct {
	Target string `json:"target" binding:"required"`
}

// SwitchFormat converts the session document into the target format
func (h *SessionHandler) SwitchFormat(c *gin.Context) {
	var req FormatSwitch
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationError(c, []ErrorItem{{Field: "target", Message: "target is required"}})
		return
	}
	target, err := detect.ParseFormatType(req.Target)
	if err != nil {
		ValidationError(c, []ErrorItem{{Field: "target", Message: err.Error()}})
		return
	}
	h.update(c, func(s *session.Session) error {
		return s.SwitchFormat(target)
	})
}

// Shape returns the data shape of the session document
func (h *SessionHandler) Shape(c *gin.Context) {
	var shape *normalize.Shape
	err := h.store.With(c.Param("id"), func(s *session.Session) error {
		shape = s.Shape()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, shape)
}

// Preview renders the session document with its data
func (h *SessionHandler) Preview(c *gin.Context) {
	var preview interface{}
	err := h.store.With(c.Param("id"), func(s *session.Session) error {
		preview = s.Preview()
		if preview == nil {
			return session.ErrNoDocument
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, preview)
}

// update runs a mutation and replies with the new session state
func (h *SessionHandler) update(c *gin.Context, fn func(*session.Session) error) {
	id := c.Param("id")
	var result SessionView
	err := h.store.With(id, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		result = view(id, s)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, result)
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrInvalidSpecification):
		ValidationError(c, []ErrorItem{{Code: "invalid_specification", Message: err.Error()}})
	case errors.Is(err, session.ErrNoDocument), errors.Is(err, session.ErrUnknownFormat):
		Error(c, http.StatusUnprocessableEntity, err.Error())
	default:
		Error(c, http.StatusBadRequest, err.Error())
	}
}
