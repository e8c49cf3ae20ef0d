package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/socratic/internal/session"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads and validates a JSON body into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &badRequestError{msg: "invalid JSON body: " + err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &badRequestError{msg: describeValidation(verrs)}
		}
		return &badRequestError{msg: err.Error()}
	}
	return nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	problem := session.ProblemRef{ID: req.ProblemID, Text: req.Problem}
	sess, err := s.svc.Begin(r.Context(), problem, OwnerFromContext(r.Context()), req.Difficulty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, newSessionView(sess, s.sessionTimeout))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"), OwnerFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newSessionView(sess, s.sessionTimeout))
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	turn, err := s.svc.Continue(r.Context(), chi.URLParam(r, "id"), req.Content, OwnerFromContext(r.Context()), req.Difficulty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newTurnView(turn))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.End(r.Context(), chi.URLParam(r, "id"), OwnerFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
