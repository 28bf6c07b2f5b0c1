// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loopers/commerce-api/internal/authn"
	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
)

type signupRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	LoginID  string `json:"loginId"`
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
	Email    string `json:"email"`
}

type resultResponse struct {
	Result string `json:"result"`
}

func toUserResponse(p user.Principal) userResponse {
	return userResponse{
		ID:       p.ID.String(),
		LoginID:  p.LoginID,
		Name:     p.Name,
		Birthday: p.Birthday.Format(user.BirthdayLayout),
		Email:    p.Email,
	}
}

// newValidator reports fields by their JSON names.
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

// decodeJSON decodes and validates the request body into dst.
// It writes the 400 response itself and returns false on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "request body must be valid JSON")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			writeError(w, http.StatusBadRequest, string(user.KindBadRequest),
				"missing required fields: "+strings.Join(fields, ", "))
			return false
		}
		s.writeFailure(w, r, err)
		return false
	}
	return true
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decodeJSON(w, r, &req) {
		observability.RecordSignup(observability.ResultFailure)
		return
	}

	u, err := s.users.Signup(r.Context(), user.SignupCommand{
		LoginID:  req.LoginID,
		Password: req.Password,
		Name:     req.Name,
		Birthday: req.Birthday,
		Email:    req.Email,
	})
	if err != nil {
		observability.RecordSignup(observability.ResultFailure)
		s.writeFailure(w, r, err)
		return
	}

	observability.RecordSignup(observability.ResultSuccess)
	writeJSON(w, http.StatusOK, toUserResponse(u.Principal()))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := authn.PrincipalFrom(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(p))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := authn.PrincipalFrom(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	var req changePasswordRequest
	if !s.decodeJSON(w, r, &req) {
		observability.RecordPasswordChange(observability.ResultFailure)
		return
	}

	err = s.users.ChangePassword(r.Context(), user.ChangePasswordCommand{
		LoginID:         p.LoginID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		observability.RecordPasswordChange(observability.ResultFailure)
		s.writeFailure(w, r, err)
		return
	}

	observability.RecordPasswordChange(observability.ResultSuccess)
	writeJSON(w, http.StatusOK, resultResponse{Result: "success"})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.FindByLoginID(r.Context(), chi.URLParam(r, "loginId"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u.Principal()))
}
