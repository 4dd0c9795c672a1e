package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type PagedResponse struct {
	Items    []UserDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

type AdminUserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type NightModeResponse struct {
	UserID    string `json:"userId,omitempty"`
	NightMode bool   `json:"nightMode"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	pageSize := parseInt(r.URL.Query().Get("pageSize"), 50)
	if pageSize > 200 {
		pageSize = 200
	}
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	users, err := s.Users.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	matched := make([]UserDTO, 0, len(users))
	for _, user := range users {
		if search != "" && !strings.Contains(strings.ToLower(user.Username), search) {
			continue
		}
		matched = append(matched, toUserDTO(user))
	}
	start, end := pageBounds(page, pageSize, len(matched))
	WriteJSON(w, http.StatusOK, PagedResponse{Items: matched[start:end], Total: len(matched), Page: page, PageSize: pageSize})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	user, err := s.Users.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user created")
	WriteJSON(w, http.StatusCreated, toUserDTO(user))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := s.Users.Delete(r.Context(), userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Logger.Info().Str("user_id", userID).Msg("user deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.Users.ResetPassword(r.Context(), userID, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AdminNightModeStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	on, err := s.NightMode.Status(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NightModeResponse{UserID: userID, NightMode: on})
}

func (s *Server) AdminToggleNightMode(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	on, err := s.NightMode.Toggle(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NightModeResponse{UserID: userID, NightMode: on})
}

// pageBounds returns the slice bounds of page in a list of total items. page
// and pageSize are at least 1; pages past the end are empty.
func pageBounds(page, pageSize, total int) (int, int) {
	if page-1 >= (total+pageSize-1)/pageSize {
		return total, total
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}
