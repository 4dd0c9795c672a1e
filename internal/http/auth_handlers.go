package httpapi

import (
	"net/http"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string     `json:"accessToken"`
	ExpiresAt   int64      `json:"expiresAt"`
	User        IdentityDTO `json:"user"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	identity, err := s.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	access, exp, err := s.Tokens.CreateAccessToken(identity.UserID, identity.Username, identity.Roles)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Logger.Info().Str("username", identity.Username).Bool("admin", identity.IsAdmin()).Msg("login")
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: access,
		ExpiresAt:   exp,
		User:        toIdentityDTO(identity),
	})
}

// Logout is an acknowledgement; tokens are stateless and expire on their own.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]IdentityDTO{"user": toIdentityDTO(currentIdentity(r))})
}
