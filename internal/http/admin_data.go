package httpapi

import (
	"bytes"
	"net/http"
	"strings"

	"pintlog-backend-go/internal/services"
)

const maxImportSize = 10 << 20

func (s *Server) TopDrinkers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Ranking.TopDrinkers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

func (s *Server) ExportAll(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Transfer.ExportAll(r.Context(), &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeCSV(w, "consumption-all.csv", buf.Bytes())
}

// Import reads the multipart "file" field. With a "userId" form value every
// row belongs to that user; otherwise rows carry a user column.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	opts := services.ImportOptions{WithUser: true}
	if userID := strings.TrimSpace(r.FormValue("userId")); userID != "" {
		if _, err := s.Users.Get(r.Context(), userID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		opts = services.ImportOptions{UserID: userID}
	}
	result, err := s.Transfer.Import(r.Context(), file, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Metrics.AddImportedRows(result.Imported, len(result.Errors))
	s.Logger.Info().
		Int("imported", result.Imported).
		Int("rejected", len(result.Errors)).
		Int("created_users", len(result.CreatedUsers)).
		Msg("csv import")
	WriteJSON(w, http.StatusOK, result)
}
