package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"pintlog-backend-go/internal/models"
	"pintlog-backend-go/internal/services"
)

type SetNightModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	result, err := s.Stats.Compute(r.Context(), CurrentUserID(r), rng)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if len(result.Warnings) > 0 {
		s.Metrics.AddWarningsServed(len(result.Warnings))
	}
	WriteJSON(w, http.StatusOK, result)
}

func parseDateRange(r *http.Request) (models.DateRange, error) {
	var rng models.DateRange
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("start_date")); raw != "" {
		date, err := services.NormalizeDate(raw)
		if err != nil {
			return rng, err
		}
		rng.Start = date
	}
	if raw := strings.TrimSpace(query.Get("end_date")); raw != "" {
		date, err := services.NormalizeDate(raw)
		if err != nil {
			return rng, err
		}
		rng.End = date
	}
	return rng, nil
}

func (s *Server) AddConsumption(w http.ResponseWriter, r *http.Request) {
	var req services.AddRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	userID := CurrentUserID(r)
	record, err := s.Consumption.Add(r.Context(), userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Metrics.IncEntriesAdded()
	s.Logger.Debug().Str("user_id", userID).Str("date", record.Date).Str("time", record.Time).Msg("consumption added")
	WriteJSON(w, http.StatusOK, record)
}

func (s *Server) ExportOwn(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Transfer.ExportUser(r.Context(), CurrentUserID(r), &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("consumption-%s.csv", safeFilename(CurrentUsername(r))), buf.Bytes())
}

func (s *Server) GetNightMode(w http.ResponseWriter, r *http.Request) {
	on, err := s.NightMode.Status(r.Context(), CurrentUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NightModeResponse{NightMode: on})
}

func (s *Server) SetNightMode(w http.ResponseWriter, r *http.Request) {
	var req SetNightModeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.NightMode.Set(r.Context(), CurrentUserID(r), req.Enabled); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NightModeResponse{NightMode: req.Enabled})
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func safeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if cleaned == "" {
		return "export"
	}
	return cleaned
}
