// internal/ackserver/server.go

// Package ackserver serves the acknowledgement link endpoint. A click on an
// emailed link lands here; the decision travels inside the link token, so the
// endpoint is stateless and safe to retry.
package ackserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	commonerrors "github.com/AdeptTechSolutions/Auto-GRC/internal/common/errors"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/metrics"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
)

// Ledger is the slice of the store the endpoint needs.
type Ledger interface {
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	UpdateAcknowledgementStatus(ctx context.Context, policyID, employeeID int64, status models.AckStatus) (bool, error)
	CountAcknowledgementsByStatus(ctx context.Context) (map[models.AckStatus]int, error)
}

type Server struct {
	ledger    Ledger
	codec     linkcodec.Codec
	logger    logger.Logger
	appName   string
	version   string
	startedAt time.Time
}

func New(ledger Ledger, codec linkcodec.Codec, log logger.Logger, appName, version string) *Server {
	return &Server{
		ledger:    ledger,
		codec:     codec,
		logger:    log.WithFields(map[string]interface{}{"component": "ackserver"}),
		appName:   appName,
		version:   version,
		startedAt: time.Now().UTC(),
	}
}

// Handler returns the endpoint mux. Prometheus metrics are mounted by the
// server binary, not here.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/acknowledge", s.handleAcknowledge)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := r.URL.Query().Get("data")
	if token == "" {
		s.writeError(w, commonerrors.NewMissingPayloadError())
		return
	}

	payload, err := s.codec.Decode(token)
	if err != nil {
		var decodeErr *linkcodec.DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Malformed {
			s.writeError(w, commonerrors.NewMalformedPayloadError(err))
			return
		}
		s.writeError(w, commonerrors.NewInvalidPayloadError(err.Error()))
		return
	}

	ctx := r.Context()

	employee, err := s.ledger.GetEmployeeByEmail(ctx, payload.Email)
	if err != nil {
		s.writeError(w, commonerrors.NewStorageError("get employee", err))
		return
	}
	if employee == nil {
		s.writeError(w, commonerrors.NewUnknownRecipientError(payload.Email))
		return
	}

	status := models.AckAcknowledged
	if payload.Status == linkcodec.DecisionNak {
		status = models.AckDeclined
	}

	// Last write wins: a repeated click re-applies the same status, an
	// opposite click overwrites it.
	updated, err := s.ledger.UpdateAcknowledgementStatus(ctx, payload.PolicyID, employee.ID, status)
	if err != nil {
		s.writeError(w, commonerrors.NewStorageError("update acknowledgement", err))
		return
	}
	if !updated {
		s.writeError(w, commonerrors.NewNoSuchAcknowledgementError(payload.PolicyID, employee.ID))
		return
	}

	metrics.AcknowledgementsRecorded.WithLabelValues(string(status)).Inc()
	s.logger.Info("acknowledgement recorded", map[string]interface{}{
		"policyId":   payload.PolicyID,
		"employeeId": employee.ID,
		"status":     status,
	})

	s.writeConfirmation(w, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": s.appName,
		"version": s.version,
		"uptime":  time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.ledger.CountAcknowledgementsByStatus(r.Context())
	if err != nil {
		s.writeError(w, commonerrors.NewStorageError("count acknowledgements", err))
		return
	}

	total := 0
	byStatus := make(map[string]int, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
	})
}

func (s *Server) writeError(w http.ResponseWriter, stdErr *commonerrors.StandardError) {
	metrics.EndpointErrors.WithLabelValues(string(stdErr.Code)).Inc()
	s.logger.Warn("acknowledgement request rejected", map[string]interface{}{
		"code":    stdErr.Code,
		"details": stdErr.Details,
	})
	renderErrorPage(w, commonerrors.HTTPStatus(stdErr.Code), stdErr)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
