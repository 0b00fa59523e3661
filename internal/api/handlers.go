/**
 * @description
 * This file contains the HTTP handler functions for the dispatch-service.
 * Handlers parse incoming requests, call the business logic in the app layer,
 * and write JSON responses. The admin trigger always answers with a
 * structured result, including per-account outcomes on partial failure.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/GOALETE/dispatch-service/internal/app"
	"github.com/GOALETE/dispatch-service/internal/domain"
)

// Reporter publishes reports of manually triggered runs.
type Reporter interface {
	PublishManualReport(ctx context.Context, report *domain.DispatchReport)
}

// Handler holds the application service that handlers interact with.
// Incoming civil dates are interpreted in loc, the service's fixed offset.
type Handler struct {
	service  *app.Service
	reporter Reporter
	loc      *time.Location
}

// NewHandler creates a new Handler. reporter may be nil.
func NewHandler(service *app.Service, reporter Reporter, loc *time.Location) *Handler {
	return &Handler{service: service, reporter: reporter, loc: loc}
}

const dateLayout = "2006-01-02"

type checkSubscriptionRequest struct {
	Emails        []string `json:"emails"`
	PlanType      string   `json:"plan_type"`
	ProposedStart string   `json:"proposed_start,omitempty"`
	ProposedEnd   string   `json:"proposed_end,omitempty"`
}

// handleCheckSubscription answers whether the given accounts may take a new
// subscription window. Used by the signup flow; advisory only.
func (h *Handler) handleCheckSubscription(w http.ResponseWriter, r *http.Request) {
	var req checkSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		respondWithError(w, http.StatusBadRequest, "At least one email is required")
		return
	}

	start, end, err := parseWindow(req.ProposedStart, req.ProposedEnd, h.loc)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CanSubscribe(r.Context(), req.Emails, domain.PlanType(req.PlanType), start, end)
	if err != nil {
		if errors.Is(err, app.ErrInvalidRange) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type createSubscriptionRequest struct {
	Email        string `json:"email"`
	PlanType     string `json:"plan_type"`
	PaymentState string `json:"payment_state"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// handleCreateSubscription creates a subscription. A lost race against
// another purchase surfaces as 409.
func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, end, err := parseWindow(req.StartDate, req.EndDate, h.loc)
	if err != nil || start == nil || end == nil {
		respondWithError(w, http.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}

	sub := &domain.Subscription{
		AccountEmail: req.Email,
		PlanType:     domain.PlanType(req.PlanType),
		Status:       domain.StatusActive,
		PaymentState: req.PaymentState,
		StartDate:    *start,
		EndDate:      *end,
	}

	created, err := h.service.CreateSubscription(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidRange):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrNoLongerEligible):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

type runDispatchRequest struct {
	Date string `json:"date,omitempty"`
}

type runDispatchResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Report  *domain.DispatchReport `json:"report,omitempty"`
}

// handleRunDispatch is the manual admin trigger. It invokes the same pipeline
// as the scheduled job and always returns a structured result; partial
// per-account failure is a success at the run level.
func (h *Handler) handleRunDispatch(w http.ResponseWriter, r *http.Request) {
	var req runDispatchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	date := time.Time{}
	if req.Date != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.Date, h.loc)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	report, err := h.service.RunDailyDispatch(r.Context(), date)
	if err != nil {
		respondWithJSON(w, http.StatusBadGateway, runDispatchResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if h.reporter != nil {
		h.reporter.PublishManualReport(r.Context(), report)
	}

	respondWithJSON(w, http.StatusOK, runDispatchResponse{
		Success: true,
		Message: "dispatch completed",
		Report:  report,
	})
}

// handleGetTodayMeeting resolves and returns today's canonical meeting.
func (h *Handler) handleGetTodayMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.service.ResolveMeeting(r.Context(), h.service.Today())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, meeting)
}

func parseWindow(start, end string, loc *time.Location) (*time.Time, *time.Time, error) {
	if start == "" && end == "" {
		return nil, nil, nil
	}
	if start == "" || end == "" {
		return nil, nil, errors.New("proposed_start and proposed_end must be given together (YYYY-MM-DD)")
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return nil, nil, errors.New("proposed_start must be YYYY-MM-DD")
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return nil, nil, errors.New("proposed_end must be YYYY-MM-DD")
	}
	return &s, &e, nil
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
