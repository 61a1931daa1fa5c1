package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ladder/internal/domain/timewindow"
)

// TimeWindowHandler serves the time-window, bonus and urgency routes.
type TimeWindowHandler struct {
	clock Clock
}

// NewTimeWindowHandler creates a new time-window handler.
func NewTimeWindowHandler(clock Clock) *TimeWindowHandler {
	return &TimeWindowHandler{clock: clock}
}

type timeWindowRequest struct {
	ActionTime  time.Time `json:"actionTime"`
	WindowHours float64   `json:"windowHours"`
}

type timeWindowResponse struct {
	timewindow.Result
	Urgency  timewindow.Urgency `json:"urgency"`
	Deadline time.Time          `json:"deadline"`
}

// HandleValidate handles POST /v1/time-windows/validate.
func (h *TimeWindowHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_time_window"
	var req timeWindowRequest
	if err := decode(r, schemaTimeWindow, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := timewindow.ValidateTimeWindow(req.ActionTime, req.WindowHours, h.clock.Now())
	observe("time_window", res.IsValid, start)

	writeJSON(w, http.StatusOK, timeWindowResponse{
		Result:   res,
		Urgency:  timewindow.GetUrgencyLevel(res.Remaining()),
		Deadline: timewindow.CalculateDeadline(req.ActionTime, req.WindowHours),
	})
}

type followUpRequest struct {
	ApplicationTime time.Time  `json:"applicationTime"`
	FollowUpTime    *time.Time `json:"followUpTime"`
}

// HandleFollowUp handles POST /v1/time-windows/follow-up.
func (h *TimeWindowHandler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_follow_up"
	var req followUpRequest
	if err := decode(r, schemaFollowUp, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := timewindow.Validate48HourWindow(req.ApplicationTime, req.FollowUpTime, h.clock.Now())
	observe("follow_up", res.IsValid, start)
	writeJSON(w, http.StatusOK, res)
}

type thankYouRequest struct {
	InterviewTime time.Time  `json:"interviewTime"`
	ThankYouTime  *time.Time `json:"thankYouTime"`
}

// HandleThankYou handles POST /v1/time-windows/thank-you.
func (h *TimeWindowHandler) HandleThankYou(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_thank_you"
	var req thankYouRequest
	if err := decode(r, schemaThankYou, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := timewindow.Validate24HourThankYouWindow(req.InterviewTime, req.ThankYouTime, h.clock.Now())
	observe("thank_you", res.IsValid, start)
	writeJSON(w, http.StatusOK, res)
}

type bonusWindowRequest struct {
	ApplicationTime time.Time `json:"applicationTime"`
	FollowUpTime    time.Time `json:"followUpTime"`
}

// HandleBonusWindow handles POST /v1/time-windows/bonus-window.
func (h *TimeWindowHandler) HandleBonusWindow(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_bonus_window"
	var req bonusWindowRequest
	if err := decode(r, schemaBonusWindow, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := timewindow.Validate36HourBonusWindow(req.ApplicationTime, req.FollowUpTime)
	observe("bonus_window", res.IsValid, start)
	writeJSON(w, http.StatusOK, res)
}

type bonusRequest struct {
	ActionType timewindow.ActionType `json:"actionType"`
	BaseTime   time.Time             `json:"baseTime"`
	ActionTime time.Time             `json:"actionTime"`
}

// HandleBonus handles POST /v1/bonus.
func (h *TimeWindowHandler) HandleBonus(w http.ResponseWriter, r *http.Request) {
	const op = "api.time_based_bonus"
	var req bonusRequest
	if err := decode(r, schemaBonus, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := timewindow.GetTimeBasedBonus(req.ActionType, req.BaseTime, req.ActionTime)
	observe("bonus", res.Eligible, start)
	writeJSON(w, http.StatusOK, res)
}

type urgencyResponse struct {
	Urgency   timewindow.Urgency `json:"urgency"`
	Remaining string             `json:"remaining"`
}

// HandleUrgency handles GET /v1/urgency?remaining_ms=N.
func (h *TimeWindowHandler) HandleUrgency(w http.ResponseWriter, r *http.Request) {
	const op = "api.urgency"
	ms, err := strconv.ParseInt(r.URL.Query().Get("remaining_ms"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("remaining_ms must be an integer")))
		return
	}
	d := timewindow.FromMillis(ms)
	writeJSON(w, http.StatusOK, urgencyResponse{
		Urgency:   timewindow.GetUrgencyLevel(d),
		Remaining: timewindow.FormatTimeRemaining(d),
	})
}
