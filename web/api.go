// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blinklabs-io/roombook/models"
	"github.com/blinklabs-io/roombook/viewmodel"
)

// DayLayout is the format of the day query parameter
const DayLayout = "2006-01-02"

const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

func (s *Server) writeActionError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("action failed", "action", action, "error", err)
	} else {
		s.logger.Debug("action refused", "action", action, "error", err)
	}
	writeError(w, status, messageFor(err))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) reservationResponses() []ReservationResponse {
	m := s.config.Bookings.Model()
	account := s.config.Bookings.Account()
	ret := make([]ReservationResponse, 0, len(m.Reservations))
	for _, r := range m.Reservations {
		name := r.User.Name
		if u, ok := m.User(r.User.Address); ok {
			name = u.Name
		}
		ret = append(ret, ReservationResponse{
			Room:       r.Room.Name,
			Date:       r.Date,
			Time:       r.Time().Format(time.RFC3339),
			User:       r.User.Address,
			Name:       name,
			Cancelable: s.config.Bookings.CanCancel(r, account),
		})
	}
	return ret
}

func (s *Server) pendingActions() []string {
	ret := []string{}
	for _, action := range []viewmodel.Action{
		viewmodel.ActionReserve,
		viewmodel.ActionCancel,
		viewmodel.ActionSignUp,
	} {
		if s.config.Bookings.ActionState(action) == viewmodel.ActionPending {
			ret = append(ret, string(action))
		}
	}
	return ret
}

// handleState handles GET /api/state
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	m := s.config.Bookings.Model()
	rooms := make([]string, 0, len(m.Rooms))
	for _, r := range m.Rooms {
		rooms = append(rooms, r.Name)
	}
	resp := StateResponse{
		Wallet:       string(s.config.Bookings.WalletStatus()),
		Account:      s.config.Bookings.Account(),
		SignedUp:     m.SignedUp,
		Rooms:        rooms,
		Reservations: s.reservationResponses(),
		Pending:      s.pendingActions(),
	}
	if !m.RefreshedAt.IsZero() {
		resp.RefreshedAt = &m.RefreshedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSlots handles GET /api/rooms/{room}/slots?day=YYYY-MM-DD
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if !s.config.Bookings.Model().HasRoom(room) {
		writeError(w, http.StatusNotFound, "unknown room")
		return
	}
	day := s.config.Now().UTC()
	if dayParam := r.URL.Query().Get("day"); dayParam != "" {
		parsed, err := time.Parse(DayLayout, dayParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	writeJSON(w, http.StatusOK, SlotsResponse{
		Room:      room,
		Day:       day.Format(DayLayout),
		Available: s.config.Bookings.AvailableSlots(room, day),
		Excluded:  s.config.Bookings.ExcludedTimes(room, day),
	})
}

// handleConnect handles POST /api/connect
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	account, err := s.config.Bookings.Connect(r.Context(), req.Prompt)
	if err != nil {
		s.writeActionError(w, "connect", err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectResponse{
		Wallet:  string(s.config.Bookings.WalletStatus()),
		Account: account,
	})
}

// handleListReservations handles GET /api/reservations
func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	all := s.reservationResponses()
	SetPaginationHeaders(w, len(all), params)
	writeJSON(w, http.StatusOK, Paginate(all, params))
}

// handleReserve handles POST /api/reservations
func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.config.Bookings.Reserve(
		r.Context(),
		req.Room,
		req.Date,
		s.config.Bookings.Account(),
	)
	if err != nil {
		s.writeActionError(w, "reserve", err)
		return
	}
	s.handleState(w, r)
}

// handleCancel handles POST /api/reservations/cancel
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.config.Bookings.Cancel(
		r.Context(),
		models.Reservation{
			Room: models.Room{Name: req.Room},
			Date: req.Date,
			User: models.User{Address: req.User},
		},
		s.config.Bookings.Account(),
	)
	if err != nil {
		s.writeActionError(w, "cancel", err)
		return
	}
	s.handleState(w, r)
}

// handleSignUp handles POST /api/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.config.Bookings.SignUp(
		r.Context(),
		req.Name,
		s.config.Bookings.Account(),
	)
	if err != nil {
		s.writeActionError(w, "signup", err)
		return
	}
	s.handleState(w, r)
}
