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
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blinklabs-io/roombook/models"
	"github.com/blinklabs-io/roombook/viewmodel"
)

const slotLayout = "January 2, 2006 3:04 PM MST"

type slotView struct {
	Value int64
	Label string
}

type reservationView struct {
	Room      string
	Date      int64
	When      string
	User      string
	Who       string
	CanCancel bool
}

type pageData struct {
	BasePath       string
	Flash          string
	FlashError     bool
	Wallet         string
	Account        string
	SignedUp       bool
	Rooms          []string
	Room           string
	Day            string
	Slots          []slotView
	Reservations   []reservationView
	ReservePending bool
	CancelPending  bool
	SignUpPending  bool
}

func parsePage() (*template.Template, error) {
	return template.ParseFS(defaultAssets, "templates/index.html")
}

// handlePage handles GET / and renders the booking page. The room and day
// query parameters pick the slots offered by the reservation form.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	b := s.config.Bookings
	m := b.Model()
	account := b.Account()
	query := r.URL.Query()
	data := pageData{
		BasePath:       s.config.BasePath,
		Flash:          query.Get("msg"),
		FlashError:     query.Get("level") == "error",
		Wallet:         string(b.WalletStatus()),
		Account:        account,
		SignedUp:       m.SignedUp,
		ReservePending: b.ActionState(viewmodel.ActionReserve) == viewmodel.ActionPending,
		CancelPending:  b.ActionState(viewmodel.ActionCancel) == viewmodel.ActionPending,
		SignUpPending:  b.ActionState(viewmodel.ActionSignUp) == viewmodel.ActionPending,
	}
	for _, room := range m.Rooms {
		data.Rooms = append(data.Rooms, room.Name)
	}
	data.Room = query.Get("room")
	if !m.HasRoom(data.Room) && len(m.Rooms) > 0 {
		data.Room = m.Rooms[0].Name
	}
	day := s.config.Now().UTC()
	if parsed, err := time.Parse(DayLayout, query.Get("day")); err == nil {
		day = parsed
	}
	data.Day = day.Format(DayLayout)
	if data.Room != "" {
		for _, ts := range b.AvailableSlots(data.Room, day) {
			// past hours cannot be picked
			if errors.Is(b.ValidateNewReservation(data.Room, ts), viewmodel.ErrPastDate) {
				continue
			}
			data.Slots = append(data.Slots, slotView{
				Value: ts,
				Label: time.UnixMilli(ts).UTC().Format(slotLayout),
			})
		}
	}
	for _, res := range m.Reservations {
		who := res.User.Address
		if u, ok := m.User(res.User.Address); ok && u.Name != "" {
			who = u.Name
		}
		data.Reservations = append(data.Reservations, reservationView{
			Room:      res.Room.Name,
			Date:      res.Date,
			When:      res.Time().Format(slotLayout),
			User:      res.User.Address,
			Who:       who,
			CanCancel: b.CanCancel(res, account),
		})
	}
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck
	buf.WriteTo(w)
}

// redirectWithFlash sends the browser back to the page with an outcome
// message
func (s *Server) redirectWithFlash(
	w http.ResponseWriter,
	r *http.Request,
	msg string,
	err error,
	extra url.Values,
) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if err != nil {
		q.Set("msg", messageFor(err))
		q.Set("level", "error")
		if statusFor(err) >= http.StatusInternalServerError {
			s.logger.Error("action failed", "path", r.URL.Path, "error", err)
		}
	} else if msg != "" {
		q.Set("msg", msg)
	}
	target := s.config.BasePath + "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleConnectAction handles POST /actions/connect
func (s *Server) handleConnectAction(w http.ResponseWriter, r *http.Request) {
	account, err := s.config.Bookings.Connect(r.Context(), true)
	msg := ""
	if err == nil && account == "" {
		msg = "No account was authorized."
	}
	s.redirectWithFlash(w, r, msg, err, nil)
}

// handleReserveAction handles POST /actions/reserve
func (s *Server) handleReserveAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	room := r.PostForm.Get("room")
	back := url.Values{"room": {room}}
	if day := r.PostForm.Get("day"); day != "" {
		back.Set("day", day)
	}
	date, err := strconv.ParseInt(r.PostForm.Get("date"), 10, 64)
	if err != nil {
		s.redirectWithFlash(w, r, "", viewmodel.ErrMisalignedTime, back)
		return
	}
	err = s.config.Bookings.Reserve(
		r.Context(),
		room,
		date,
		s.config.Bookings.Account(),
	)
	s.redirectWithFlash(w, r, "Reservation confirmed.", err, back)
}

// handleCancelAction handles POST /actions/cancel
func (s *Server) handleCancelAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	date, err := strconv.ParseInt(r.PostForm.Get("date"), 10, 64)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	err = s.config.Bookings.Cancel(
		r.Context(),
		models.Reservation{
			Room: models.Room{Name: r.PostForm.Get("room")},
			Date: date,
			User: models.User{Address: r.PostForm.Get("user")},
		},
		s.config.Bookings.Account(),
	)
	s.redirectWithFlash(w, r, "Reservation cancelled.", err, nil)
}

// handleSignUpAction handles POST /actions/signup
func (s *Server) handleSignUpAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	err := s.config.Bookings.SignUp(
		r.Context(),
		r.PostForm.Get("name"),
		s.config.Bookings.Account(),
	)
	s.redirectWithFlash(w, r, "Welcome aboard.", err, nil)
}
