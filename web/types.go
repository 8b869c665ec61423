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

import "time"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool   `json:"is_healthy"`
	Wallet    string `json:"wallet"`
}

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	Wallet       string                `json:"wallet"`
	Account      string                `json:"account,omitempty"`
	SignedUp     bool                  `json:"signed_up"`
	Rooms        []string              `json:"rooms"`
	Reservations []ReservationResponse `json:"reservations"`
	Pending      []string              `json:"pending"`
	RefreshedAt  *time.Time            `json:"refreshed_at,omitempty"`
}

// ReservationResponse is a reservation as exposed by the API. Date is in
// Unix milliseconds.
type ReservationResponse struct {
	Room       string `json:"room"`
	Date       int64  `json:"date"`
	Time       string `json:"time"`
	User       string `json:"user"`
	Name       string `json:"name,omitempty"`
	Cancelable bool   `json:"cancelable"`
}

// SlotsResponse is returned by GET /api/rooms/{room}/slots.
type SlotsResponse struct {
	Room      string  `json:"room"`
	Day       string  `json:"day"`
	Available []int64 `json:"available"`
	Excluded  []int64 `json:"excluded"`
}

// ConnectRequest is the body of POST /api/connect.
type ConnectRequest struct {
	Prompt bool `json:"prompt"`
}

// ConnectResponse is returned by POST /api/connect.
type ConnectResponse struct {
	Wallet  string `json:"wallet"`
	Account string `json:"account,omitempty"`
}

// ReserveRequest is the body of POST /api/reservations.
type ReserveRequest struct {
	Room string `json:"room"`
	Date int64  `json:"date"`
}

// CancelRequest is the body of POST /api/reservations/cancel.
type CancelRequest struct {
	Room string `json:"room"`
	Date int64  `json:"date"`
	User string `json:"user"`
}

// SignUpRequest is the body of POST /api/signup.
type SignUpRequest struct {
	Name string `json:"name"`
}

// Notification is pushed over GET /api/events.
type Notification struct {
	Type        string     `json:"type"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	ChainId     uint64     `json:"chain_id,omitempty"`
}

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
