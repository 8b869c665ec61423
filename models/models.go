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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package models holds the booking entities as they are exposed to the
// view layer. Dates are Unix milliseconds; the ledger works in seconds and
// the conversion happens once, in the gateway's contract binding.
package models

import (
	"strings"
	"time"
)

// Room is a bookable room. The name is its unique identifier on the ledger.
type Room struct {
	Name string `json:"name"`
}

// User is a ledger identity. An empty Name means the user has not signed up.
type User struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// SignedUp reports whether the user has registered a display name
func (u User) SignedUp() bool {
	return u.Name != ""
}

// Reservation books a room for the hour starting at Date (Unix ms).
type Reservation struct {
	Room Room  `json:"room"`
	Date int64 `json:"date"`
	User User  `json:"user"`
}

// Time returns the reservation date as a UTC time
func (r Reservation) Time() time.Time {
	return time.UnixMilli(r.Date).UTC()
}

// OwnedBy reports whether address owns the reservation. Ledger addresses
// are compared case-insensitively since checksummed and lowercase hex forms
// are both in circulation.
func (r Reservation) OwnedBy(address string) bool {
	return address != "" && strings.EqualFold(r.User.Address, address)
}

// ReadModel is the full application state, rebuilt wholesale on every refresh.
type ReadModel struct {
	Rooms        []Room        `json:"rooms"`
	Users        []User        `json:"users"`
	Reservations []Reservation `json:"reservations"`
	SignedUp     bool          `json:"signedUp"`
	Account      string        `json:"account,omitempty"`
	RefreshedAt  time.Time     `json:"refreshedAt"`
}

// User returns the resolved user for address, if any
func (m *ReadModel) User(address string) (User, bool) {
	if m == nil {
		return User{}, false
	}
	for _, u := range m.Users {
		if strings.EqualFold(u.Address, address) {
			return u, true
		}
	}
	return User{}, false
}

// HasRoom reports whether a room with the given name exists
func (m *ReadModel) HasRoom(name string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Rooms {
		if r.Name == name {
			return true
		}
	}
	return false
}

// ReservationsFor returns the reservations for a room, in ledger order
func (m *ReadModel) ReservationsFor(room string) []Reservation {
	if m == nil {
		return nil
	}
	var ret []Reservation
	for _, r := range m.Reservations {
		if r.Room.Name == room {
			ret = append(ret, r)
		}
	}
	return ret
}

// SecondsToMillis converts a ledger timestamp to the view layer's unit
func SecondsToMillis(s int64) int64 {
	return s * 1000
}

// MillisToSeconds converts a view layer timestamp to the ledger's unit
func MillisToSeconds(ms int64) int64 {
	return ms / 1000
}

// IsHourAligned reports whether ms (Unix ms) falls on a whole UTC hour
func IsHourAligned(ms int64) bool {
	return ms%(60*60*1000) == 0
}
