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

package viewmodel

import (
	"time"

	"github.com/blinklabs-io/roombook/models"
)

const SlotsPerDay = 24

// StartOfDay truncates t to midnight of its UTC calendar date
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ExcludedTimes returns the reserved timestamps (Unix ms) of room on day's
// UTC calendar date, in contract order
func (vm *ViewModel) ExcludedTimes(room string, day time.Time) []int64 {
	return excludedTimes(vm.Model(), room, day)
}

func excludedTimes(m *models.ReadModel, room string, day time.Time) []int64 {
	ret := []int64{}
	for _, r := range m.ReservationsFor(room) {
		if sameDay(r.Time(), day) {
			ret = append(ret, r.Date)
		}
	}
	return ret
}

// AvailableSlots returns the hour-aligned timestamps (Unix ms) of day's UTC
// calendar date that room has no reservation for, in ascending order
func (vm *ViewModel) AvailableSlots(room string, day time.Time) []int64 {
	excluded := make(map[int64]bool)
	for _, ts := range excludedTimes(vm.Model(), room, day) {
		excluded[ts] = true
	}
	start := StartOfDay(day)
	ret := make([]int64, 0, SlotsPerDay)
	for i := range SlotsPerDay {
		ts := start.Add(time.Duration(i) * time.Hour).UnixMilli()
		if !excluded[ts] {
			ret = append(ret, ts)
		}
	}
	return ret
}

// ValidateNewReservation applies the local guards for booking room at date
// (Unix ms). Conflicts with other bookings are left to the contract.
func (vm *ViewModel) ValidateNewReservation(room string, date int64) error {
	if !models.IsHourAligned(date) {
		return ErrMisalignedTime
	}
	if !time.UnixMilli(date).After(vm.config.Now()) {
		return ErrPastDate
	}
	if !vm.Model().HasRoom(room) {
		return ErrUnknownRoom
	}
	return nil
}
