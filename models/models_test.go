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

package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blinklabs-io/roombook/models"
)

func TestSecondsMillisRoundTrip(t *testing.T) {
	for _, s := range []int64{0, 1, 1735725600, 4102444800} {
		ms := models.SecondsToMillis(s)
		assert.Equal(t, s*1000, ms)
		assert.Equal(t, s, models.MillisToSeconds(ms))
	}
}

func TestReservationTime(t *testing.T) {
	date := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	r := models.Reservation{Date: date.UnixMilli()}
	assert.True(t, r.Time().Equal(date))
	assert.Equal(t, time.UTC, r.Time().Location())
}

func TestReservationOwnedBy(t *testing.T) {
	r := models.Reservation{
		User: models.User{Address: "0xAbC0000000000000000000000000000000000001"},
	}
	assert.True(t, r.OwnedBy("0xabc0000000000000000000000000000000000001"))
	assert.False(t, r.OwnedBy("0xabc0000000000000000000000000000000000002"))
	assert.False(t, r.OwnedBy(""))
}

func TestReadModelLookups(t *testing.T) {
	m := &models.ReadModel{
		Rooms: []models.Room{{Name: "A"}, {Name: "B"}},
		Users: []models.User{{Address: "0x01", Name: "alice"}},
		Reservations: []models.Reservation{
			{Room: models.Room{Name: "A"}, Date: 1000},
			{Room: models.Room{Name: "B"}, Date: 2000},
			{Room: models.Room{Name: "A"}, Date: 3000},
		},
	}
	assert.True(t, m.HasRoom("A"))
	assert.False(t, m.HasRoom("C"))
	u, ok := m.User("0x01")
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Name)
	_, ok = m.User("0x02")
	assert.False(t, ok)
	got := m.ReservationsFor("A")
	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(1000), got[0].Date)
		assert.Equal(t, int64(3000), got[1].Date)
	}

	var nilModel *models.ReadModel
	assert.False(t, nilModel.HasRoom("A"))
	assert.Nil(t, nilModel.ReservationsFor("A"))
}

func TestIsHourAligned(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, models.IsHourAligned(base.UnixMilli()))
	assert.False(t, models.IsHourAligned(base.Add(time.Minute).UnixMilli()))
	assert.False(t, models.IsHourAligned(base.Add(time.Second).UnixMilli()))
	assert.False(
		t,
		models.IsHourAligned(base.Add(time.Millisecond).UnixMilli()),
	)
}
