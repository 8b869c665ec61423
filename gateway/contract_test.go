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

package gateway_test

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/internal/test/ledgermock"
	"github.com/blinklabs-io/roombook/models"
)

const (
	alice = "0x00000000000000000000000000000000000A11CE"
	bob   = "0x0000000000000000000000000000000000000B0B"
)

// stubGateway returns canned call outputs
type stubGateway struct {
	out []any
	err error
}

func (s *stubGateway) Connect(context.Context, bool) ([]string, error) {
	return nil, nil
}

func (s *stubGateway) Call(context.Context, string, ...any) ([]any, error) {
	return s.out, s.err
}

func (s *stubGateway) Submit(
	context.Context,
	string,
	string,
	...any,
) (gateway.PendingTx, error) {
	return nil, s.err
}

func TestContractReservationsZipsAndConvertsSeconds(t *testing.T) {
	const seconds = 1735725600 // 2025-01-01T10:00:00Z
	ledger := ledgermock.New(alice).
		AddRooms("A", "B").
		AddReservation("A", seconds, alice).
		AddReservation("B", seconds+3600, bob)
	c := gateway.NewContract(ledger)

	got, err := c.Reservations(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Room.Name)
	assert.Equal(t, int64(seconds)*1000, got[0].Date)
	assert.Equal(t, common.HexToAddress(alice).Hex(), got[0].User.Address)
	assert.Empty(t, got[0].User.Name)
	assert.Equal(t, "B", got[1].Room.Name)
	assert.Equal(t, int64(seconds+3600)*1000, got[1].Date)
	assert.True(
		t,
		got[0].Time().Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)),
	)
}

func TestContractReservationsMismatchedLists(t *testing.T) {
	gw := &stubGateway{out: []any{
		[]string{"A", "B"},
		[]*big.Int{big.NewInt(1)},
		[]common.Address{common.HexToAddress(alice)},
	}}
	_, err := gateway.NewContract(gw).Reservations(t.Context())
	require.ErrorIs(t, err, gateway.ErrMalformedResponse)
}

func TestContractReservationsWrongTypes(t *testing.T) {
	gw := &stubGateway{out: []any{[]string{"A"}, []string{"1"}, []string{"x"}}}
	_, err := gateway.NewContract(gw).Reservations(t.Context())
	require.ErrorIs(t, err, gateway.ErrMalformedResponse)
}

func TestContractReservationsDateOutOfRange(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	gw := &stubGateway{out: []any{
		[]string{"A"},
		[]*big.Int{huge},
		[]common.Address{common.HexToAddress(alice)},
	}}
	_, err := gateway.NewContract(gw).Reservations(t.Context())
	require.ErrorIs(t, err, gateway.ErrMalformedResponse)
}

func TestContractReservationsMillisOverflow(t *testing.T) {
	for _, secs := range []int64{
		math.MaxInt64/1000 + 1,
		math.MaxInt64,
		math.MinInt64/1000 - 1,
	} {
		gw := &stubGateway{out: []any{
			[]string{"A"},
			[]*big.Int{big.NewInt(secs)},
			[]common.Address{common.HexToAddress(alice)},
		}}
		_, err := gateway.NewContract(gw).Reservations(t.Context())
		require.ErrorIs(t, err, gateway.ErrMalformedResponse, "%d", secs)
	}
}

func TestContractRoomsAndUserName(t *testing.T) {
	ledger := ledgermock.New(alice).
		AddRooms("A", "B").
		SetUserName(alice, "alice")
	c := gateway.NewContract(ledger)

	rooms, err := c.Rooms(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []models.Room{{Name: "A"}, {Name: "B"}}, rooms)

	name, err := c.UserName(t.Context(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	name, err = c.UserName(t.Context(), bob)
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = c.UserName(t.Context(), "not-an-address")
	require.Error(t, err)
}

func TestContractReserveSendsSeconds(t *testing.T) {
	ledger := ledgermock.New(alice)
	c := gateway.NewContract(ledger)
	const millis = int64(1735725600000)

	_, err := c.Reserve(t.Context(), alice, "A", millis)
	require.NoError(t, err)
	subs := ledger.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, gateway.MethodReserve, subs[0].Method)
	assert.Equal(t, alice, subs[0].From)
	require.Len(t, subs[0].Args, 3)
	assert.Equal(t, "A", subs[0].Args[0])
	assert.Equal(t, big.NewInt(millis/1000), subs[0].Args[1])
	assert.Equal(t, common.HexToAddress(alice), subs[0].Args[2])
}

func TestContractCancelPassesRoomTuple(t *testing.T) {
	ledger := ledgermock.New(alice)
	c := gateway.NewContract(ledger)
	r := models.Reservation{
		Room: models.Room{Name: "A"},
		Date: 1735725600000,
		User: models.User{Address: alice},
	}
	_, err := c.Cancel(t.Context(), alice, r)
	require.NoError(t, err)
	subs := ledger.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, gateway.MethodCancel, subs[0].Method)
	assert.Equal(t, gateway.RoomArg{Name: "A"}, subs[0].Args[0])
	assert.Equal(t, big.NewInt(1735725600), subs[0].Args[1])
}

func TestContractGiveAccess(t *testing.T) {
	ledger := ledgermock.New(alice)
	c := gateway.NewContract(ledger)
	tx, err := c.GiveAccess(t.Context(), alice, alice, "alice")
	require.NoError(t, err)
	require.NoError(t, tx.Wait(t.Context()))
	name, err := c.UserName(t.Context(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}
