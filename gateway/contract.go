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

package gateway

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/roombook/models"
)

// RoomArg is the ABI form of the contract's Room struct
type RoomArg struct {
	Name string
}

// Contract is a typed binding over a Gateway for the booking contract.
// It owns the seconds/milliseconds conversion: dates leave as seconds and
// arrive as milliseconds, converted exactly once here.
type Contract struct {
	gw Gateway
}

func NewContract(gw Gateway) *Contract {
	return &Contract{gw: gw}
}

// Rooms returns the contract's rooms
func (c *Contract) Rooms(ctx context.Context) ([]models.Room, error) {
	out, err := c.gw.Call(ctx, MethodGetRooms)
	if err != nil {
		return nil, err
	}
	names, err := output[[]string](out, 0, MethodGetRooms)
	if err != nil {
		return nil, err
	}
	rooms := make([]models.Room, 0, len(names))
	for _, name := range names {
		rooms = append(rooms, models.Room{Name: name})
	}
	return rooms, nil
}

// Reservations zips the contract's three parallel lists into records. User
// names are left empty for the caller to resolve.
func (c *Contract) Reservations(
	ctx context.Context,
) ([]models.Reservation, error) {
	out, err := c.gw.Call(ctx, MethodGetReservations)
	if err != nil {
		return nil, err
	}
	rooms, err := output[[]string](out, 0, MethodGetReservations)
	if err != nil {
		return nil, err
	}
	dates, err := output[[]*big.Int](out, 1, MethodGetReservations)
	if err != nil {
		return nil, err
	}
	users, err := output[[]common.Address](out, 2, MethodGetReservations)
	if err != nil {
		return nil, err
	}
	if len(rooms) != len(dates) || len(rooms) != len(users) {
		return nil, fmt.Errorf(
			"%w: %s returned %d rooms, %d dates, %d users",
			ErrMalformedResponse,
			MethodGetReservations,
			len(rooms),
			len(dates),
			len(users),
		)
	}
	ret := make([]models.Reservation, 0, len(rooms))
	for i := range rooms {
		// the millisecond form must fit in an int64 as well
		if dates[i] == nil || !dates[i].IsInt64() ||
			dates[i].Int64() > math.MaxInt64/1000 ||
			dates[i].Int64() < math.MinInt64/1000 {
			return nil, fmt.Errorf(
				"%w: reservation date out of range: %v",
				ErrMalformedResponse,
				dates[i],
			)
		}
		ret = append(ret, models.Reservation{
			Room: models.Room{Name: rooms[i]},
			Date: models.SecondsToMillis(dates[i].Int64()),
			User: models.User{Address: users[i].Hex()},
		})
	}
	return ret, nil
}

// UserName returns the signed-up name for address, empty if none
func (c *Contract) UserName(
	ctx context.Context,
	address string,
) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid user address: %q", address)
	}
	out, err := c.gw.Call(ctx, MethodUsers, common.HexToAddress(address))
	if err != nil {
		return "", err
	}
	return output[string](out, 0, MethodUsers)
}

// Reserve submits a reservation of room at date (Unix ms) for from
func (c *Contract) Reserve(
	ctx context.Context,
	from string,
	room string,
	date int64,
) (PendingTx, error) {
	return c.gw.Submit(
		ctx,
		from,
		MethodReserve,
		room,
		big.NewInt(models.MillisToSeconds(date)),
		common.HexToAddress(from),
	)
}

// Cancel submits the cancellation of r, signed by from
func (c *Contract) Cancel(
	ctx context.Context,
	from string,
	r models.Reservation,
) (PendingTx, error) {
	return c.gw.Submit(
		ctx,
		from,
		MethodCancel,
		RoomArg{Name: r.Room.Name},
		big.NewInt(models.MillisToSeconds(r.Date)),
		common.HexToAddress(r.User.Address),
	)
}

// GiveAccess submits a sign-up of user under name, signed by from
func (c *Contract) GiveAccess(
	ctx context.Context,
	from string,
	user string,
	name string,
) (PendingTx, error) {
	return c.gw.Submit(
		ctx,
		from,
		MethodGiveAccess,
		common.HexToAddress(user),
		name,
	)
}

func output[T any](out []any, idx int, method string) (T, error) {
	var zero T
	if idx >= len(out) {
		return zero, fmt.Errorf(
			"%w: %s returned %d values, wanted at least %d",
			ErrMalformedResponse,
			method,
			len(out),
			idx+1,
		)
	}
	ret, ok := out[idx].(T)
	if !ok {
		return zero, fmt.Errorf(
			"%w: %s output %d has type %T, wanted %T",
			ErrMalformedResponse,
			method,
			idx,
			out[idx],
			zero,
		)
	}
	return ret, nil
}
