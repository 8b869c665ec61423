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

// Package ledgermock provides an in-memory gateway.Gateway that behaves
// like the deployed booking contract, for tests.
package ledgermock

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/roombook/gateway"
)

type reservation struct {
	room string
	date *big.Int
	user common.Address
}

// Submission records a transaction handed to the mock
type Submission struct {
	From   string
	Method string
	Args   []any
}

// Ledger is a mock wallet plus booking contract. Effects of submitted
// transactions are applied when the transaction is confirmed, so races
// between clients surface at Wait like they do on chain.
type Ledger struct {
	mu            sync.Mutex
	accounts      []string
	authorized    bool
	noWallet      bool
	rejectConnect bool
	rooms         []string
	reservations  []reservation
	users         map[common.Address]string
	callErrs      map[string]error
	submitErr     error
	calls         []string
	submissions   []Submission
	gate          chan struct{}
	txCount       int
}

// New returns a mock wallet holding accounts. The accounts are not
// authorized until a prompted Connect.
func New(accounts ...string) *Ledger {
	return &Ledger{
		accounts: accounts,
		users:    make(map[common.Address]string),
		callErrs: make(map[string]error),
	}
}

// Authorize marks the accounts as already authorized, as if the user had
// connected in a previous session
func (l *Ledger) Authorize() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.authorized = true
	return l
}

// NoWallet makes Connect behave as if no wallet is installed
func (l *Ledger) NoWallet() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noWallet = true
	return l
}

// RejectConnect makes the user decline the connection prompt
func (l *Ledger) RejectConnect() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejectConnect = true
	return l
}

func (l *Ledger) AddRooms(names ...string) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms = append(l.rooms, names...)
	return l
}

func (l *Ledger) SetUserName(address string, name string) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[common.HexToAddress(address)] = name
	return l
}

// AddReservation books room at date (Unix seconds) for user directly
func (l *Ledger) AddReservation(room string, date int64, user string) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reservations = append(l.reservations, reservation{
		room: room,
		date: big.NewInt(date),
		user: common.HexToAddress(user),
	})
	return l
}

// FailCall makes every read of method fail with err. A nil err clears it.
func (l *Ledger) FailCall(method string, err error) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.callErrs, method)
	} else {
		l.callErrs[method] = err
	}
	return l
}

// FailSubmit makes every submission fail with err. A nil err clears it.
func (l *Ledger) FailSubmit(err error) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErr = err
	return l
}

// HoldConfirmations blocks Wait on every pending transaction until
// ReleaseConfirmations is called
func (l *Ledger) HoldConfirmations() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = make(chan struct{})
}

func (l *Ledger) ReleaseConfirmations() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gate != nil {
		close(l.gate)
		l.gate = nil
	}
}

// Calls returns the read methods called so far, in order
func (l *Ledger) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Submissions returns the transactions submitted so far, in order
func (l *Ledger) Submissions() []Submission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Submission(nil), l.submissions...)
}

// Connect implements gateway.Gateway
func (l *Ledger) Connect(_ context.Context, prompt bool) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.noWallet {
		return nil, gateway.ErrNoWalletFound
	}
	if !prompt {
		if !l.authorized {
			return []string{}, nil
		}
		return append([]string(nil), l.accounts...), nil
	}
	if l.rejectConnect {
		return nil, gateway.ErrConnectionRejected
	}
	l.authorized = true
	return append([]string(nil), l.accounts...), nil
}

// Call implements gateway.Gateway
func (l *Ledger) Call(
	_ context.Context,
	method string,
	args ...any,
) ([]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, method)
	if l.noWallet {
		return nil, gateway.ErrNoWalletFound
	}
	if err, ok := l.callErrs[method]; ok {
		return nil, err
	}
	switch method {
	case gateway.MethodGetRooms:
		return []any{append([]string{}, l.rooms...)}, nil
	case gateway.MethodGetReservations:
		rooms := []string{}
		dates := []*big.Int{}
		users := []common.Address{}
		for _, r := range l.reservations {
			rooms = append(rooms, r.room)
			dates = append(dates, new(big.Int).Set(r.date))
			users = append(users, r.user)
		}
		return []any{rooms, dates, users}, nil
	case gateway.MethodUsers:
		if len(args) != 1 {
			return nil, fmt.Errorf("users: expected 1 argument, got %d", len(args))
		}
		addr, ok := args[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("users: bad argument type %T", args[0])
		}
		return []any{l.users[addr]}, nil
	}
	return nil, fmt.Errorf("unsupported method: %s", method)
}

// Submit implements gateway.Gateway
func (l *Ledger) Submit(
	_ context.Context,
	from string,
	method string,
	args ...any,
) (gateway.PendingTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.submitErr != nil {
		return nil, l.submitErr
	}
	l.submissions = append(l.submissions, Submission{
		From:   from,
		Method: method,
		Args:   args,
	})
	l.txCount++
	return &pendingTx{
		ledger: l,
		hash:   fmt.Sprintf("0x%064x", l.txCount),
		from:   common.HexToAddress(from),
		method: method,
		args:   args,
		gate:   l.gate,
	}, nil
}

type pendingTx struct {
	ledger *Ledger
	hash   string
	from   common.Address
	method string
	args   []any
	gate   chan struct{}
}

func (t *pendingTx) Hash() string {
	return t.hash
}

func (t *pendingTx) Wait(ctx context.Context) error {
	if t.gate != nil {
		select {
		case <-t.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return t.ledger.apply(t)
}

// apply executes the contract rules for a confirmed transaction
func (l *Ledger) apply(t *pendingTx) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	reject := func(format string, args ...any) error {
		return fmt.Errorf(
			"%w: %s",
			gateway.ErrTransactionRejected,
			fmt.Sprintf(format, args...),
		)
	}
	switch t.method {
	case gateway.MethodReserve:
		room, _ := t.args[0].(string)
		date, _ := t.args[1].(*big.Int)
		user, _ := t.args[2].(common.Address)
		if date == nil {
			return reject("missing date")
		}
		if !l.hasRoom(room) {
			return reject("unknown room %q", room)
		}
		if l.users[user] == "" {
			return reject("user %s has no access", user.Hex())
		}
		for _, r := range l.reservations {
			if r.room == room && r.date.Cmp(date) == 0 {
				return reject("room %q already reserved at %s", room, date)
			}
		}
		l.reservations = append(l.reservations, reservation{
			room: room,
			date: new(big.Int).Set(date),
			user: user,
		})
	case gateway.MethodCancel:
		room, _ := t.args[0].(gateway.RoomArg)
		date, _ := t.args[1].(*big.Int)
		user, _ := t.args[2].(common.Address)
		if user != t.from {
			return reject("only the owner may cancel")
		}
		for i, r := range l.reservations {
			if r.room == room.Name && date != nil && r.date.Cmp(date) == 0 &&
				r.user == user {
				l.reservations = append(
					l.reservations[:i],
					l.reservations[i+1:]...,
				)
				return nil
			}
		}
		return reject("no such reservation")
	case gateway.MethodGiveAccess:
		user, _ := t.args[0].(common.Address)
		name, _ := t.args[1].(string)
		if strings.TrimSpace(name) == "" {
			return reject("empty name")
		}
		l.users[user] = name
	default:
		return reject("unsupported method %s", t.method)
	}
	return nil
}

func (l *Ledger) hasRoom(name string) bool {
	for _, r := range l.rooms {
		if r == name {
			return true
		}
	}
	return false
}
