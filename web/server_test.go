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

package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/roombook/event"
	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/internal/test/ledgermock"
	"github.com/blinklabs-io/roombook/store"
	"github.com/blinklabs-io/roombook/viewmodel"
	"github.com/blinklabs-io/roombook/web"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000A11CE").Hex()
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000B0B").Hex()

	now      = time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)
	jan1at10 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
)

type harness struct {
	ledger *ledgermock.Ledger
	bus    *event.EventBus
	store  *store.Store
	vm     *viewmodel.ViewModel
	srv    *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, ledger *ledgermock.Ledger, basePath string) *harness {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	contract := gateway.NewContract(ledger)
	s := store.New(store.StoreConfig{Ledger: contract, EventBus: bus})
	vm := viewmodel.New(viewmodel.ViewModelConfig{
		Connector: ledger,
		Writer:    contract,
		Store:     s,
		Now:       func() time.Time { return now },
	})
	server, err := web.New(web.ServerConfig{
		EventBus:     bus,
		Bookings:     vm,
		BasePath:     basePath,
		PromRegistry: prometheus.NewRegistry(),
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &harness{
		ledger: ledger,
		bus:    bus,
		store:  s,
		vm:     vm,
		srv:    srv,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func signedUpLedger() *ledgermock.Ledger {
	return ledgermock.New(alice).
		Authorize().
		AddRooms("A", "B").
		SetUserName(alice, "alice").
		SetUserName(bob, "bob").
		AddReservation("A", jan1at10.Unix(), bob).
		AddReservation("B", jan1at10.Unix(), alice)
}

func connectedHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, signedUpLedger(), "")
	_, err := h.vm.Connect(t.Context(), false)
	require.NoError(t, err)
	return h
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (h *harness) postJSON(t *testing.T, path string, v any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := h.client.Post(
		h.srv.URL+path,
		"application/json",
		bytes.NewReader(data),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (h *harness) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestPageOffersWalletInstallWithoutWallet(t *testing.T) {
	h := newHarness(t, ledgermock.New(alice).NoWallet(), "")
	_, err := h.vm.Connect(t.Context(), false)
	require.ErrorIs(t, err, gateway.ErrNoWalletFound)

	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Get MetaMask")
	assert.NotContains(t, body, "actions/connect")
	assert.NotContains(t, body, "actions/reserve")
}

func TestPageOffersConnect(t *testing.T) {
	h := newHarness(t, ledgermock.New(alice).AddRooms("A"), "")
	_, body := h.get(t, "/")
	assert.Contains(t, body, "actions/connect")

	resp := h.postForm(t, "/actions/connect", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, viewmodel.WalletConnected, h.vm.WalletStatus())
	_, body = h.get(t, "/")
	assert.Contains(t, body, "Sign Up")
	assert.NotContains(t, body, "actions/reserve")
}

func TestSignUpBlankNameIsRefused(t *testing.T) {
	h := newHarness(t, ledgermock.New(alice).Authorize().AddRooms("A"), "")
	_, err := h.vm.Connect(t.Context(), false)
	require.NoError(t, err)

	resp := h.postForm(t, "/actions/signup", url.Values{"name": {"  "}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Please input your name.", loc.Query().Get("msg"))
	assert.Equal(t, "error", loc.Query().Get("level"))
	assert.Empty(t, h.ledger.Submissions())

	resp = h.postForm(t, "/actions/signup", url.Values{"name": {"alice"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, h.vm.Model().SignedUp)
}

func TestPageExcludesReservedSlots(t *testing.T) {
	h := connectedHarness(t)
	_, body := h.get(t, "/?room=A&day=2025-01-01")
	taken := strconv.FormatInt(jan1at10.UnixMilli(), 10)
	free := strconv.FormatInt(jan1at10.Add(time.Hour).UnixMilli(), 10)
	assert.NotContains(t, body, `<option value="`+taken+`"`)
	assert.Contains(t, body, `<option value="`+free+`"`)

	// the same hour in room B is held by alice herself
	_, body = h.get(t, "/?room=B&day=2025-01-01")
	assert.NotContains(t, body, `<option value="`+taken+`"`)
	assert.Contains(t, body, `<option value="`+free+`"`)
}

func TestPageHidesPastSlots(t *testing.T) {
	h := connectedHarness(t)
	_, body := h.get(t, "/?room=A&day=2024-12-31")
	past := strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10)
	current := strconv.FormatInt(now.UnixMilli(), 10)
	next := strconv.FormatInt(now.Add(time.Hour).UnixMilli(), 10)
	assert.NotContains(t, body, `value="`+past+`"`)
	assert.NotContains(t, body, `value="`+current+`"`)
	assert.Contains(t, body, `value="`+next+`"`)
}

func TestPageShowsCancelOnlyForOwnReservations(t *testing.T) {
	h := connectedHarness(t)
	_, body := h.get(t, "/")
	assert.Equal(t, 1, strings.Count(body, "actions/cancel"))
	assert.Contains(t, body, "bob")
}

func TestReserveAction(t *testing.T) {
	h := connectedHarness(t)
	date := jan1at10.Add(2 * time.Hour).UnixMilli()
	resp := h.postForm(t, "/actions/reserve", url.Values{
		"room": {"A"},
		"day":  {"2025-01-01"},
		"date": {strconv.FormatInt(date, 10)},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Reservation confirmed.", loc.Query().Get("msg"))
	assert.Equal(t, "A", loc.Query().Get("room"))
	assert.Len(t, h.vm.Model().Reservations, 3)
}

func TestCancelActionByOwner(t *testing.T) {
	h := connectedHarness(t)
	resp := h.postForm(t, "/actions/cancel", url.Values{
		"room": {"B"},
		"date": {strconv.FormatInt(jan1at10.UnixMilli(), 10)},
		"user": {alice},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	m := h.vm.Model()
	require.Len(t, m.Reservations, 1)
	assert.Equal(t, "A", m.Reservations[0].Room.Name)
}

func TestAPIState(t *testing.T) {
	h := connectedHarness(t)
	resp, body := h.get(t, "/api/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state web.StateResponse
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, string(viewmodel.WalletConnected), state.Wallet)
	assert.Equal(t, alice, state.Account)
	assert.True(t, state.SignedUp)
	assert.Equal(t, []string{"A", "B"}, state.Rooms)
	require.Len(t, state.Reservations, 2)
	assert.Equal(t, jan1at10.UnixMilli(), state.Reservations[0].Date)
	assert.Equal(t, "2025-01-01T10:00:00Z", state.Reservations[0].Time)
	assert.Equal(t, "bob", state.Reservations[0].Name)
	assert.False(t, state.Reservations[0].Cancelable)
	assert.True(t, state.Reservations[1].Cancelable)
	assert.Empty(t, state.Pending)
}

func TestAPISlots(t *testing.T) {
	h := connectedHarness(t)
	resp, body := h.get(t, "/api/rooms/A/slots?day=2025-01-01")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots web.SlotsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &slots))
	assert.Equal(t, "2025-01-01", slots.Day)
	assert.Len(t, slots.Available, viewmodel.SlotsPerDay-1)
	assert.NotContains(t, slots.Available, jan1at10.UnixMilli())
	assert.Equal(t, []int64{jan1at10.UnixMilli()}, slots.Excluded)

	resp, _ = h.get(t, "/api/rooms/Z/slots")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = h.get(t, "/api/rooms/A/slots?day=tomorrow")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIReserveMapsErrors(t *testing.T) {
	h := connectedHarness(t)
	tests := []struct {
		name   string
		req    web.ReserveRequest
		status int
	}{
		{
			name:   "misaligned",
			req:    web.ReserveRequest{Room: "A", Date: jan1at10.Add(time.Minute).UnixMilli()},
			status: http.StatusBadRequest,
		},
		{
			name:   "past",
			req:    web.ReserveRequest{Room: "A", Date: now.Add(-time.Hour).UnixMilli()},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown room",
			req:    web.ReserveRequest{Room: "Z", Date: jan1at10.UnixMilli()},
			status: http.StatusBadRequest,
		},
		{
			name:   "double booking",
			req:    web.ReserveRequest{Room: "A", Date: jan1at10.UnixMilli()},
			status: http.StatusConflict,
		},
		{
			name:   "ok",
			req:    web.ReserveRequest{Room: "A", Date: jan1at10.Add(time.Hour).UnixMilli()},
			status: http.StatusOK,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := h.postJSON(t, "/api/reservations", tc.req)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			if tc.status != http.StatusOK {
				var errResp web.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &errResp))
				assert.Equal(t, tc.status, errResp.StatusCode)
				assert.NotEmpty(t, errResp.Message)
			}
		})
	}
}

func TestAPICancelOthersReservationIsConflict(t *testing.T) {
	h := connectedHarness(t)
	resp, _ := h.postJSON(t, "/api/reservations/cancel", web.CancelRequest{
		Room: "A",
		Date: jan1at10.UnixMilli(),
		User: bob,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, h.vm.Model().Reservations, 2)
}

func TestAPISignUpEmptyName(t *testing.T) {
	h := connectedHarness(t)
	resp, _ := h.postJSON(t, "/api/signup", web.SignUpRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.ledger.Submissions())
}

func TestAPIRejectsUnknownFields(t *testing.T) {
	h := connectedHarness(t)
	resp, _ := h.postJSON(t, "/api/signup", map[string]string{"nmae": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIConnect(t *testing.T) {
	h := newHarness(t, ledgermock.New(alice).RejectConnect(), "")
	resp, _ := h.postJSON(t, "/api/connect", web.ConnectRequest{Prompt: true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	h = newHarness(t, ledgermock.New(alice), "")
	resp, body := h.postJSON(t, "/api/connect", web.ConnectRequest{Prompt: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out web.ConnectResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, alice, out.Account)
	assert.Equal(t, string(viewmodel.WalletConnected), out.Wallet)
}

func TestAPIListReservationsPaginates(t *testing.T) {
	h := connectedHarness(t)
	resp, body := h.get(t, "/api/reservations?count=1&page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-Pagination-Count-Total"))
	assert.Equal(t, "2", resp.Header.Get("X-Pagination-Page-Total"))
	var page []web.ReservationResponse
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	require.Len(t, page, 1)
	assert.Equal(t, "B", page[0].Room)

	resp, _ = h.get(t, "/api/reservations?order=sideways")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, ledgermock.New(alice).NoWallet(), "")
	_, _ = h.vm.Connect(t.Context(), false)
	resp, _ := h.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	h = connectedHarness(t)
	resp, body := h.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"is_healthy":true`)
}

func TestServerRestartsAfterStop(t *testing.T) {
	h := connectedHarness(t)
	server, err := web.New(web.ServerConfig{
		EventBus:      h.bus,
		Bookings:      h.vm,
		ListenAddress: "127.0.0.1:0",
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	for range 2 {
		require.NoError(t, server.Start(t.Context()))
		require.Error(t, server.Start(t.Context()), "second start while running")
		require.NoError(t, server.Stop(t.Context()))
	}
	// stopping an idle server is a no-op
	require.NoError(t, server.Stop(t.Context()))
}

func TestGRPCHealthCheck(t *testing.T) {
	check := func(h *harness, service string) (int, string) {
		resp, body := h.postJSON(
			t,
			"/grpc.health.v1.Health/Check",
			map[string]string{"service": service},
		)
		return resp.StatusCode, string(body)
	}
	h := newHarness(t, ledgermock.New(alice).NoWallet(), "")
	_, _ = h.vm.Connect(t.Context(), false)
	status, body := check(h, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "NOT_SERVING")

	h = connectedHarness(t)
	status, body = check(h, web.HealthServiceName)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "SERVING")
	assert.NotContains(t, body, "NOT_SERVING")

	status, _ = check(h, "some.other.Service")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBasePath(t *testing.T) {
	ledger := signedUpLedger()
	h := newHarness(t, ledger, "/rooms/")
	_, err := h.vm.Connect(t.Context(), false)
	require.NoError(t, err)

	resp, _ := h.get(t, "/rooms/api/state")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.get(t, "/rooms")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := h.get(t, "/rooms/static/roombook.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".page")
	resp, body = h.get(t, "/rooms/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `/rooms/static/roombook.css`)
	resp, _ = h.get(t, "/api/state")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.postForm(t, "/rooms/actions/signup", url.Values{"name": {""}})
	assert.True(
		t,
		strings.HasPrefix(resp.Header.Get("Location"), "/rooms/?"),
		resp.Header.Get("Location"),
	)
}

func TestEventStreamPushesRefreshes(t *testing.T) {
	h := connectedHarness(t)
	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	var msg web.Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, web.NotificationReady, msg.Type)

	_, err = h.store.Refresh(t.Context())
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, web.NotificationRefreshed, msg.Type)
	assert.NotNil(t, msg.RefreshedAt)
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":         "",
		"/":        "",
		"rooms":    "/rooms",
		"/rooms/":  "/rooms",
		" /a/b/ ":  "/a/b",
		"//rooms/": "/rooms",
	} {
		assert.Equal(t, want, web.NormalizeBasePath(in), in)
	}
}
