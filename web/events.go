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
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/store"
)

const (
	NotificationReady       = "ready"
	NotificationRefreshed   = "refreshed"
	NotificationInvalidated = "invalidated"

	eventWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleEvents handles GET /api/events. Each stream gets its own event bus
// subscriptions and lives until the client goes away or the server stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.config.EventBus == nil {
		writeError(w, http.StatusNotImplemented, "event stream not available")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	if s.metrics != nil {
		s.metrics.eventStreams.Inc()
		defer s.metrics.eventStreams.Dec()
	}

	bus := s.config.EventBus
	refreshedId, refreshedCh := bus.Subscribe(store.RefreshedEventType)
	defer bus.Unsubscribe(store.RefreshedEventType, refreshedId)
	changedId, changedCh := bus.Subscribe(gateway.NetworkChangedEventType)
	defer bus.Unsubscribe(gateway.NetworkChangedEventType, changedId)

	//nolint:errcheck
	conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteJSON(Notification{Type: NotificationReady}); err != nil {
		return
	}

	// The read loop only notices the client closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		var msg Notification
		select {
		case <-closed:
			return
		case <-s.stopCh:
			//nolint:errcheck
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(eventWriteTimeout),
			)
			return
		case evt, ok := <-refreshedCh:
			if !ok {
				return
			}
			msg.Type = NotificationRefreshed
			if data, ok := evt.Data.(store.RefreshedEvent); ok && data.Model != nil {
				refreshedAt := data.Model.RefreshedAt
				msg.RefreshedAt = &refreshedAt
			}
		case evt, ok := <-changedCh:
			if !ok {
				return
			}
			msg.Type = NotificationInvalidated
			if data, ok := evt.Data.(gateway.NetworkChangedEvent); ok {
				msg.ChainId = data.ChainId
			}
		}
		//nolint:errcheck
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("event stream write failed", "error", err)
			return
		}
	}
}
