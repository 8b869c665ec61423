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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/blinklabs-io/roombook"
	"github.com/blinklabs-io/roombook/internal/config"
	"github.com/blinklabs-io/roombook/internal/server"
	"github.com/blinklabs-io/roombook/models"
	"github.com/blinklabs-io/roombook/viewmodel"
)

const (
	dayLayout  = "2006-01-02"
	slotLayout = "2006-01-02 15:04"
)

// session is a connected app for a single CLI command
type session struct {
	app     *roombook.App
	vm      *viewmodel.ViewModel
	account string
}

// cliLogger keeps stdout free for command output
func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

// withSession connects to the wallet and loads the read model before
// calling fn. With prompt set, the wallet is asked to authorize the
// application and a connection failure is fatal.
func withSession(
	cmd *cobra.Command,
	prompt bool,
	fn func(ctx context.Context, s *session) error,
) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	logger := cliLogger()
	app, err := roombook.New(
		roombook.NewConfig(server.AppOptions(cfg, logger)...),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s := &session{app: app, vm: app.ViewModel()}
	account, err := s.vm.Connect(ctx, prompt)
	if err != nil {
		if prompt {
			return err
		}
		logger.Debug("wallet not connected", "error", err)
	}
	if account == "" || err != nil {
		if _, err := app.Refresh(ctx); err != nil {
			return err
		}
	}
	s.account = account
	if cfg.Account != "" && cfg.Account != account {
		if err := s.vm.UseAccount(ctx, cfg.Account); err != nil {
			return err
		}
		s.account = cfg.Account
	}
	return fn(ctx, s)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func renderRooms(w io.Writer, m *models.ReadModel) {
	t := newTable(w, table.Row{"Room"})
	for _, room := range m.Rooms {
		t.AppendRow(table.Row{room.Name})
	}
	t.Render()
}

func renderReservations(
	w io.Writer,
	reservations []models.Reservation,
	actingUser string,
) {
	t := newTable(w, table.Row{"Room", "Time (UTC)", "Name", "Address", "Mine"})
	for _, r := range reservations {
		mine := ""
		if r.OwnedBy(actingUser) {
			mine = "*"
		}
		t.AppendRow(table.Row{
			r.Room.Name,
			r.Time().Format(slotLayout),
			r.User.Name,
			r.User.Address,
			mine,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(reservations)})
	t.Render()
}

func renderSlots(w io.Writer, room string, slots []int64) {
	t := newTable(w, table.Row{"Room", "Available (UTC)"})
	for _, ts := range slots {
		t.AppendRow(table.Row{room, time.UnixMilli(ts).UTC().Format(slotLayout)})
	}
	t.Render()
}

// parseSlot reads a slot start as RFC 3339 or as "YYYY-MM-DD HH:MM" in UTC
// and returns it in Unix ms
func parseSlot(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	for _, layout := range []string{slotLayout, "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf(
		"invalid time %q: expected RFC 3339 or %q",
		s,
		slotLayout,
	)
}

// futureSlots drops slots that have already started
func futureSlots(slots []int64, now time.Time) []int64 {
	ret := make([]int64, 0, len(slots))
	for _, ts := range slots {
		if time.UnixMilli(ts).After(now) {
			ret = append(ret, ts)
		}
	}
	return ret
}

// findReservation locates the reservation of room at date (Unix ms)
func findReservation(
	m *models.ReadModel,
	room string,
	date int64,
) (models.Reservation, error) {
	for _, r := range m.ReservationsFor(room) {
		if r.Date == date {
			return r, nil
		}
	}
	return models.Reservation{}, fmt.Errorf(
		"no reservation of room %q at %s",
		room,
		time.UnixMilli(date).UTC().Format(slotLayout),
	)
}

func roomsCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "rooms",
		Short:        "List bookable rooms",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, false, func(_ context.Context, s *session) error {
				renderRooms(cmd.OutOrStdout(), s.vm.Model())
				return nil
			})
		},
	}
}

func reservationsCommand() *cobra.Command {
	var mine bool
	var room string
	cmd := &cobra.Command{
		Use:          "reservations",
		Short:        "List reservations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, false, func(_ context.Context, s *session) error {
				m := s.vm.Model()
				reservations := m.Reservations
				if room != "" {
					reservations = m.ReservationsFor(room)
				}
				if mine {
					if s.account == "" {
						return viewmodel.ErrNotConnected
					}
					var ret []models.Reservation
					for _, r := range reservations {
						if r.OwnedBy(s.account) {
							ret = append(ret, r)
						}
					}
					reservations = ret
				}
				renderReservations(cmd.OutOrStdout(), reservations, s.account)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only show the acting account's reservations")
	cmd.Flags().StringVar(&room, "room", "", "only show reservations of this room")
	return cmd
}

func slotsCommand() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:          "slots ROOM",
		Short:        "List the free hourly slots of a room for a day",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			date := now.UTC()
			if day != "" {
				var err error
				date, err = time.ParseInLocation(dayLayout, day, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid day %q: expected %s", day, dayLayout)
				}
			}
			return withSession(cmd, false, func(_ context.Context, s *session) error {
				room := args[0]
				if !s.vm.Model().HasRoom(room) {
					return fmt.Errorf("%w: %s", viewmodel.ErrUnknownRoom, room)
				}
				slots := futureSlots(s.vm.AvailableSlots(room, date), now)
				renderSlots(cmd.OutOrStdout(), room, slots)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "calendar day as YYYY-MM-DD in UTC (default: today)")
	return cmd
}

func reserveCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "reserve ROOM TIME",
		Short:        "Reserve a room for the hour starting at TIME",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, true, func(ctx context.Context, s *session) error {
				if err := s.vm.Reserve(ctx, args[0], date, s.account); err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"Reserved %s at %s\n",
					args[0],
					time.UnixMilli(date).UTC().Format(slotLayout),
				)
				return nil
			})
		},
	}
}

func cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "cancel ROOM TIME",
		Short:        "Cancel one of your reservations",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, true, func(ctx context.Context, s *session) error {
				r, err := findReservation(s.vm.Model(), args[0], date)
				if err != nil {
					return err
				}
				if !s.vm.CanCancel(r, s.account) {
					return fmt.Errorf(
						"reservation belongs to %s, not %s",
						r.User.Address,
						s.account,
					)
				}
				if err := s.vm.Cancel(ctx, r, s.account); err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"Cancelled %s at %s\n",
					r.Room.Name,
					r.Time().Format(slotLayout),
				)
				return nil
			})
		},
	}
}

func signupCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "signup NAME",
		Short:        "Register a display name for your account",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, true, func(ctx context.Context, s *session) error {
				if err := s.vm.SignUp(ctx, args[0], s.account); err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"Signed up %s as %q\n",
					s.account,
					strings.TrimSpace(args[0]),
				)
				return nil
			})
		},
	}
}
