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
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"

	"github.com/blinklabs-io/roombook/viewmodel"
)

// HealthServiceName is the gRPC health service name for the booking shell
const HealthServiceName = "roombook.v1.Booking"

// walletChecker reports serving unless no wallet is available
type walletChecker struct {
	bookings Bookings
}

func (c *walletChecker) Check(
	_ context.Context,
	req *grpchealth.CheckRequest,
) (*grpchealth.CheckResponse, error) {
	if req.Service != "" && req.Service != HealthServiceName {
		return nil, connect.NewError(
			connect.CodeNotFound,
			fmt.Errorf("unknown service %q", req.Service),
		)
	}
	if c.bookings.WalletStatus() == viewmodel.WalletNoWallet {
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	wallet := s.config.Bookings.WalletStatus()
	status := http.StatusOK
	healthy := wallet != viewmodel.WalletNoWallet
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		IsHealthy: healthy,
		Wallet:    string(wallet),
	})
}
