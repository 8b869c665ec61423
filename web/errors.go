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
	"errors"
	"net/http"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/viewmodel"
)

// statusFor maps an action error to an HTTP status code
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, viewmodel.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, viewmodel.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrConnectionRejected):
		return http.StatusForbidden
	case errors.Is(err, viewmodel.ErrActionPending):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrTransactionRejected),
		errors.Is(err, gateway.ErrWrongNetwork):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrNoWalletFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrNetworkFailure),
		errors.Is(err, gateway.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// messageFor returns the text shown to the user for an action error
func messageFor(err error) string {
	switch {
	case errors.Is(err, viewmodel.ErrMisalignedTime):
		return "Date formatted incorrectly. Please pick a date & time from the calendar."
	case errors.Is(err, viewmodel.ErrPastDate):
		return "Please pick a time in the future."
	case errors.Is(err, viewmodel.ErrEmptyName):
		return "Please input your name."
	case errors.Is(err, viewmodel.ErrUnknownRoom):
		return "Please pick one of the listed rooms."
	case errors.Is(err, viewmodel.ErrNotConnected):
		return "Connect your wallet first."
	case errors.Is(err, viewmodel.ErrActionPending):
		return "Still working on your previous request."
	case errors.Is(err, gateway.ErrNoWalletFound):
		return "No web3 wallet is available."
	case errors.Is(err, gateway.ErrConnectionRejected):
		return "The wallet connection was declined."
	case errors.Is(err, gateway.ErrWrongNetwork):
		return "The wallet is on the wrong network."
	case errors.Is(err, gateway.ErrTransactionRejected):
		return "The transaction was rejected."
	case errors.Is(err, gateway.ErrNetworkFailure),
		errors.Is(err, gateway.ErrMalformedResponse):
		return "The ledger could not be reached. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out waiting for confirmation."
	}
	return "Something went wrong. Please try again."
}
