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
	"errors"
	"fmt"
)

// ErrValidationFailed is wrapped by every local pre-submission guard
var ErrValidationFailed = errors.New("validation failed")

var (
	ErrMisalignedTime = fmt.Errorf(
		"%w: date is not on a whole hour",
		ErrValidationFailed,
	)
	ErrPastDate = fmt.Errorf(
		"%w: date is not in the future",
		ErrValidationFailed,
	)
	ErrEmptyName = fmt.Errorf(
		"%w: name is empty",
		ErrValidationFailed,
	)
	ErrUnknownRoom = fmt.Errorf(
		"%w: unknown room",
		ErrValidationFailed,
	)
)

var (
	ErrActionPending = errors.New("action already pending")
	ErrNotConnected  = errors.New("wallet not connected")
)
