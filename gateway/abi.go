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

// Booking contract methods used by roombook
const (
	MethodGetRooms        = "getRooms"
	MethodGetReservations = "getReservations"
	MethodUsers           = "users"
	MethodReserve         = "reserve"
	MethodCancel          = "cancel"
	MethodGiveAccess      = "giveAccess"
)

// BookingABI is the ABI of the deployed Booking contract. Owner-only
// methods (createRooms, allocate, ...) are listed for completeness but are
// never called from here.
const BookingABI = `[
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"previousOwner","type":"address"},{"indexed":true,"internalType":"address","name":"newOwner","type":"address"}],"name":"OwnershipTransferred","type":"event"},
{"inputs":[{"internalType":"address","name":"user","type":"address"},{"internalType":"uint8","name":"n","type":"uint8"}],"name":"allocate","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"components":[{"internalType":"string","name":"name","type":"string"}],"internalType":"struct Booking.Room","name":"room","type":"tuple"},{"internalType":"uint256","name":"date","type":"uint256"},{"internalType":"address","name":"user","type":"address"}],"name":"cancel","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"name":"clean","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"string[]","name":"names","type":"string[]"}],"name":"createRooms","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"string","name":"name","type":"string"}],"name":"deleteRoom","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"user","type":"address"},{"internalType":"string","name":"name","type":"string"}],"name":"giveAccess","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"removeAccess","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"name":"renounceOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"string","name":"roomName","type":"string"},{"internalType":"uint256","name":"date","type":"uint256"},{"internalType":"address","name":"user","type":"address"}],"name":"reserve","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"allocations","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getReservations","outputs":[{"internalType":"string[]","name":"","type":"string[]"},{"internalType":"uint256[]","name":"","type":"uint256[]"},{"internalType":"address[]","name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"name","type":"string"}],"name":"getRoom","outputs":[{"internalType":"bool","name":"","type":"bool"},{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getRooms","outputs":[{"internalType":"string[]","name":"","type":"string[]"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"reservations","outputs":[{"components":[{"internalType":"string","name":"name","type":"string"}],"internalType":"struct Booking.Room","name":"room","type":"tuple"},{"internalType":"uint256","name":"date","type":"uint256"},{"internalType":"address","name":"user","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"rooms","outputs":[{"internalType":"string","name":"name","type":"string"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"users","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`
