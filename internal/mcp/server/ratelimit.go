// Copyright 2025 Tom Barlow
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

package server

import (
	"golang.org/x/time/rate"
)

// RateLimiter bounds the number of tool calls per minute. The bucket starts
// full so a client can burst up to one minute's allowance.
type RateLimiter struct {
	calls *rate.Limiter
}

// NewRateLimiter creates a limiter allowing callsPerMinute tool calls.
// A non-positive value disables limiting.
func NewRateLimiter(callsPerMinute int) *RateLimiter {
	if callsPerMinute <= 0 {
		return &RateLimiter{calls: rate.NewLimiter(rate.Inf, 0)}
	}
	perSecond := rate.Limit(float64(callsPerMinute) / 60.0)
	return &RateLimiter{calls: rate.NewLimiter(perSecond, callsPerMinute)}
}

// AllowCall reports whether a tool call may proceed now.
func (rl *RateLimiter) AllowCall() bool {
	return rl.calls.Allow()
}
