// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package tools

import (
	"context"
	"time"
)

// RetryPolicy controls how Registry.Dispatch retries a failing
// provider call, with exponential backoff bounded by MaxDelayMs.
type RetryPolicy struct {
	MaxRetries  uint32
	BaseDelayMs int64
	MaxDelayMs  int64
}

// DefaultRetryPolicy matches the defaults the provider layer always
// shipped with: three retries, 100ms base backoff, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelayMs: 100, MaxDelayMs: 10_000}
}

func (p RetryPolicy) delay(attempt uint32) time.Duration {
	d := p.BaseDelayMs
	for i := uint32(0); i < attempt; i++ {
		d *= 2
		if d > p.MaxDelayMs {
			d = p.MaxDelayMs
			break
		}
	}
	return time.Duration(d) * time.Millisecond
}

// retryable reports whether err is worth another attempt; policy and
// validation failures are the caller's fault and never improve on
// retry.
func retryable(err error) bool {
	switch err.(type) {
	case *InvalidArgsError, *PolicyViolationError, *OutputValidationError, *NotRegisteredError:
		return false
	default:
		return true
	}
}

func withRetry(ctx context.Context, policy RetryPolicy, fn func() (*Response, error)) (*Response, error) {
	var lastErr error
	for attempt := uint32(0); attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.delay(attempt - 1)):
			}
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
