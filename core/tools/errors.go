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

// Package tools implements the Provider/Registry tool dispatcher
// (C5): a pluggable registry of named external tool providers that the
// VM's Perform/ToolCall protocol suspends out to (spec.md §5 "Tool
// providers").
package tools

import "fmt"

// NotFoundError reports a tool_id with no configured response.
type NotFoundError struct{ ToolID string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("tools: tool not found: %s", e.ToolID) }

// InvalidArgsError reports malformed or missing call arguments.
type InvalidArgsError struct{ Reason string }

func (e *InvalidArgsError) Error() string { return fmt.Sprintf("tools: invalid arguments: %s", e.Reason) }

// ExecutionError wraps a provider-internal failure.
type ExecutionError struct{ Reason string }

func (e *ExecutionError) Error() string { return fmt.Sprintf("tools: execution failed: %s", e.Reason) }

// PolicyViolationError reports a call rejected by the caller-supplied
// policy (e.g. a capability the provider doesn't advertise).
type PolicyViolationError struct{ Reason string }

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("tools: policy violation: %s", e.Reason)
}

// RateLimitError reports a provider-level rate limit; RetryAfterMs is
// zero when the provider didn't advise a backoff window.
type RateLimitError struct {
	Message      string
	RetryAfterMs int64
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("tools: rate limit exceeded: %s", e.Message) }

// AuthError reports a provider authentication failure.
type AuthError struct{ Message string }

func (e *AuthError) Error() string { return fmt.Sprintf("tools: authentication failed: %s", e.Message) }

// ModelNotFoundError reports an unknown model name against a known
// provider (kept for providers that front multiple backing models).
type ModelNotFoundError struct{ Model, Provider string }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("tools: model not found: %s (provider: %s)", e.Model, e.Provider)
}

// TimeoutError reports a call that exceeded its deadline.
type TimeoutError struct{ ElapsedMs, LimitMs int64 }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tools: timeout: elapsed %dms, limit %dms", e.ElapsedMs, e.LimitMs)
}

// ProviderUnavailableError reports a registered provider that cannot
// currently serve calls (circuit open, backing service down, etc).
type ProviderUnavailableError struct{ Provider, Reason string }

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("tools: provider unavailable: %s (%s)", e.Provider, e.Reason)
}

// OutputValidationError reports a provider response that failed its own
// declared output schema.
type OutputValidationError struct{ ExpectedSchema, Actual string }

func (e *OutputValidationError) Error() string {
	return fmt.Sprintf("tools: output validation failed: expected %s, got %s", e.ExpectedSchema, e.Actual)
}

// NotRegisteredError reports a tool_id with no provider in the registry.
type NotRegisteredError struct{ ToolID string }

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("tools: provider not registered: %s", e.ToolID)
}
