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

package durability

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurableLogIntentThenResultSettles(t *testing.T) {
	var buf bytes.Buffer
	log := NewDurableLogWriter(&buf)

	require.NoError(t, log.AppendIntent("intent-1", "search", map[string]interface{}{"q": "go"}))
	require.NoError(t, log.AppendResult("intent-1", map[string]interface{}{"hits": 3}))

	states, err := ReplayDurableLog(&buf)
	require.NoError(t, err)
	require.Contains(t, states, "intent-1")
	assert.True(t, states["intent-1"].Settled)
	assert.Empty(t, PendingIntents(states))
}

func TestDurableLogPendingIntentWithoutResult(t *testing.T) {
	var buf bytes.Buffer
	log := NewDurableLogWriter(&buf)

	require.NoError(t, log.AppendIntent("intent-2", "search", nil))

	states, err := ReplayDurableLog(&buf)
	require.NoError(t, err)
	pending := PendingIntents(states)
	require.Len(t, pending, 1)
	assert.Equal(t, "intent-2", pending[0].IntentID)
}

func TestDurableLogRecordsError(t *testing.T) {
	var buf bytes.Buffer
	log := NewDurableLogWriter(&buf)

	require.NoError(t, log.AppendIntent("intent-3", "search", nil))
	require.NoError(t, log.AppendError("intent-3", errors.New("boom")))

	states, err := ReplayDurableLog(&buf)
	require.NoError(t, err)
	assert.True(t, states["intent-3"].Settled)
	assert.Equal(t, "boom", states["intent-3"].Error)
}
