/*
 * Copyright (C) 2024 ArgusObs Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package novelty

import (
	"testing"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	"github.com/stretchr/testify/require"
)

func row(identity string, windowStart int64, asns ...string) aggregate.FeatureRow {
	set := make(map[string]struct{}, len(asns))
	for _, asn := range asns {
		set[asn] = struct{}{}
	}
	return aggregate.FeatureRow{
		Identity:    identity,
		WindowStart: time.Unix(windowStart, 0).UTC(),
		ASNSet:      set,
	}
}

func TestAnnotate_FirstWindowIsAllNew(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h1", 900, "15169", "16509"),
	})
	require.InDelta(t, 1.0, rows[0].NewASNRatio, 1e-9)
}

func TestAnnotate_SubsetOfSeenIsZero(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h1", 900, "15169", "16509"),
		row("h1", 1200, "15169"),
	})
	require.InDelta(t, 1.0, rows[0].NewASNRatio, 1e-9)
	require.InDelta(t, 0.0, rows[1].NewASNRatio, 1e-9)
}

func TestAnnotate_PartialNovelty(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h1", 900, "15169"),
		row("h1", 1200, "15169", "8075"),
	})
	require.InDelta(t, 0.5, rows[1].NewASNRatio, 1e-9)
}

func TestAnnotate_EmptyASNSetIsZero(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h1", 900),
		row("h1", 1200, "15169"),
	})
	require.InDelta(t, 0.0, rows[0].NewASNRatio, 1e-9)
	// the empty window must not mark anything as seen
	require.InDelta(t, 1.0, rows[1].NewASNRatio, 1e-9)
}

// Annotate must sort its input itself: handing it rows out of order yields
// the same annotations as sorted input.
func TestAnnotate_SortsInput(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h2", 900, "8075"),
		row("h1", 1200, "15169"),
		row("h1", 900, "15169", "16509"),
	})

	require.Equal(t, "h1", rows[0].Identity)
	require.Equal(t, int64(900), rows[0].WindowStart.Unix())
	require.InDelta(t, 1.0, rows[0].NewASNRatio, 1e-9)

	require.Equal(t, "h1", rows[1].Identity)
	require.Equal(t, int64(1200), rows[1].WindowStart.Unix())
	require.InDelta(t, 0.0, rows[1].NewASNRatio, 1e-9)

	require.Equal(t, "h2", rows[2].Identity)
	require.InDelta(t, 1.0, rows[2].NewASNRatio, 1e-9)
}

// Identities do not share seen state.
func TestAnnotate_IdentitiesIsolated(t *testing.T) {
	rows := NewTracker().Annotate([]aggregate.FeatureRow{
		row("h1", 900, "15169"),
		row("h2", 1200, "15169"),
	})
	require.InDelta(t, 1.0, rows[0].NewASNRatio, 1e-9)
	require.InDelta(t, 1.0, rows[1].NewASNRatio, 1e-9)
}
