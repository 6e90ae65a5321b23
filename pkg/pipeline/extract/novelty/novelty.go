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

// Package novelty computes the cross-window ASN novelty ratio. It is an
// explicit second pass over the complete set of finalized feature rows:
// novelty for a window depends on every earlier window of the same identity,
// so it cannot run incrementally per input unit.
package novelty

import (
	"sort"

	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	log "github.com/sirupsen/logrus"
)

var nlog = log.WithField("component", "extract.Novelty")

// Tracker holds the per-identity "seen ASN" state of one run. State is
// run-local only; it is not persisted across invocations.
type Tracker struct {
	seenByIdentity map[string]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		seenByIdentity: make(map[string]map[string]struct{}),
	}
}

// Annotate sorts rows ascending by (identity, window start) and fills in
// NewASNRatio on each. Sorting here, rather than relying on the caller,
// makes the ordering the novelty semantics depend on an enforced
// precondition instead of an accident of map iteration.
//
// The first window of an identity with any ASNs gets ratio 1.0; a window
// whose ASN set was entirely seen before gets 0.0; a window with no ASNs
// gets 0.0. The seen set is extended unconditionally after each row.
func (t *Tracker) Annotate(rows []aggregate.FeatureRow) []aggregate.FeatureRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Identity != rows[j].Identity {
			return rows[i].Identity < rows[j].Identity
		}
		return rows[i].WindowStart.Before(rows[j].WindowStart)
	})

	for i := range rows {
		row := &rows[i]
		seen, found := t.seenByIdentity[row.Identity]
		if !found {
			seen = make(map[string]struct{})
			t.seenByIdentity[row.Identity] = seen
		}

		if len(row.ASNSet) > 0 {
			newCount := 0
			for asn := range row.ASNSet {
				if _, known := seen[asn]; !known {
					newCount++
				}
			}
			row.NewASNRatio = float64(newCount) / float64(len(row.ASNSet))
		} else {
			row.NewASNRatio = 0.0
		}

		for asn := range row.ASNSet {
			seen[asn] = struct{}{}
		}
	}
	nlog.Debugf("annotated %d rows across %d identities", len(rows), len(t.seenByIdentity))
	return rows
}
