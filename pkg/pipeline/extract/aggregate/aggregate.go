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

package aggregate

import (
	"fmt"
	"math"

	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/decode"
	log "github.com/sirupsen/logrus"
)

// Key identifies one aggregation group. WindowStart is an integer multiple
// of the accumulator's window length, in epoch seconds.
type Key struct {
	WindowStart int64
	Identity    string
}

// WindowAggregate holds the running statistics of one (window, identity)
// group. All updates are commutative: the final state does not depend on
// the order records are ingested in.
type WindowAggregate struct {
	FlowCount   int64
	BytesOut    int64
	BytesIn     int64
	UniqueDaddr map[string]struct{}
	UniqueASN   map[string]struct{}
	CloudASN    map[string]struct{}
	HTTPSFlows  int64
	QUICFlows   int64
	PortHist    map[string]int64
}

func newWindowAggregate() *WindowAggregate {
	return &WindowAggregate{
		UniqueDaddr: make(map[string]struct{}),
		UniqueASN:   make(map[string]struct{}),
		CloudASN:    make(map[string]struct{}),
		PortHist:    make(map[string]int64),
	}
}

// Accumulator folds canonical flow records into keyed window aggregates.
type Accumulator struct {
	windowSeconds int64
	cloudASNs     map[string]struct{}
	aggregates    map[Key]*WindowAggregate
}

// NewAccumulator creates an accumulator for the given window length.
// cloudASNs may be nil when no cloud designation is configured.
func NewAccumulator(windowSeconds int64, cloudASNs map[string]struct{}) (*Accumulator, error) {
	if windowSeconds <= 0 {
		return nil, fmt.Errorf("window must be a positive number of seconds, got %d", windowSeconds)
	}
	if cloudASNs == nil {
		cloudASNs = map[string]struct{}{}
	}
	return &Accumulator{
		windowSeconds: windowSeconds,
		cloudASNs:     cloudASNs,
		aggregates:    make(map[Key]*WindowAggregate),
	}, nil
}

func (a *Accumulator) WindowSeconds() int64 {
	return a.windowSeconds
}

// NumGroups returns the number of (window, identity) groups accumulated so far.
func (a *Accumulator) NumGroups() int {
	return len(a.aggregates)
}

// getOrInsert returns the aggregate for key, creating it on first access.
func (a *Accumulator) getOrInsert(key Key) *WindowAggregate {
	agg, found := a.aggregates[key]
	if !found {
		agg = newWindowAggregate()
		a.aggregates[key] = agg
	}
	return agg
}

// Ingest folds one record into the aggregate of its (window, identity) key.
func (a *Accumulator) Ingest(rec *decode.FlowRecord) {
	windowStart := (int64(rec.Stime) / a.windowSeconds) * a.windowSeconds
	agg := a.getOrInsert(Key{WindowStart: windowStart, Identity: rec.Saddr})

	agg.FlowCount++
	agg.BytesOut += rec.Sbytes
	agg.BytesIn += rec.Dbytes
	agg.UniqueDaddr[rec.Daddr] = struct{}{}

	if rec.ASN != "" {
		agg.UniqueASN[rec.ASN] = struct{}{}
		if _, isCloud := a.cloudASNs[rec.ASN]; isCloud {
			agg.CloudASN[rec.ASN] = struct{}{}
		}
	}

	agg.PortHist[rec.Dport]++
	if decode.IsHTTPSFlow(rec.Dport) {
		agg.HTTPSFlows++
	}
	if decode.IsQUICFlow(rec.Proto, rec.Dport) {
		agg.QUICFlows++
	}
}

// Merge folds the groups of another accumulator into this one, key-wise:
// counters are summed, sets are unioned, histogram buckets are summed.
// Because accumulation is associative, merging partial accumulators built
// over disjoint record subsets yields the same result as sequential
// ingestion. Both accumulators must share the same window length.
func (a *Accumulator) Merge(other *Accumulator) error {
	if other.windowSeconds != a.windowSeconds {
		return fmt.Errorf("can't merge accumulators with different windows: %d != %d",
			a.windowSeconds, other.windowSeconds)
	}
	for key, src := range other.aggregates {
		dst := a.getOrInsert(key)
		dst.FlowCount += src.FlowCount
		dst.BytesOut += src.BytesOut
		dst.BytesIn += src.BytesIn
		dst.HTTPSFlows += src.HTTPSFlows
		dst.QUICFlows += src.QUICFlows
		for addr := range src.UniqueDaddr {
			dst.UniqueDaddr[addr] = struct{}{}
		}
		for asn := range src.UniqueASN {
			dst.UniqueASN[asn] = struct{}{}
		}
		for asn := range src.CloudASN {
			dst.CloudASN[asn] = struct{}{}
		}
		for port, count := range src.PortHist {
			dst.PortHist[port] += count
		}
	}
	log.Debugf("merged accumulator: %d groups", len(a.aggregates))
	return nil
}

// portEntropy computes the Shannon entropy (base 2) of the empirical port
// distribution. An empty histogram has entropy 0.
func portEntropy(hist map[string]int64) float64 {
	var total int64
	for _, count := range hist {
		total += count
	}
	if total <= 0 {
		return 0
	}
	entropy := 0.0
	for _, count := range hist {
		if count <= 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
