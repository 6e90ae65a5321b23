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
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/config"
)

// FeatureRow is one finalized (window, identity) feature vector. It is
// immutable once produced, except for NewASNRatio which the novelty stage
// fills in during its second pass.
type FeatureRow struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Site            string    `json:"site"`
	Identity        string    `json:"identity"`
	FlowCount       int64     `json:"flow_count"`
	BytesOut        int64     `json:"bytes_out"`
	BytesIn         int64     `json:"bytes_in"`
	BytesTotal      int64     `json:"bytes_total"`
	UniqueDaddr     int32     `json:"unique_daddr"`
	UniqueASN       int32     `json:"unique_asn"`
	CloudASNUnique  int32     `json:"cloud_asn_unique"`
	HTTPSRatio      float64   `json:"https_ratio"`
	QUICRatio       float64   `json:"quic_ratio"`
	PortEntropy     float64   `json:"port_entropy"`
	NewASNRatio     float64   `json:"new_asn_ratio"`
	FeatureVersion  string    `json:"feature_version"`
	SourceFileCount int       `json:"source_file_count"`
	RunID           string    `json:"run_id"`
	Dt              string    `json:"dt"`
	Hour            int       `json:"hour"`

	// ASNSet is retained only for the novelty pass and dropped before
	// external emission.
	ASNSet map[string]struct{} `json:"-"`
}

// RunInfo carries the per-run labels stamped into every finalized row.
type RunInfo struct {
	Site            string
	FeatureVersion  string
	RunID           string
	SourceFileCount int
}

// Finalize derives an immutable feature row from every completed aggregate.
// Row order is unspecified; the novelty stage sorts its input itself.
func (a *Accumulator) Finalize(info RunInfo) []FeatureRow {
	rows := make([]FeatureRow, 0, len(a.aggregates))
	for key, agg := range a.aggregates {
		flowCount := agg.FlowCount
		if flowCount < 1 {
			flowCount = 1
		}
		windowStart := time.Unix(key.WindowStart, 0).UTC()
		row := FeatureRow{
			WindowStart:     windowStart,
			WindowEnd:       time.Unix(key.WindowStart+a.windowSeconds, 0).UTC(),
			Site:            info.Site,
			Identity:        key.Identity,
			FlowCount:       agg.FlowCount,
			BytesOut:        agg.BytesOut,
			BytesIn:         agg.BytesIn,
			BytesTotal:      agg.BytesOut + agg.BytesIn,
			UniqueDaddr:     int32(len(agg.UniqueDaddr)),
			UniqueASN:       int32(len(agg.UniqueASN)),
			CloudASNUnique:  int32(len(agg.CloudASN)),
			HTTPSRatio:      float64(agg.HTTPSFlows) / float64(flowCount),
			QUICRatio:       float64(agg.QUICFlows) / float64(flowCount),
			PortEntropy:     portEntropy(agg.PortHist),
			FeatureVersion:  info.FeatureVersion,
			SourceFileCount: info.SourceFileCount,
			RunID:           info.RunID,
			Dt:              windowStart.Format("2006-01-02"),
			Hour:            windowStart.Hour(),
			ASNSet:          copySet(agg.UniqueASN),
		}
		rows = append(rows, row)
	}
	return rows
}

func copySet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

// Feature returns a numeric field by its external name, 0 when the name is
// not a numeric feature of this row. The scorer stays data-driven through
// this accessor: the set of consulted names is owned by the model.
func (r *FeatureRow) Feature(name string) float64 {
	switch name {
	case "flow_count":
		return float64(r.FlowCount)
	case "bytes_out":
		return float64(r.BytesOut)
	case "bytes_in":
		return float64(r.BytesIn)
	case "bytes_total":
		return float64(r.BytesTotal)
	case "unique_daddr":
		return float64(r.UniqueDaddr)
	case "unique_asn":
		return float64(r.UniqueASN)
	case "cloud_asn_unique":
		return float64(r.CloudASNUnique)
	case "https_ratio":
		return r.HTTPSRatio
	case "quic_ratio":
		return r.QUICRatio
	case "port_entropy":
		return r.PortEntropy
	case "new_asn_ratio":
		return r.NewASNRatio
	case "hour":
		return float64(r.Hour)
	default:
		return 0
	}
}

// ToMap renders the row for the writers. The transient ASN set is not
// included.
func (r *FeatureRow) ToMap() config.GenericMap {
	return config.GenericMap{
		"window_start":      r.WindowStart.Format(time.RFC3339),
		"window_end":        r.WindowEnd.Format(time.RFC3339),
		"site":              r.Site,
		"identity":          r.Identity,
		"flow_count":        r.FlowCount,
		"bytes_out":         r.BytesOut,
		"bytes_in":          r.BytesIn,
		"bytes_total":       r.BytesTotal,
		"unique_daddr":      r.UniqueDaddr,
		"unique_asn":        r.UniqueASN,
		"cloud_asn_unique":  r.CloudASNUnique,
		"https_ratio":       r.HTTPSRatio,
		"quic_ratio":        r.QUICRatio,
		"port_entropy":      r.PortEntropy,
		"new_asn_ratio":     r.NewASNRatio,
		"feature_version":   r.FeatureVersion,
		"source_file_count": r.SourceFileCount,
		"run_id":            r.RunID,
		"dt":                r.Dt,
		"hour":              r.Hour,
	}
}
