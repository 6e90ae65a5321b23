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

package transform

import (
	"sort"

	"github.com/argusobs/shadowit-pipeline/pkg/model"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	log "github.com/sirupsen/logrus"
)

const ReasonNone = "NONE"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var slog = log.WithField("component", "transform.Score")

// Scorer applies a scoring model to finalized feature rows.
type Scorer struct {
	model    model.Model
	features []string // model feature names, deterministic order
}

func NewScorer(m model.Model) *Scorer {
	return &Scorer{
		model:    m,
		features: m.Features(),
	}
}

type contribution struct {
	feature string
	value   float64
}

// Score converts one feature row into a score row. The set of consulted
// features is exactly the key set of the model's weights; feature values the
// row does not carry default to 0.
func (s *Scorer) Score(row *aggregate.FeatureRow) ScoreRow {
	contributions := make([]contribution, 0, len(s.features))
	score := 0.0
	for _, feature := range s.features {
		weight := s.model.Weights[feature]
		value := row.Feature(feature)
		scale, found := s.model.Scales[feature]
		if !found {
			scale = 1.0
		}
		contrib := normalize(value, scale) * weight
		contributions = append(contributions, contribution{feature: feature, value: contrib})
		score += contrib
	}
	score = clamp(score, 0, 100)

	severity := SeverityLow
	// high before medium; the thresholds are independent configuration
	switch {
	case score >= s.model.SeverityThresholds.High:
		severity = SeverityHigh
	case score >= s.model.SeverityThresholds.Medium:
		severity = SeverityMedium
	}
	// independent cut: severity and is_anom may legitimately disagree
	isAnom := score >= s.model.AnomalyThreshold

	reasons := s.buildReasons(contributions)

	return ScoreRow{
		WindowStart:    row.WindowStart,
		WindowEnd:      row.WindowEnd,
		Site:           row.Site,
		Identity:       row.Identity,
		Score:          score,
		Severity:       severity,
		IsAnom:         isAnom,
		Reason1:        reasons[0],
		Reason2:        reasons[1],
		Reason3:        reasons[2],
		ModelVersion:   s.model.ModelVersion,
		FeatureVersion: row.FeatureVersion,
		SourceRunID:    row.RunID,
		UniqueDaddr:    row.UniqueDaddr,
		UniqueASN:      row.UniqueASN,
		CloudASNUnique: row.CloudASNUnique,
		BytesOut:       row.BytesOut,
		HTTPSRatio:     row.HTTPSRatio,
		QUICRatio:      row.QUICRatio,
		Dt:             row.Dt,
		Hour:           row.Hour,
	}
}

// ScoreAll scores every row of a finished batch.
func (s *Scorer) ScoreAll(rows []aggregate.FeatureRow) []ScoreRow {
	out := make([]ScoreRow, 0, len(rows))
	for i := range rows {
		out = append(out, s.Score(&rows[i]))
	}
	slog.Debugf("scored %d rows with model %s", len(out), s.model.ModelVersion)
	return out
}

// buildReasons ranks features by contribution descending, keeps the strictly
// positive ones, maps the top 3 to their reason codes and pads with NONE.
// contributions arrive in the model's feature enumeration order, and the
// stable sort keeps that order among equal contributions, so ranking is
// deterministic.
func (s *Scorer) buildReasons(contributions []contribution) [3]string {
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].value > contributions[j].value
	})
	reasons := [3]string{ReasonNone, ReasonNone, ReasonNone}
	n := 0
	for _, c := range contributions {
		if c.value <= 0 {
			continue
		}
		code, found := s.model.ReasonCodes[c.feature]
		if !found {
			code = c.feature
		}
		reasons[n] = code
		n++
		if n == 3 {
			break
		}
	}
	return reasons
}

// normalize maps a raw value into [0,1] against its scale. A non-positive
// scale yields zero contribution instead of erroring.
func normalize(value, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return clamp(value/scale, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
