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

// Package model holds the data-driven risk scoring configuration. The set
// of scored features is exactly the key set of Weights; it is a runtime
// mapping, not a fixed enum, so models can add features without a rebuild.
package model

import (
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type SeverityThresholds struct {
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

type Model struct {
	ModelVersion       string             `json:"model_version"`
	AnomalyThreshold   float64            `json:"anomaly_threshold"`
	SeverityThresholds SeverityThresholds `json:"severity_thresholds"`
	Weights            map[string]float64 `json:"weights"`
	Scales             map[string]float64 `json:"scales"`
	ReasonCodes        map[string]string  `json:"reason_codes"`
}

// Override is the caller-supplied partial model. Scalar fields replace the
// default when present; map fields merge key-wise (an override entry
// replaces its default entry, default entries not mentioned are preserved).
type Override struct {
	ModelVersion       *string            `mapstructure:"model_version"`
	AnomalyThreshold   *float64           `mapstructure:"anomaly_threshold"`
	SeverityThresholds *severityOverride  `mapstructure:"severity_thresholds"`
	Weights            map[string]float64 `mapstructure:"weights"`
	Scales             map[string]float64 `mapstructure:"scales"`
	ReasonCodes        map[string]string  `mapstructure:"reason_codes"`
}

type severityOverride struct {
	Medium *float64 `mapstructure:"medium"`
	High   *float64 `mapstructure:"high"`
}

// Default returns the built-in shadowit-v1 model.
func Default() Model {
	return Model{
		ModelVersion:     "shadowit-v1",
		AnomalyThreshold: 70.0,
		SeverityThresholds: SeverityThresholds{
			Medium: 40.0,
			High:   70.0,
		},
		Weights: map[string]float64{
			"unique_daddr":     18.0,
			"unique_asn":       16.0,
			"cloud_asn_unique": 16.0,
			"bytes_out":        14.0,
			"https_ratio":      12.0,
			"quic_ratio":       8.0,
			"port_entropy":     8.0,
			"new_asn_ratio":    8.0,
		},
		Scales: map[string]float64{
			"unique_daddr":     50.0,
			"unique_asn":       20.0,
			"cloud_asn_unique": 8.0,
			"bytes_out":        100_000_000.0,
			"https_ratio":      1.0,
			"quic_ratio":       0.6,
			"port_entropy":     4.0,
			"new_asn_ratio":    1.0,
		},
		ReasonCodes: map[string]string{
			"unique_daddr":     "MANY_DESTINATIONS",
			"unique_asn":       "MANY_ASNS",
			"cloud_asn_unique": "MANY_CLOUD_ASNS",
			"bytes_out":        "HIGH_EGRESS",
			"https_ratio":      "HIGH_HTTPS_RATIO",
			"quic_ratio":       "HIGH_QUIC_RATIO",
			"port_entropy":     "HIGH_PORT_ENTROPY",
			"new_asn_ratio":    "HIGH_NEW_ASN_RATIO",
		},
	}
}

// LoadOverride reads a JSON override file. Unknown top-level keys and wrong
// value types are structural errors, fatal at load time.
func LoadOverride(path string) (*Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading model config")
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrapf(err, "parsing model config %s", path)
	}

	override := Override{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &override,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, errors.Wrapf(err, "invalid model config %s", path)
	}
	return &override, nil
}

// Apply merges an override onto this model and returns the result.
func (m Model) Apply(o *Override) Model {
	out := m
	out.Weights = copyFloatMap(m.Weights)
	out.Scales = copyFloatMap(m.Scales)
	out.ReasonCodes = copyStringMap(m.ReasonCodes)
	if o == nil {
		return out
	}
	if o.ModelVersion != nil {
		out.ModelVersion = *o.ModelVersion
	}
	if o.AnomalyThreshold != nil {
		out.AnomalyThreshold = *o.AnomalyThreshold
	}
	if o.SeverityThresholds != nil {
		if o.SeverityThresholds.Medium != nil {
			out.SeverityThresholds.Medium = *o.SeverityThresholds.Medium
		}
		if o.SeverityThresholds.High != nil {
			out.SeverityThresholds.High = *o.SeverityThresholds.High
		}
	}
	for k, v := range o.Weights {
		out.Weights[k] = v
	}
	for k, v := range o.Scales {
		out.Scales[k] = v
	}
	for k, v := range o.ReasonCodes {
		out.ReasonCodes[k] = v
	}
	return out
}

// Validate checks the merged model eagerly, before any row is scored.
// A zero scale is allowed: the scorer guards it to a zero contribution.
func (m *Model) Validate() error {
	if m.ModelVersion == "" {
		return errors.New("model_version can't be empty")
	}
	if !isFinite(m.AnomalyThreshold) || m.AnomalyThreshold <= 0 {
		return errors.Errorf("anomaly_threshold must be a positive number, got %v", m.AnomalyThreshold)
	}
	if !isFinite(m.SeverityThresholds.Medium) || m.SeverityThresholds.Medium <= 0 {
		return errors.Errorf("severity_thresholds.medium must be a positive number, got %v", m.SeverityThresholds.Medium)
	}
	if !isFinite(m.SeverityThresholds.High) || m.SeverityThresholds.High <= 0 {
		return errors.Errorf("severity_thresholds.high must be a positive number, got %v", m.SeverityThresholds.High)
	}
	for name, w := range m.Weights {
		if !isFinite(w) {
			return errors.Errorf("weight of %q must be finite, got %v", name, w)
		}
	}
	for name, s := range m.Scales {
		if !isFinite(s) || s < 0 {
			return errors.Errorf("scale of %q must be a non-negative number, got %v", name, s)
		}
	}
	return nil
}

// Features returns the scored feature names in a deterministic order; this
// order is the tie-breaker when ranking equal contributions.
func (m *Model) Features() []string {
	names := make([]string, 0, len(m.Weights))
	for name := range m.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds the effective model: default, optional file override merged
// key-wise, optional version label override, then eager validation.
func Load(path, versionOverride string) (Model, error) {
	m := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			override, err := LoadOverride(path)
			if err != nil {
				return m, err
			}
			m = m.Apply(override)
		} else {
			log.Debugf("model config %s not found, using defaults", path)
		}
	}
	if versionOverride != "" {
		m.ModelVersion = versionOverride
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyFloatMap(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
