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

package decode

import (
	"strconv"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/operational"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Field order of the raw tuples produced by the record source:
// stime dur saddr daddr proto dport das sbytes dbytes
const (
	fieldStime = iota
	fieldDur
	fieldSaddr
	fieldDaddr
	fieldProto
	fieldDport
	fieldDas
	fieldSbytes
	fieldDbytes
	minFieldCount
)

// FlowRecord is the canonical form of one raw flow tuple. It is consumed
// once by the aggregator and not retained.
type FlowRecord struct {
	Stime  float64
	Saddr  string
	Daddr  string
	Proto  string
	Dport  string
	ASN    string // normalized, "" when absent
	Sbytes int64
	Dbytes int64
}

var invalidValues = map[string]struct{}{
	"":        {},
	"-":       {},
	"--":      {},
	"0":       {},
	"unknown": {},
}

var droppedRecords = operational.NewCounterVec(prometheus.CounterOpts{
	Name: "decode_flow_records_dropped",
	Help: "Number of malformed raw tuples dropped by the flow normalizer",
}, []string{"reason"})

// Normalizer turns raw field tuples into FlowRecords, dropping unparsable
// rows without failing the run.
type Normalizer struct {
	Parsed  int64
	Dropped int64
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Decode normalizes one raw tuple. The second return value is false when the
// row must be dropped (short row, bad timestamp or missing identity).
func (n *Normalizer) Decode(row []string) (*FlowRecord, bool) {
	if len(row) < minFieldCount {
		n.drop("short_row")
		return nil, false
	}
	stime, err := strconv.ParseFloat(strings.TrimSpace(row[fieldStime]), 64)
	if err != nil {
		// header or malformed row
		log.Debugf("dropping row with unparsable stime %q", row[fieldStime])
		n.drop("bad_timestamp")
		return nil, false
	}
	saddr := strings.TrimSpace(row[fieldSaddr])
	if saddr == "" {
		n.drop("missing_identity")
		return nil, false
	}

	rec := &FlowRecord{
		Stime:  stime,
		Saddr:  saddr,
		Daddr:  strings.TrimSpace(row[fieldDaddr]),
		Proto:  strings.ToLower(strings.TrimSpace(row[fieldProto])),
		Dport:  NormalizeDport(row[fieldDport]),
		ASN:    NormalizeASN(row[fieldDas]),
		Sbytes: parseIntLike(row[fieldSbytes]),
		Dbytes: parseIntLike(row[fieldDbytes]),
	}
	n.Parsed++
	return rec, true
}

func (n *Normalizer) drop(reason string) {
	n.Dropped++
	droppedRecords.WithLabelValues(reason).Inc()
}

func isInvalid(value string) bool {
	_, found := invalidValues[strings.ToLower(value)]
	return found
}

// NormalizeDport maps blank/sentinel ports to "0", the literal https alias to
// "443", and lower-cases everything else.
func NormalizeDport(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if isInvalid(value) {
		return "0"
	}
	if value == "https" {
		return "443"
	}
	return value
}

// NormalizeASN returns the canonical ASN string, or "" when the raw value is
// blank or one of the sentinel placeholders. A leading "AS" prefix is
// stripped after upper-casing.
func NormalizeASN(raw string) string {
	value := strings.TrimSpace(raw)
	if isInvalid(value) {
		return ""
	}
	value = strings.TrimPrefix(strings.ToUpper(value), "AS")
	return strings.TrimSpace(value)
}

// parseIntLike parses a byte counter leniently: integer first, then a
// truncated float, then 0. A single bad field never fails the row.
func parseIntLike(raw string) int64 {
	value := strings.TrimSpace(raw)
	if isInvalid(value) {
		return 0
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		if i < 0 {
			return 0
		}
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if f < 0 {
			return 0
		}
		return int64(f)
	}
	return 0
}

// IsHTTPSFlow reports whether a normalized port designates HTTPS.
func IsHTTPSFlow(dport string) bool {
	return dport == "443"
}

// IsQUICFlow reports whether the protocol/port pair designates QUIC.
func IsQUICFlow(proto, dport string) bool {
	return strings.ToLower(proto) == "udp" && dport == "443"
}
