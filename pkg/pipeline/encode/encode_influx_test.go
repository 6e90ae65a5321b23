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

package encode

import (
	"testing"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
	"github.com/stretchr/testify/require"
)

func sampleRow() transform.ScoreRow {
	windowStart := time.Unix(1700000100, 0).UTC()
	return transform.ScoreRow{
		WindowStart:    windowStart,
		WindowEnd:      windowStart.Add(5 * time.Minute),
		Site:           "hq",
		Identity:       "10.0.0.5",
		Score:          42.5,
		Severity:       transform.SeverityMedium,
		IsAnom:         false,
		Reason1:        "MANY_DESTINATIONS",
		Reason2:        "HIGH_EGRESS",
		Reason3:        transform.ReasonNone,
		ModelVersion:   "shadowit-v1",
		UniqueDaddr:    12,
		UniqueASN:      4,
		CloudASNUnique: 2,
		BytesOut:       4096,
		HTTPSRatio:     0.75,
		QUICRatio:      0.25,
	}
}

func TestScoreLine(t *testing.T) {
	row := sampleRow()
	expected := `shadowit_score,host=10.0.0.5,site=hq,model_version=shadowit-v1 ` +
		`score=42.5,severity="medium",is_anom=false,reason_1="MANY_DESTINATIONS",reason_2="HIGH_EGRESS",reason_3="NONE" 1700000400`
	require.Equal(t, expected, scoreLine(&row))
}

func TestFeaturesTopLine(t *testing.T) {
	row := sampleRow()
	expected := `shadowit_features_top,host=10.0.0.5,site=hq,model_version=shadowit-v1 ` +
		`unique_asn=4i,unique_daddr=12i,cloud_asn_unique=2i,bytes_out=4096i,https_ratio=0.75,quic_ratio=0.25 1700000400`
	require.Equal(t, expected, featuresTopLine(&row))
}

func TestEscaping(t *testing.T) {
	require.Equal(t, `host\ a\,b\=c\\d`, EscapeTag(`host a,b=c\d`))
	require.Equal(t, `say \\\"hi\"`, EscapeFieldString(`say \"hi"`))
}

func TestEscaping_InLines(t *testing.T) {
	row := sampleRow()
	row.Identity = "lab host,1"
	row.Reason1 = `odd"reason`
	line := scoreLine(&row)
	require.Contains(t, line, `host=lab\ host\,1`)
	require.Contains(t, line, `reason_1="odd\"reason"`)
}

func TestEncode_OnlyAnomalies(t *testing.T) {
	anomalous := sampleRow()
	anomalous.IsAnom = true
	encoder, err := NewInfluxEncoder(api.WriteInflux{OnlyAnomalies: true})
	require.NoError(t, err)
	lines := encoder.Encode([]transform.ScoreRow{sampleRow(), anomalous})
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "is_anom=true")
}

func TestEncode_PublishFeaturesTop(t *testing.T) {
	encoder, err := NewInfluxEncoder(api.WriteInflux{PublishFeaturesTop: true})
	require.NoError(t, err)
	lines := encoder.Encode([]transform.ScoreRow{sampleRow()})
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "shadowit_score,")
	require.Contains(t, lines[1], "shadowit_features_top,")
}

func TestEncode_Filter(t *testing.T) {
	high := sampleRow()
	high.Severity = transform.SeverityHigh
	encoder, err := NewInfluxEncoder(api.WriteInflux{Filter: `severity == 'high'`})
	require.NoError(t, err)
	lines := encoder.Encode([]transform.ScoreRow{sampleRow(), high})
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `severity="high"`)
}

func TestNewInfluxEncoder_BadFilter(t *testing.T) {
	_, err := NewInfluxEncoder(api.WriteInflux{Filter: `severity ==`})
	require.Error(t, err)
}
