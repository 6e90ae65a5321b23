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
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	scoreMeasurement       = "shadowit_score"
	featuresTopMeasurement = "shadowit_features_top"
)

var (
	tagEscaper         = strings.NewReplacer(`\`, `\\`, `,`, `\,`, ` `, `\ `, `=`, `\=`)
	fieldStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// InfluxEncoder renders score rows as InfluxDB line-protocol lines,
// timestamped at window end with second precision.
type InfluxEncoder struct {
	cfg    api.WriteInflux
	filter *govaluate.EvaluableExpression
}

func NewInfluxEncoder(cfg api.WriteInflux) (*InfluxEncoder, error) {
	e := &InfluxEncoder{cfg: cfg}
	if cfg.Filter != "" {
		expr, err := govaluate.NewEvaluableExpression(cfg.Filter)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid publish filter %q", cfg.Filter)
		}
		e.filter = expr
	}
	return e, nil
}

// Encode builds the line batch for a set of score rows, honoring the
// onlyAnomalies switch and the optional publish filter.
func (e *InfluxEncoder) Encode(rows []transform.ScoreRow) []string {
	lines := make([]string, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if e.cfg.OnlyAnomalies && !row.IsAnom {
			continue
		}
		if !e.matches(row) {
			continue
		}
		lines = append(lines, scoreLine(row))
		if e.cfg.PublishFeaturesTop {
			lines = append(lines, featuresTopLine(row))
		}
	}
	return lines
}

func (e *InfluxEncoder) matches(row *transform.ScoreRow) bool {
	if e.filter == nil {
		return true
	}
	result, err := e.filter.Evaluate(row.ToMap())
	if err != nil {
		log.Errorf("publish filter evaluation failed: %v", err)
		return false
	}
	matched, ok := result.(bool)
	if !ok {
		log.Errorf("publish filter %q did not evaluate to a boolean", e.cfg.Filter)
		return false
	}
	return matched
}

func scoreLine(row *transform.ScoreRow) string {
	return fmt.Sprintf(
		"%s,host=%s,site=%s,model_version=%s "+
			`score=%g,severity="%s",is_anom=%t,reason_1="%s",reason_2="%s",reason_3="%s" %d`,
		scoreMeasurement,
		EscapeTag(row.Identity),
		EscapeTag(row.Site),
		EscapeTag(row.ModelVersion),
		row.Score,
		EscapeFieldString(string(row.Severity)),
		row.IsAnom,
		EscapeFieldString(row.Reason1),
		EscapeFieldString(row.Reason2),
		EscapeFieldString(row.Reason3),
		row.WindowEnd.Unix(),
	)
}

func featuresTopLine(row *transform.ScoreRow) string {
	return fmt.Sprintf(
		"%s,host=%s,site=%s,model_version=%s "+
			"unique_asn=%di,unique_daddr=%di,cloud_asn_unique=%di,bytes_out=%di,https_ratio=%g,quic_ratio=%g %d",
		featuresTopMeasurement,
		EscapeTag(row.Identity),
		EscapeTag(row.Site),
		EscapeTag(row.ModelVersion),
		row.UniqueASN,
		row.UniqueDaddr,
		row.CloudASNUnique,
		row.BytesOut,
		row.HTTPSRatio,
		row.QUICRatio,
		row.WindowEnd.Unix(),
	)
}

// EscapeTag escapes a tag value per the line-protocol rules (backslash,
// comma, space, equals).
func EscapeTag(value string) string {
	return tagEscaper.Replace(value)
}

// EscapeFieldString escapes a string field value (backslash, double quote).
func EscapeFieldString(value string) string {
	return fieldStringEscaper.Replace(value)
}
