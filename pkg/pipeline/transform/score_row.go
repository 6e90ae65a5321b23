package transform

import (
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/config"
)

// ScoreRow is the scored form of one feature row. Besides the score itself
// it carries a fixed denormalized subset of raw feature values so dashboards
// can drill down without re-joining against the feature store; that subset
// is chosen independently of which features carry non-zero weight.
type ScoreRow struct {
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Site           string    `json:"site"`
	Identity       string    `json:"identity"`
	Score          float64   `json:"score"`
	Severity       Severity  `json:"severity"`
	IsAnom         bool      `json:"is_anom"`
	Reason1        string    `json:"reason_1"`
	Reason2        string    `json:"reason_2"`
	Reason3        string    `json:"reason_3"`
	ModelVersion   string    `json:"model_version"`
	FeatureVersion string    `json:"feature_version"`
	SourceRunID    string    `json:"source_run_id"`
	UniqueDaddr    int32     `json:"unique_daddr"`
	UniqueASN      int32     `json:"unique_asn"`
	CloudASNUnique int32     `json:"cloud_asn_unique"`
	BytesOut       int64     `json:"bytes_out"`
	HTTPSRatio     float64   `json:"https_ratio"`
	QUICRatio      float64   `json:"quic_ratio"`
	Dt             string    `json:"dt"`
	Hour           int       `json:"hour"`
}

// ToMap renders the row for the writers and the publish filter.
func (r *ScoreRow) ToMap() config.GenericMap {
	return config.GenericMap{
		"window_start":     r.WindowStart.Format(time.RFC3339),
		"window_end":       r.WindowEnd.Format(time.RFC3339),
		"site":             r.Site,
		"identity":         r.Identity,
		"score":            r.Score,
		"severity":         string(r.Severity),
		"is_anom":          r.IsAnom,
		"reason_1":         r.Reason1,
		"reason_2":         r.Reason2,
		"reason_3":         r.Reason3,
		"model_version":    r.ModelVersion,
		"feature_version":  r.FeatureVersion,
		"source_run_id":    r.SourceRunID,
		"unique_daddr":     r.UniqueDaddr,
		"unique_asn":       r.UniqueASN,
		"cloud_asn_unique": r.CloudASNUnique,
		"bytes_out":        r.BytesOut,
		"https_ratio":      r.HTTPSRatio,
		"quic_ratio":       r.QUICRatio,
		"dt":               r.Dt,
		"hour":             r.Hour,
	}
}
