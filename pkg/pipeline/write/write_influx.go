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

package write

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/operational"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/encode"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	linesPublished = operational.NewCounter(prometheus.CounterOpts{
		Name: "influx_lines_published",
		Help: "Number of line-protocol lines published to InfluxDB",
	})
	publishErrors = operational.NewCounter(prometheus.CounterOpts{
		Name: "influx_publish_errors",
		Help: "Number of failed InfluxDB write requests",
	})
)

// writeInflux publishes score rows to the InfluxDB v2 write API.
type writeInflux struct {
	cfg      api.WriteInflux
	encoder  *encode.InfluxEncoder
	client   *http.Client
	writeURL string
}

func (w *writeInflux) Write(batch Batch) error {
	log.Debugf("entering writeInflux Write")
	lines := w.encoder.Encode(batch.Scores)
	if len(lines) == 0 {
		log.Infof("writeInflux: no lines to publish")
		return nil
	}
	for start := 0; start < len(lines); start += w.cfg.BatchSize {
		end := start + w.cfg.BatchSize
		if end > len(lines) {
			end = len(lines)
		}
		if err := w.post(lines[start:end]); err != nil {
			publishErrors.Inc()
			return err
		}
		linesPublished.Add(float64(end - start))
	}
	log.Infof("writeInflux: published %d lines to %s", len(lines), w.cfg.URL)
	return nil
}

func (w *writeInflux) post(lines []string) error {
	body := strings.Join(lines, "\n")
	req, err := http.NewRequest(http.MethodPost, w.writeURL, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+w.cfg.Token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting to influx")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("influx write returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// NewWriteInflux creates a new InfluxDB writer.
func NewWriteInflux(cfg *api.WriteInflux) (Writer, error) {
	log.Debugf("entering NewWriteInflux")
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "the provided config is not valid")
	}
	defaults := api.GetWriteInfluxDefaults()
	actual := *cfg
	if actual.Timeout <= 0 {
		actual.Timeout = defaults.Timeout
	}
	if actual.BatchSize <= 0 {
		actual.BatchSize = defaults.BatchSize
	}
	encoder, err := encode.NewInfluxEncoder(actual)
	if err != nil {
		return nil, err
	}
	writeURL := fmt.Sprintf("%s/api/v2/write?org=%s&bucket=%s&precision=s",
		strings.TrimSuffix(actual.URL, "/"),
		url.QueryEscape(actual.Org),
		url.QueryEscape(actual.Bucket),
	)
	return &writeInflux{
		cfg:      actual,
		encoder:  encoder,
		client:   &http.Client{Timeout: time.Duration(actual.Timeout) * time.Second},
		writeURL: writeURL,
	}, nil
}
