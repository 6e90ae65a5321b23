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

// Package manifest records what each run produced: the source files consumed,
// the rows emitted and the dataset partitions touched.
package manifest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Manifest struct {
	RunID          string   `json:"run_id"`
	CreatedAtUTC   string   `json:"created_at_utc"`
	Site           string   `json:"site"`
	FeatureVersion string   `json:"feature_version"`
	ModelVersion   string   `json:"model_version"`
	WindowSeconds  int64    `json:"window_seconds"`
	SourceFiles    []string `json:"source_files"`
	FeatureRows    int      `json:"feature_rows"`
	ScoreRows      int      `json:"score_rows"`
	Partitions     []string `json:"partitions"`
	Reprocess      bool     `json:"reprocess"`
	DryRun         bool     `json:"dry_run"`
}

// Writer persists one manifest file per run into a directory.
type Writer struct {
	dir   string
	clock clock.Clock
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, clock: clock.New()}
}

// NewWriterWithClock is used by tests to control the manifest timestamp.
func NewWriterWithClock(dir string, clk clock.Clock) *Writer {
	return &Writer{dir: dir, clock: clk}
}

// Write stamps the manifest and writes it as
// YYYYMMDDTHHMMSSZ_<runID>.json, returning the full path.
func (w *Writer) Write(m Manifest) (string, error) {
	now := w.clock.Now().UTC()
	m.CreatedAtUTC = now.Format(time.RFC3339)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating manifest directory")
	}
	name := now.Format("20060102T150405Z") + "_" + m.RunID + ".json"
	path := filepath.Join(w.dir, name)
	jsonEncoder := jsoniter.ConfigCompatibleWithStandardLibrary
	raw, err := jsonEncoder.MarshalIndent(&m, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.Wrap(err, "writing manifest")
	}
	log.Infof("wrote run manifest %s", path)
	return path, nil
}
