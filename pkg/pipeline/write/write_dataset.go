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
	"os"
	"path/filepath"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/config"
	"github.com/argusobs/shadowit-pipeline/pkg/utils"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// writeDataset persists rows as a JSON-lines dataset partitioned by
// dt=YYYY-MM-DD/hour=HH, one part file per run.
type writeDataset struct {
	outputRoot string
	target     api.DatasetTarget
}

type partitionKey struct {
	dt   string
	hour int
}

func (w *writeDataset) Write(batch Batch) error {
	var rows []config.GenericMap
	var runID string
	switch w.target {
	case api.DatasetTargetFeatures:
		for i := range batch.Features {
			rows = append(rows, batch.Features[i].ToMap())
		}
		if len(batch.Features) > 0 {
			runID = batch.Features[0].RunID
		}
	default:
		for i := range batch.Scores {
			rows = append(rows, batch.Scores[i].ToMap())
		}
		if len(batch.Scores) > 0 {
			runID = batch.Scores[0].SourceRunID
		}
	}
	if len(rows) == 0 {
		log.Infof("writeDataset: no rows generated; nothing to write")
		return nil
	}

	partitions := map[partitionKey][]config.GenericMap{}
	for _, row := range rows {
		hour, err := utils.ConvertToFloat64(row["hour"])
		if err != nil {
			return errors.Wrap(err, "reading row hour")
		}
		key := partitionKey{
			dt:   utils.ConvertToString(row["dt"]),
			hour: int(hour),
		}
		partitions[key] = append(partitions[key], row)
	}

	jsonEncoder := jsoniter.ConfigCompatibleWithStandardLibrary
	for key, part := range partitions {
		dir := filepath.Join(w.outputRoot, fmt.Sprintf("dt=%s", key.dt), fmt.Sprintf("hour=%02d", key.hour))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating dataset partition")
		}
		path := filepath.Join(dir, fmt.Sprintf("part-%s.json", runID))
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating dataset part file")
		}
		for _, row := range part {
			line, err := jsonEncoder.Marshal(row)
			if err != nil {
				_ = f.Close()
				return err
			}
			if _, err := f.Write(append(line, '\n')); err != nil {
				_ = f.Close()
				return errors.Wrap(err, "writing dataset part file")
			}
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Debugf("writeDataset: wrote %d rows to %s", len(part), path)
	}
	return nil
}

// NewWriteDataset creates a partitioned dataset writer.
func NewWriteDataset(cfg *api.WriteDataset) (Writer, error) {
	log.Debugf("entering NewWriteDataset")
	defaults := api.GetWriteDatasetDefaults()
	if cfg == nil {
		return nil, errors.New("dataset writer needs a configuration")
	}
	if cfg.OutputRoot == "" {
		return nil, errors.New("dataset outputRoot can't be empty")
	}
	target := cfg.Target
	if target == "" {
		target = defaults.Target
	}
	if target != api.DatasetTargetFeatures && target != api.DatasetTargetScores {
		return nil, errors.Errorf("unknown dataset target %q", target)
	}
	return &writeDataset{
		outputRoot: cfg.OutputRoot,
		target:     target,
	}, nil
}
