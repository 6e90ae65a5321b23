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

package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ingestCSV reads pre-extracted flow tuples from a single CSV file, mainly
// for offline replays and tests. Gzip compression is handled transparently.
type ingestCSV struct {
	params api.IngestCSV
}

func (ing *ingestCSV) Ingest(emit func(row []string)) ([]string, error) {
	f, err := os.Open(ing.params.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening csv file")
	}
	defer f.Close()

	var source io.Reader = f
	if strings.HasSuffix(ing.params.Filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip csv file")
		}
		defer gz.Close()
		source = gz
	}

	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", ing.params.Filename)
		}
		emit(row)
		count++
	}
	log.Debugf("ingestCSV: read %d rows from %s", count, ing.params.Filename)
	return []string{filepath.Base(ing.params.Filename)}, nil
}

// NewIngestCSV creates a CSV file ingester.
func NewIngestCSV(cfg *api.IngestCSV) (Ingester, error) {
	log.Debugf("entering NewIngestCSV")
	if cfg == nil {
		return nil, errors.New("csv ingest needs a configuration")
	}
	if cfg.Filename == "" {
		return nil, errors.New("filename can't be empty")
	}
	return &ingestCSV{params: *cfg}, nil
}
