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
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/operational"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/vladimirvivien/gexe"
)

// raFields is the tuple layout requested from the ra client; the decode stage
// depends on this exact column order.
const raFields = "stime dur saddr daddr proto dport das sbytes dbytes"

// archiveNamePattern matches argus.YYYY.MM.DD.HH.MM.SS.out with optional
// compression suffix; the embedded timestamp is the capture start in UTC.
var archiveNamePattern = regexp.MustCompile(
	`^argus\.(\d{4})\.(\d{2})\.(\d{2})\.(\d{2})\.(\d{2})\.(\d{2})\.out(\.gz|\.bz2)?$`)

var filesIngested = operational.NewCounter(prometheus.CounterOpts{
	Name: "argus_files_ingested",
	Help: "Number of Argus archive files read by the ingester",
})

type sourceFile struct {
	relPath string
	absPath string
	stamp   time.Time
}

type ingestArgus struct {
	params api.IngestArgus
	skip   func(relPath string) bool
	exec   *gexe.Echo
}

// Ingest enumerates matching archive files, runs the ra client on each and
// streams the CSV tuples it prints.
func (ing *ingestArgus) Ingest(emit func(row []string)) ([]string, error) {
	files, err := ing.enumerate()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Infof("no new archive files under %s", ing.params.InputRoot)
		return nil, nil
	}
	log.Infof("ingesting %d archive files from %s", len(files), ing.params.InputRoot)

	processed := make([]string, 0, len(files))
	for _, file := range files {
		if err := ing.readOne(file, emit); err != nil {
			return nil, err
		}
		filesIngested.Inc()
		processed = append(processed, file.relPath)
	}
	return processed, nil
}

func (ing *ingestArgus) enumerate() ([]sourceFile, error) {
	fromTs, toTs, err := parseRange(ing.params.FromTs, ing.params.ToTs)
	if err != nil {
		return nil, err
	}

	var files []sourceFile
	err = filepath.WalkDir(ing.params.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		stamp, ok := parseArchiveName(d.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(ing.params.InputRoot, path)
		if err != nil {
			return err
		}
		if !fromTs.IsZero() && stamp.Before(fromTs) {
			return nil
		}
		if !toTs.IsZero() && !stamp.Before(toTs) {
			return nil
		}
		if ing.skip != nil && ing.skip(rel) {
			log.Debugf("skipping already processed file %s", rel)
			return nil
		}
		files = append(files, sourceFile{relPath: rel, absPath: path, stamp: stamp})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "enumerating archives under %s", ing.params.InputRoot)
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].stamp.Equal(files[j].stamp) {
			return files[i].stamp.Before(files[j].stamp)
		}
		return files[i].relPath < files[j].relPath
	})
	if ing.params.MaxFiles > 0 && len(files) > ing.params.MaxFiles {
		files = files[:ing.params.MaxFiles]
	}
	return files, nil
}

func (ing *ingestArgus) readOne(file sourceFile, emit func(row []string)) error {
	cmd := fmt.Sprintf(`%s -r %s -u -n -s "%s" -c ,`, ing.params.RaBinary, file.absPath, raFields)
	log.Debugf("running: %s", cmd)
	proc := ing.exec.StartProc(cmd)
	if proc.Err() != nil {
		return errors.Wrapf(proc.Err(), "starting ra on %s", file.relPath)
	}

	reader := csv.NewReader(proc.Out())
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading ra output for %s", file.relPath)
		}
		emit(row)
	}

	proc.Wait()
	if proc.ExitCode() != 0 {
		return &SourceFailure{File: file.relPath, ExitCode: proc.ExitCode()}
	}
	return nil
}

func parseArchiveName(name string) (time.Time, bool) {
	m := archiveNamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	stamp, err := time.Parse("2006.01.02.15.04.05",
		fmt.Sprintf("%s.%s.%s.%s.%s.%s", m[1], m[2], m[3], m[4], m[5], m[6]))
	if err != nil {
		return time.Time{}, false
	}
	return stamp.UTC(), true
}

func parseRange(fromTs, toTs string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromTs != "" {
		from, err = time.Parse(time.RFC3339, fromTs)
		if err != nil {
			return from, to, errors.Wrapf(err, "invalid fromTs %q", fromTs)
		}
	}
	if toTs != "" {
		to, err = time.Parse(time.RFC3339, toTs)
		if err != nil {
			return from, to, errors.Wrapf(err, "invalid toTs %q", toTs)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, errors.New("toTs precedes fromTs")
	}
	return from.UTC(), to.UTC(), nil
}

// NewIngestArgus creates an Argus archive ingester. skip, when non-nil, is
// consulted per relative path to exclude already processed files.
func NewIngestArgus(cfg *api.IngestArgus, skip func(relPath string) bool) (Ingester, error) {
	log.Debugf("entering NewIngestArgus")
	if cfg == nil {
		return nil, errors.New("argus ingest needs a configuration")
	}
	if cfg.InputRoot == "" {
		return nil, errors.New("inputRoot can't be empty")
	}
	params := *cfg
	if params.RaBinary == "" {
		params.RaBinary = api.GetIngestArgusDefaults().RaBinary
	}
	if params.Reprocess {
		skip = nil
	}
	return &ingestArgus{
		params: params,
		skip:   skip,
		exec:   gexe.New(),
	}, nil
}
