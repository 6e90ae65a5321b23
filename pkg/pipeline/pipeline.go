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

package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/config"
	"github.com/argusobs/shadowit-pipeline/pkg/manifest"
	"github.com/argusobs/shadowit-pipeline/pkg/model"
	"github.com/argusobs/shadowit-pipeline/pkg/operational"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/decode"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/novelty"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/ingest"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/write"
	"github.com/argusobs/shadowit-pipeline/pkg/state"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	recordsProcessed = operational.NewCounter(prometheus.CounterOpts{
		Name: "records_processed",
		Help: "Number of raw flow records folded into window aggregates",
	})
	lastRunScoreRows = operational.NewGauge(prometheus.GaugeOpts{
		Name: "last_run_score_rows",
		Help: "Number of score rows produced by the last completed run",
	})
)

// Pipeline is one batch run over a set of source files. The stage shape is
// fixed: ingest -> normalize -> aggregate -> finalize -> novelty -> score ->
// write; the configuration selects the ingest source and the set of writers.
type Pipeline struct {
	cfg           config.ConfigFileStruct
	runID         string
	windowSeconds int64
	ingester      ingest.Ingester
	store         *state.Store
	scoringModel  model.Model
	writers       []write.Writer
	datasetRoot   string
	manifestDir   string
}

// NewPipeline validates the whole configuration eagerly and assembles the
// run. Nothing is read or written until Run.
func NewPipeline(cfg config.ConfigFileStruct) (*Pipeline, error) {
	log.Debugf("entering NewPipeline")

	windowSeconds, err := aggregate.ParseWindow(cfg.Features.Window)
	if err != nil {
		return nil, err
	}

	scoringModel, err := model.Load(cfg.Scoring.ModelFile, cfg.Scoring.ModelVersion)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:           cfg,
		runID:         newRunID(),
		windowSeconds: windowSeconds,
		scoringModel:  scoringModel,
	}

	if err := p.buildIngester(); err != nil {
		return nil, err
	}
	if err := p.buildWriters(); err != nil {
		return nil, err
	}
	p.manifestDir = cfg.ManifestDir
	if p.manifestDir == "" && p.datasetRoot != "" {
		p.manifestDir = filepath.Join(p.datasetRoot, "_manifests")
	}
	return p, nil
}

func (p *Pipeline) buildIngester() error {
	switch p.cfg.Ingest.Type {
	case "argus":
		argus := p.cfg.Ingest.Argus
		if argus == nil {
			return errors.New("ingest type argus needs an argus section")
		}
		var skip func(string) bool
		if argus.StateFile != "" {
			p.store = state.NewStore(argus.StateFile)
			if err := p.store.Load(); err != nil {
				return err
			}
			skip = p.store.Contains
		}
		ing, err := ingest.NewIngestArgus(argus, skip)
		if err != nil {
			return err
		}
		p.ingester = ing
	case "csv":
		ing, err := ingest.NewIngestCSV(p.cfg.Ingest.CSV)
		if err != nil {
			return err
		}
		p.ingester = ing
	default:
		return errors.Errorf("unknown ingest type %q", p.cfg.Ingest.Type)
	}
	return nil
}

func (p *Pipeline) buildWriters() error {
	for i := range p.cfg.Writes {
		entry := &p.cfg.Writes[i]
		var (
			writer write.Writer
			err    error
		)
		switch entry.Type {
		case "stdout":
			writer, err = write.NewWriteStdout(entry.Stdout)
		case "dataset":
			writer, err = write.NewWriteDataset(entry.Dataset)
			if err == nil && entry.Dataset != nil && p.datasetRoot == "" {
				p.datasetRoot = entry.Dataset.OutputRoot
			}
		case "influx":
			writer, err = write.NewWriteInflux(entry.Influx)
		case "kafka":
			writer, err = write.NewWriteKafka(entry.Kafka)
		default:
			err = errors.Errorf("unknown write type %q", entry.Type)
		}
		if err != nil {
			return err
		}
		p.writers = append(p.writers, writer)
	}
	return nil
}

// AddWriter appends an extra writer; used by tests to capture the batch.
func (p *Pipeline) AddWriter(w write.Writer) {
	p.writers = append(p.writers, w)
}

// RunID returns the identifier stamped into every row of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes the batch once. The whole batch is computed before any writer
// sees it; on any error nothing is marked processed.
func (p *Pipeline) Run() error {
	cloudASNs, err := aggregate.LoadCloudASNs(p.cfg.Features.CloudASNs, p.cfg.Features.CloudASNFile)
	if err != nil {
		return err
	}
	accumulator, err := aggregate.NewAccumulator(p.windowSeconds, cloudASNs)
	if err != nil {
		return err
	}
	normalizer := decode.NewNormalizer()

	processed, err := p.ingester.Ingest(func(row []string) {
		if rec, ok := normalizer.Decode(row); ok {
			accumulator.Ingest(rec)
			recordsProcessed.Inc()
		}
	})
	if err != nil {
		return err
	}
	log.Infof("run %s: parsed %d records, dropped %d, %d groups from %d files",
		p.runID, normalizer.Parsed, normalizer.Dropped, accumulator.NumGroups(), len(processed))

	features := accumulator.Finalize(aggregate.RunInfo{
		Site:            p.cfg.Features.Site,
		FeatureVersion:  p.cfg.Features.FeatureVersion,
		RunID:           p.runID,
		SourceFileCount: len(processed),
	})
	features = novelty.NewTracker().Annotate(features)
	scores := transform.NewScorer(p.scoringModel).ScoreAll(features)
	lastRunScoreRows.Set(float64(len(scores)))

	if p.cfg.DryRun {
		log.Infof("run %s: dry run, skipping writes for %d score rows", p.runID, len(scores))
	} else {
		batch := write.Batch{Features: features, Scores: scores}
		for _, writer := range p.writers {
			if err := writer.Write(batch); err != nil {
				return err
			}
		}

		if p.store != nil {
			p.store.MarkProcessed(processed)
			if err := p.store.Save(); err != nil {
				return err
			}
		}
	}

	// the manifest records what the run computed, dry run included
	if p.manifestDir != "" {
		writer := manifest.NewWriter(p.manifestDir)
		if _, err := writer.Write(manifest.Manifest{
			RunID:          p.runID,
			Site:           p.cfg.Features.Site,
			FeatureVersion: p.cfg.Features.FeatureVersion,
			ModelVersion:   p.scoringModel.ModelVersion,
			WindowSeconds:  p.windowSeconds,
			SourceFiles:    processed,
			FeatureRows:    len(features),
			ScoreRows:      len(scores),
			Partitions:     partitionsOf(scores),
			Reprocess:      p.reprocessing(),
			DryRun:         p.cfg.DryRun,
		}); err != nil {
			return err
		}
	}
	log.Infof("run %s: completed, %d score rows", p.runID, len(scores))
	return nil
}

func (p *Pipeline) reprocessing() bool {
	return p.cfg.Ingest.Argus != nil && p.cfg.Ingest.Argus.Reprocess
}

func partitionsOf(rows []transform.ScoreRow) []string {
	seen := map[string]struct{}{}
	for i := range rows {
		seen[fmt.Sprintf("dt=%s/hour=%02d", rows[i].Dt, rows[i].Hour)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for part := range seen {
		out = append(out, part)
	}
	sort.Strings(out)
	return out
}

// newRunID returns a short random run identifier, 12 hex characters.
func newRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
