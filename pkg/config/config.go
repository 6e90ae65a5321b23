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

package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type Options struct {
	ConfigPath string
	LogLevel   string
	DryRun     bool
	Reprocess  bool
}

// ConfigFileStruct is the root of the configuration file. The pipeline shape
// itself is fixed (ingest -> normalize -> aggregate -> novelty -> score ->
// write); the file configures each of those stages plus the set of writers.
type ConfigFileStruct struct {
	LogLevel    string              `yaml:"logLevel,omitempty" json:"logLevel,omitempty" doc:"log level: debug, info, warning, error"`
	DryRun      bool                `yaml:"dryRun,omitempty" json:"dryRun,omitempty" doc:"compute rows but skip dataset/state/publish writes; the run manifest is still written"`
	ManifestDir string              `yaml:"manifestDir,omitempty" json:"manifestDir,omitempty" doc:"directory receiving run manifests (default: <dataset outputRoot>/_manifests)"`
	Ingest      Ingest              `yaml:"ingest" json:"ingest" doc:"ingest stage configuration"`
	Features    api.ExtractFeatures `yaml:"features" json:"features" doc:"windowed feature extraction configuration"`
	Scoring     api.TransformScore  `yaml:"scoring" json:"scoring" doc:"risk scoring configuration"`
	Writes      []Write             `yaml:"writes" json:"writes" doc:"list of writers receiving the finished batch"`
}

type Ingest struct {
	Type  string           `yaml:"type" json:"type"`
	Argus *api.IngestArgus `yaml:"argus,omitempty" json:"argus,omitempty"`
	CSV   *api.IngestCSV   `yaml:"csv,omitempty" json:"csv,omitempty"`
}

type Write struct {
	Type    string            `yaml:"type" json:"type"`
	Stdout  *api.WriteStdout  `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	Dataset *api.WriteDataset `yaml:"dataset,omitempty" json:"dataset,omitempty"`
	Influx  *api.WriteInflux  `yaml:"influx,omitempty" json:"influx,omitempty"`
	Kafka   *api.WriteKafka   `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

// ParseConfig loads the configuration file (YAML or JSON, decided by
// extension) and applies command-line overrides.
func ParseConfig(opts *Options) (ConfigFileStruct, error) {
	out := ConfigFileStruct{
		Features: api.GetExtractFeaturesDefaults(),
	}

	if opts.ConfigPath != "" {
		raw, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return out, errors.Wrap(err, "reading config file")
		}
		if strings.HasSuffix(opts.ConfigPath, ".json") {
			err = json.Unmarshal(raw, &out)
		} else {
			err = yaml.Unmarshal(raw, &out)
		}
		if err != nil {
			return out, errors.Wrapf(err, "parsing config file %s", opts.ConfigPath)
		}
	}

	if opts.LogLevel != "" {
		out.LogLevel = opts.LogLevel
	}
	if opts.DryRun {
		out.DryRun = true
	}
	if opts.Reprocess && out.Ingest.Argus != nil {
		out.Ingest.Argus.Reprocess = true
	}
	logrus.Debugf("parsed config = %v", out)
	return out, nil
}
