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

package api

const TagYaml = "yaml"
const TagJSON = "json"
const TagDoc = "doc"

// Note: items beginning with doc: "## title" are top level items that get divided into sections inside api.md.

type API struct {
	IngestArgus     IngestArgus     `yaml:"argus" doc:"## Argus ingest API\nFollowing is the supported API format for the Argus archive ingester:\n"`
	IngestCSV       IngestCSV       `yaml:"csv" doc:"## CSV ingest API\nFollowing is the supported API format for pre-extracted CSV flow files:\n"`
	ExtractFeatures ExtractFeatures `yaml:"features" doc:"## Feature extract API\nFollowing is the supported API format for windowed feature extraction:\n"`
	TransformScore  TransformScore  `yaml:"score" doc:"## Score transform API\nFollowing is the supported API format for risk scoring:\n"`
	WriteStdout     WriteStdout     `yaml:"stdout" doc:"## Write Standard Output\nFollowing is the supported API format for writing to standard output:\n"`
	WriteDataset    WriteDataset    `yaml:"dataset" doc:"## Write dataset API\nFollowing is the supported API format for the partitioned dataset writer:\n"`
	WriteInflux     WriteInflux     `yaml:"influx" doc:"## Write Influx API\nFollowing is the supported API format for writing to InfluxDB:\n"`
	WriteKafka      WriteKafka      `yaml:"kafka" doc:"## Write Kafka API\nFollowing is the supported API format for writing to kafka:\n"`
}
