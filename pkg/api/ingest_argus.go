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

type IngestArgus struct {
	InputRoot string `yaml:"inputRoot" json:"inputRoot" doc:"root directory containing Argus .out/.out.gz archive files"`
	RaBinary  string `yaml:"raBinary,omitempty" json:"raBinary,omitempty" doc:"path of the Argus 'ra' client binary (default: ra, resolved from PATH)"`
	FromTs    string `yaml:"fromTs,omitempty" json:"fromTs,omitempty" doc:"start timestamp UTC (ISO 8601); files stamped earlier are skipped"`
	ToTs      string `yaml:"toTs,omitempty" json:"toTs,omitempty" doc:"end timestamp UTC (ISO 8601); files stamped at or after it are skipped"`
	MaxFiles  int    `yaml:"maxFiles,omitempty" json:"maxFiles,omitempty" doc:"limit on number of input files per run (0 = no limit)"`
	Reprocess bool   `yaml:"reprocess,omitempty" json:"reprocess,omitempty" doc:"ignore the processed-files state and re-read all matching files"`
	StateFile string `yaml:"stateFile,omitempty" json:"stateFile,omitempty" doc:"JSON file tracking already processed archive files"`
}

type IngestCSV struct {
	Filename string `yaml:"filename" json:"filename" doc:"CSV file with pre-extracted flow tuples; .gz files are decompressed transparently"`
}

func GetIngestArgusDefaults() IngestArgus {
	return IngestArgus{
		RaBinary: "ra",
	}
}
