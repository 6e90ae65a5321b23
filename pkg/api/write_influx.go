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

import "errors"

type WriteInflux struct {
	URL                string `yaml:"url" json:"url" doc:"InfluxDB base URL"`
	Org                string `yaml:"org" json:"org" doc:"InfluxDB organization"`
	Bucket             string `yaml:"bucket" json:"bucket" doc:"InfluxDB bucket receiving score points"`
	Token              string `yaml:"token" json:"token" doc:"InfluxDB API token"`
	Timeout            int    `yaml:"timeout,omitempty" json:"timeout,omitempty" doc:"HTTP timeout in seconds for write requests (default: 10)"`
	BatchSize          int    `yaml:"batchSize,omitempty" json:"batchSize,omitempty" doc:"number of line-protocol lines per write request (default: 5000)"`
	PublishFeaturesTop bool   `yaml:"publishFeaturesTop,omitempty" json:"publishFeaturesTop,omitempty" doc:"also publish a companion shadowit_features_top line per score row"`
	OnlyAnomalies      bool   `yaml:"onlyAnomalies,omitempty" json:"onlyAnomalies,omitempty" doc:"publish only rows flagged as anomalous"`
	Filter             string `yaml:"filter,omitempty" json:"filter,omitempty" doc:"optional expression over score row fields; only matching rows are published (example: severity == 'high')"`
}

func GetWriteInfluxDefaults() WriteInflux {
	return WriteInflux{
		Timeout:   10,
		BatchSize: 5000,
	}
}

func (w *WriteInflux) Validate() error {
	if w == nil {
		return errors.New("you must provide a configuration")
	}
	if w.URL == "" {
		return errors.New("url can't be empty")
	}
	if w.Org == "" {
		return errors.New("org can't be empty")
	}
	if w.Bucket == "" {
		return errors.New("bucket can't be empty")
	}
	if w.Token == "" {
		return errors.New("token can't be empty")
	}
	return nil
}
