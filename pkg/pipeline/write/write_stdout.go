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

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

type writeStdout struct {
	format string
}

// Write prints every score row of the batch.
func (t *writeStdout) Write(batch Batch) error {
	log.Debugf("entering writeStdout Write")
	log.Debugf("writeStdout: number of entries = %d", len(batch.Scores))
	jsonEncoder := jsoniter.ConfigCompatibleWithStandardLibrary
	for i := range batch.Scores {
		row := batch.Scores[i].ToMap()
		if t.format == "json" {
			txt, err := jsonEncoder.Marshal(row)
			if err != nil {
				return err
			}
			fmt.Println(string(txt))
		} else {
			fmt.Printf("%v\n", row)
		}
	}
	return nil
}

// NewWriteStdout create a new write
func NewWriteStdout(cfg *api.WriteStdout) (Writer, error) {
	log.Debugf("entering NewWriteStdout")
	format := ""
	if cfg != nil {
		format = cfg.Format
	}
	return &writeStdout{format: format}, nil
}
