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

// Package state tracks which source files were already processed, so repeated
// runs over the same capture directory only pick up new files.
package state

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type fileFormat struct {
	UpdatedAtUTC   string   `json:"updated_at_utc"`
	ProcessedFiles []string `json:"processed_files"`
}

// Store holds the processed-files set behind a state file on disk.
type Store struct {
	path      string
	clock     clock.Clock
	processed map[string]struct{}
}

func NewStore(path string) *Store {
	return &Store{
		path:      path,
		clock:     clock.New(),
		processed: map[string]struct{}{},
	}
}

// NewStoreWithClock is used by tests to control the update timestamp.
func NewStoreWithClock(path string, clk clock.Clock) *Store {
	s := NewStore(path)
	s.clock = clk
	return s
}

// Load reads the state file. A missing file yields an empty store; a file
// that exists but does not parse is an error, so a corrupted state never
// silently triggers a full reprocess.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("state file %s not found; starting empty", s.path)
			return nil
		}
		return errors.Wrap(err, "reading state file")
	}
	var parsed fileFormat
	jsonDecoder := jsoniter.ConfigCompatibleWithStandardLibrary
	if err := jsonDecoder.Unmarshal(raw, &parsed); err != nil {
		return errors.Wrapf(err, "state file %s is not valid", s.path)
	}
	for _, name := range parsed.ProcessedFiles {
		s.processed[name] = struct{}{}
	}
	log.Debugf("loaded state with %d processed files", len(s.processed))
	return nil
}

// Contains reports whether the given relative path was already processed.
func (s *Store) Contains(relPath string) bool {
	_, found := s.processed[relPath]
	return found
}

// MarkProcessed records files as processed for the next Save.
func (s *Store) MarkProcessed(relPaths []string) {
	for _, name := range relPaths {
		s.processed[name] = struct{}{}
	}
}

// Len returns the number of processed files currently tracked.
func (s *Store) Len() int {
	return len(s.processed)
}

// Save writes the state file atomically (write temp, rename), with the
// processed set sorted for stable diffs.
func (s *Store) Save() error {
	names := make([]string, 0, len(s.processed))
	for name := range s.processed {
		names = append(names, name)
	}
	sort.Strings(names)
	out := fileFormat{
		UpdatedAtUTC:   s.clock.Now().UTC().Format(time.RFC3339),
		ProcessedFiles: names,
	}
	jsonEncoder := jsoniter.ConfigCompatibleWithStandardLibrary
	raw, err := jsonEncoder.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating state directory")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "writing state file")
	}
	return os.Rename(tmp, s.path)
}
