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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
	"github.com/stretchr/testify/require"
)

func TestNewWriteDataset_Validation(t *testing.T) {
	_, err := NewWriteDataset(nil)
	require.Error(t, err)
	_, err = NewWriteDataset(&api.WriteDataset{})
	require.Error(t, err)
	_, err = NewWriteDataset(&api.WriteDataset{OutputRoot: "/tmp/x", Target: "parquet"})
	require.Error(t, err)
}

func TestWriteDataset_PartitionsScores(t *testing.T) {
	root := t.TempDir()
	writer, err := NewWriteDataset(&api.WriteDataset{OutputRoot: root})
	require.NoError(t, err)

	batch := Batch{Scores: []transform.ScoreRow{
		{Identity: "h1", SourceRunID: "run123", Dt: "2024-06-01", Hour: 11},
		{Identity: "h2", SourceRunID: "run123", Dt: "2024-06-01", Hour: 11},
		{Identity: "h1", SourceRunID: "run123", Dt: "2024-06-01", Hour: 12},
	}}
	require.NoError(t, writer.Write(batch))

	first, err := os.ReadFile(filepath.Join(root, "dt=2024-06-01", "hour=11", "part-run123.json"))
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(string(first)), "\n"), 2)

	second, err := os.ReadFile(filepath.Join(root, "dt=2024-06-01", "hour=12", "part-run123.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(second)), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"identity":"h1"`)
}

func TestWriteDataset_FeaturesTarget(t *testing.T) {
	root := t.TempDir()
	writer, err := NewWriteDataset(&api.WriteDataset{OutputRoot: root, Target: api.DatasetTargetFeatures})
	require.NoError(t, err)

	batch := Batch{Features: []aggregate.FeatureRow{
		{Identity: "h1", RunID: "runabc", Dt: "2024-06-01", Hour: 9},
	}}
	require.NoError(t, writer.Write(batch))

	raw, err := os.ReadFile(filepath.Join(root, "dt=2024-06-01", "hour=09", "part-runabc.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"identity":"h1"`)
}

func TestWriteDataset_EmptyBatch(t *testing.T) {
	root := t.TempDir()
	writer, err := NewWriteDataset(&api.WriteDataset{OutputRoot: root})
	require.NoError(t, err)
	require.NoError(t, writer.Write(Batch{}))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}
