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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
	"github.com/stretchr/testify/require"
)

func scoreRows(n int) []transform.ScoreRow {
	windowStart := time.Unix(1700000100, 0).UTC()
	rows := make([]transform.ScoreRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, transform.ScoreRow{
			WindowStart:  windowStart,
			WindowEnd:    windowStart.Add(5 * time.Minute),
			Site:         "hq",
			Identity:     "10.0.0.5",
			Score:        42.5,
			Severity:     transform.SeverityMedium,
			Reason1:      "MANY_DESTINATIONS",
			Reason2:      transform.ReasonNone,
			Reason3:      transform.ReasonNone,
			ModelVersion: "shadowit-v1",
		})
	}
	return rows
}

func TestWriteInflux(t *testing.T) {
	type request struct {
		path  string
		query string
		auth  string
		lines int
	}
	var requests []request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		requests = append(requests, request{
			path:  r.URL.Path,
			query: r.URL.RawQuery,
			auth:  r.Header.Get("Authorization"),
			lines: len(strings.Split(strings.TrimSpace(string(body)), "\n")),
		})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	writer, err := NewWriteInflux(&api.WriteInflux{
		URL:       server.URL,
		Org:       "argusobs",
		Bucket:    "shadowit",
		Token:     "secret",
		BatchSize: 2,
	})
	require.NoError(t, err)

	require.NoError(t, writer.Write(Batch{Scores: scoreRows(3)}))

	require.Len(t, requests, 2)
	require.Equal(t, "/api/v2/write", requests[0].path)
	require.Equal(t, "org=argusobs&bucket=shadowit&precision=s", requests[0].query)
	require.Equal(t, "Token secret", requests[0].auth)
	require.Equal(t, 2, requests[0].lines)
	require.Equal(t, 1, requests[1].lines)
}

func TestWriteInflux_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	writer, err := NewWriteInflux(&api.WriteInflux{
		URL:    server.URL,
		Org:    "argusobs",
		Bucket: "missing",
		Token:  "secret",
	})
	require.NoError(t, err)

	err = writer.Write(Batch{Scores: scoreRows(1)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestNewWriteInflux_Validation(t *testing.T) {
	_, err := NewWriteInflux(&api.WriteInflux{})
	require.Error(t, err)
	_, err = NewWriteInflux(&api.WriteInflux{URL: "http://localhost:8086", Org: "o", Bucket: "b"})
	require.Error(t, err)
}

func TestWriteInflux_EmptyBatchSendsNothing(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	writer, err := NewWriteInflux(&api.WriteInflux{
		URL: server.URL, Org: "o", Bucket: "b", Token: "t",
	})
	require.NoError(t, err)
	require.NoError(t, writer.Write(Batch{}))
	require.False(t, called)
}
