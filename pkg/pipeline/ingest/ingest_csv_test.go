package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "StartTime,Dur,SrcAddr,DstAddr,Proto,Dport,dAS,SrcBytes,DstBytes\n" +
	"1700000000.5,1.2,10.0.0.5,142.250.1.1,tcp,443,AS15169,1234,5678\n" +
	"1700000010.0,0.3,10.0.0.6,151.101.1.1,udp,443,54113,99,100\n"

func TestIngestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	ing, err := NewIngestCSV(&api.IngestCSV{Filename: path})
	require.NoError(t, err)

	var rows [][]string
	processed, err := ing.Ingest(func(row []string) {
		rows = append(rows, row)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"flows.csv"}, processed)
	// header included; the normalizer drops it downstream
	require.Len(t, rows, 3)
	require.Equal(t, "10.0.0.5", rows[1][2])
}

func TestIngestCSV_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ing, err := NewIngestCSV(&api.IngestCSV{Filename: path})
	require.NoError(t, err)

	count := 0
	_, err = ing.Ingest(func([]string) { count++ })
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestIngestCSV_Validation(t *testing.T) {
	_, err := NewIngestCSV(nil)
	require.Error(t, err)
	_, err = NewIngestCSV(&api.IngestCSV{})
	require.Error(t, err)

	ing, err := NewIngestCSV(&api.IngestCSV{Filename: "/does/not/exist.csv"})
	require.NoError(t, err)
	_, err = ing.Ingest(func([]string) {})
	require.Error(t, err)
}
