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

package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_ValidRow(t *testing.T) {
	n := NewNormalizer()
	rec, ok := n.Decode([]string{"1700000000.5", "1.2", "10.0.0.5", "142.250.1.1", "TCP", "https", "AS15169", "1234", "5678"})
	require.True(t, ok)
	require.Equal(t, 1700000000.5, rec.Stime)
	require.Equal(t, "10.0.0.5", rec.Saddr)
	require.Equal(t, "142.250.1.1", rec.Daddr)
	require.Equal(t, "tcp", rec.Proto)
	require.Equal(t, "443", rec.Dport)
	require.Equal(t, "15169", rec.ASN)
	require.Equal(t, int64(1234), rec.Sbytes)
	require.Equal(t, int64(5678), rec.Dbytes)
	require.Equal(t, int64(1), n.Parsed)
	require.Equal(t, int64(0), n.Dropped)
}

func TestDecode_DropsMalformedRows(t *testing.T) {
	n := NewNormalizer()

	// short row
	_, ok := n.Decode([]string{"1700000000", "10.0.0.5"})
	require.False(t, ok)

	// header row from the extraction tool
	_, ok = n.Decode([]string{"StartTime", "Dur", "SrcAddr", "DstAddr", "Proto", "Dport", "dAS", "SrcBytes", "DstBytes"})
	require.False(t, ok)

	// missing identity
	_, ok = n.Decode([]string{"1700000000", "1.0", "  ", "1.2.3.4", "tcp", "80", "123", "1", "1"})
	require.False(t, ok)

	require.Equal(t, int64(0), n.Parsed)
	require.Equal(t, int64(3), n.Dropped)
}

func TestDecode_ExtraFieldsTolerated(t *testing.T) {
	n := NewNormalizer()
	rec, ok := n.Decode([]string{"1700000000", "1.0", "10.0.0.5", "1.2.3.4", "udp", "443", "16509", "9", "10", "trailing"})
	require.True(t, ok)
	require.Equal(t, "udp", rec.Proto)
}

func TestNormalizeDport(t *testing.T) {
	table := []struct {
		raw      string
		expected string
	}{
		{"443", "443"},
		{"https", "443"},
		{"HTTPS", "443"},
		{"domain", "domain"},
		{"", "0"},
		{"-", "0"},
		{"--", "0"},
		{"unknown", "0"},
		{" 8080 ", "8080"},
	}
	for _, entry := range table {
		require.Equal(t, entry.expected, NormalizeDport(entry.raw), "dport %q", entry.raw)
	}
}

func TestNormalizeASN(t *testing.T) {
	table := []struct {
		raw      string
		expected string
	}{
		{"15169", "15169"},
		{"AS15169", "15169"},
		{"as15169", "15169"},
		{" AS 15169 ", "15169"},
		{"", ""},
		{"-", ""},
		{"0", ""},
		{"unknown", ""},
		{"Unknown", ""},
	}
	for _, entry := range table {
		require.Equal(t, entry.expected, NormalizeASN(entry.raw), "asn %q", entry.raw)
	}
}

func TestParseIntLike(t *testing.T) {
	require.Equal(t, int64(123), parseIntLike("123"))
	require.Equal(t, int64(150), parseIntLike("1.5e2"))
	require.Equal(t, int64(12), parseIntLike("12.9"))
	require.Equal(t, int64(0), parseIntLike("-5"))
	require.Equal(t, int64(0), parseIntLike("-5.5"))
	require.Equal(t, int64(0), parseIntLike("abc"))
	require.Equal(t, int64(0), parseIntLike("-"))
	require.Equal(t, int64(0), parseIntLike(""))
}

func TestFlowClassifiers(t *testing.T) {
	require.True(t, IsHTTPSFlow("443"))
	require.False(t, IsHTTPSFlow("80"))
	require.True(t, IsQUICFlow("udp", "443"))
	require.True(t, IsQUICFlow("UDP", "443"))
	require.False(t, IsQUICFlow("tcp", "443"))
	require.False(t, IsQUICFlow("udp", "53"))
}
