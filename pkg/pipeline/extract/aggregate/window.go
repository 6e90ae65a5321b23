package aggregate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/decode"
)

// ParseWindow converts a window specification like "30s", "5m", "1h" or "1d"
// into seconds. An invalid specification is fatal before any processing
// begins.
func ParseWindow(window string) (int64, error) {
	if len(window) < 2 {
		return 0, fmt.Errorf("invalid window value: %q", window)
	}
	num := window[:len(window)-1]
	unit := strings.ToLower(window[len(window)-1:])
	value, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window value: %q", window)
	}
	if value <= 0 {
		return 0, fmt.Errorf("window value must be greater than 0")
	}
	switch unit {
	case "s":
		return value, nil
	case "m":
		return value * 60, nil
	case "h":
		return value * 3600, nil
	case "d":
		return value * 86400, nil
	}
	return 0, fmt.Errorf("unsupported window unit in %q; use s/m/h/d", window)
}

// LoadCloudASNs builds the cloud ASN designation set from an inline list
// and/or a file with one ASN per line. Entries are normalized the same way
// record ASNs are.
func LoadCloudASNs(list []string, file string) (map[string]struct{}, error) {
	asns := map[string]struct{}{}
	for _, raw := range list {
		for _, part := range strings.Split(raw, ",") {
			if normalized := decode.NormalizeASN(part); normalized != "" {
				asns[normalized] = struct{}{}
			}
		}
	}
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("cloud ASN file: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if normalized := decode.NormalizeASN(line); normalized != "" {
				asns[normalized] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("cloud ASN file: %w", err)
		}
	}
	return asns, nil
}
