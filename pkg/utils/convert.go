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

package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConvertToFloat64 casts an arbitrary value to float64, parsing strings when
// needed. NaN values are reported as an error.
func ConvertToFloat64(unk interface{}) (float64, error) {
	switch i := unk.(type) {
	case float64:
		if math.IsNaN(i) {
			return 0, fmt.Errorf("refusing NaN value")
		}
		return i, nil
	case float32:
		return float64(i), nil
	case int64:
		return float64(i), nil
	case int32:
		return float64(i), nil
	case uint64:
		return float64(i), nil
	case uint32:
		return float64(i), nil
	case int:
		return float64(i), nil
	case bool:
		if i {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(i), 64)
	case nil:
		return 0, nil
	default:
		return math.NaN(), fmt.Errorf("can't convert %T to float64", unk)
	}
}

// ConvertToString returns the string form of an arbitrary value.
func ConvertToString(unk interface{}) string {
	if unk == nil {
		return ""
	}
	if s, ok := unk.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", unk)
}
