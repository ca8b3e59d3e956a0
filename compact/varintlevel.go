// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package compact

import (
	"os"
	"strings"

	"golang.org/x/sys/cpu"
)

// VarintLevel selects the varint decoding strategy.
type VarintLevel uint32

const (
	// Decode varints one byte at a time.
	VarintScalar VarintLevel = iota

	// Decode varints eight bytes at a time.
	//
	// Requires a fast trailing-zero count
	// (BMI1 TZCNT on x86, always present on arm64).
	VarintWide

	// Autodetect based on the environment variable
	// (PQFOOTER_VARINT) and detected CPU features.
	VarintDetect = VarintLevel(0xFFFFFFFF)
)

const varintLevelEnvVar = "PQFOOTER_VARINT"

var globalVarintLevel VarintLevel

func init() {
	SetVarintLevel(VarintDetect)
}

func (v VarintLevel) String() string {
	switch v {
	case VarintScalar:
		return "scalar"
	case VarintWide:
		return "wide"
	case VarintDetect:
		return "detect"
	default:
		return "invalid"
	}
}

func varintLevelFromCPUFeatures() VarintLevel {
	if cpu.X86.HasBMI1 || cpu.ARM64.HasASIMD {
		return VarintWide
	}
	return VarintScalar
}

// DetectVarintLevel determines the varint level from
// the PQFOOTER_VARINT environment variable ("scalar" or
// "wide"), falling back to the detected CPU features.
func DetectVarintLevel() VarintLevel {
	val, _ := os.LookupEnv(varintLevelEnvVar)
	switch strings.ToLower(val) {
	case "scalar", "none", "disabled":
		return VarintScalar
	case "wide":
		return VarintWide
	}
	return varintLevelFromCPUFeatures()
}

// GetVarintLevel returns the varint level currently in use.
func GetVarintLevel() VarintLevel {
	return globalVarintLevel
}

// SetVarintLevel sets the varint level used by
// every subsequently constructed Decoder.
//
// NOTE: This function is not thread safe and can only be
// used at startup time or during testing.
func SetVarintLevel(v VarintLevel) {
	if v == VarintDetect {
		v = DetectVarintLevel()
	}
	globalVarintLevel = v
}
