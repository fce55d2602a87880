// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
)

// Family selects the metric families to export using bit patterns
type Family uint32

const (
	FamilyLocality    Family = 1 << iota // 1
	FamilyCoherency                      // 2
	FamilyLoadBalance                    // 4
	FamilyMemory                         // 8
	FamilySwitch                         // 16
	FamilyLock                           // 32

	// FamilyAll represents all metric families combined
	FamilyAll = FamilyLocality | FamilyCoherency | FamilyLoadBalance | FamilyMemory | FamilySwitch | FamilyLock
)

var familyNames = []struct {
	family Family
	name   string
}{
	{FamilyLocality, "locality"},
	{FamilyCoherency, "coherency"},
	{FamilyLoadBalance, "loadbalance"},
	{FamilyMemory, "memory"},
	{FamilySwitch, "switch"},
	{FamilyLock, "lock"},
}

// IsEnabled checks if every family in other is enabled
func (f Family) IsEnabled(other Family) bool {
	return other != 0 && f&other == other
}

// Names returns the names of the enabled families in export order
func (f Family) Names() []string {
	var names []string
	for _, fn := range familyNames {
		if f.IsEnabled(fn.family) {
			names = append(names, fn.name)
		}
	}
	return names
}

// String returns the string representation of the families
func (f Family) String() string {
	return strings.Join(f.Names(), ",")
}

// ParseFamily parses a slice of family names into a Family
func ParseFamily(names []string) (Family, error) {
	if len(names) == 0 {
		return FamilyAll, nil
	}

	var result Family
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "all" {
			result |= FamilyAll
			continue
		}
		found := false
		for _, fn := range familyNames {
			if fn.name == name {
				result |= fn.family
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown metric family: %s", name)
		}
	}

	return result, nil
}

// ValidFamilies returns the list of valid family names
func ValidFamilies() []string {
	return FamilyAll.Names()
}

// MarshalYAML implements yaml.Marshaler interface
func (f Family) MarshalYAML() (interface{}, error) {
	names := f.Names()
	// Return as slice for multiple families, single string for one family
	if len(names) == 1 {
		return names[0], nil
	}
	return names, nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface
func (f *Family) UnmarshalYAML(unmarshal func(interface{}) error) error {
	// Try to unmarshal as a string first
	var single string
	if err := unmarshal(&single); err == nil {
		parsed, parseErr := ParseFamily(strings.Split(single, ","))
		if parseErr != nil {
			return parseErr
		}
		*f = parsed
		return nil
	}

	var multiple []string
	if err := unmarshal(&multiple); err == nil {
		parsed, parseErr := ParseFamily(multiple)
		if parseErr != nil {
			return parseErr
		}
		*f = parsed
		return nil
	}

	return fmt.Errorf("cannot unmarshal metric families: must be a string or array of strings")
}
