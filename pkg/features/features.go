package features

import (
	"fmt"
	"sort"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
)

type FeatureGate struct {
	Name    string
	Address [32]byte
}

type Features struct {
	activeFeatures map[[32]byte]uint64
}

func NewFeaturesDefault() *Features {
	return &Features{activeFeatures: make(map[[32]byte]uint64)}
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	f.activeFeatures[gate.Address] = slot
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.activeFeatures, gate.Address)
}

func (f *Features) IsActive(gate FeatureGate) bool {
	_, active := f.activeFeatures[gate.Address]
	return active
}

func (f *Features) ActivationSlot(gate FeatureGate) (uint64, bool) {
	slot, active := f.activeFeatures[gate.Address]
	return slot, active
}

func (f *Features) AllEnabled() []string {
	var enabled []string
	for _, gate := range AllFeatureGates() {
		if f.IsActive(gate) {
			enabled = append(enabled, fmt.Sprintf("feature %s (%s) enabled", gate.Name, base58.EncodeToString(gate.Address)))
		}
	}
	sort.Strings(enabled)
	return enabled
}
