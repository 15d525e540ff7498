package buildopts

import (
	"encoding/json"
)

const (
	// Tier priorities. Higher numbers win.
	TierPriorityGlobal      = 100
	TierPriorityPackage     = 200
	TierPriorityGlobalTool  = 300
	TierPriorityPackageTool = 400
)

// Tier models one precedence bucket of the resolution order.
type Tier struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Priority int    `json:"priority"`
}

var (
	// TierPackageTool holds "<pkg>_enable_<opt>-<tool>" style overrides.
	TierPackageTool = Tier{Name: "package-tool", Label: "Package tool override", Priority: TierPriorityPackageTool}
	// TierGlobalTool holds "enable_<opt>-<tool>" style overrides.
	TierGlobalTool = Tier{Name: "global-tool", Label: "Global tool override", Priority: TierPriorityGlobalTool}
	// TierPackage holds package scoped settings.
	TierPackage = Tier{Name: "package", Label: "Package", Priority: TierPriorityPackage}
	// TierGlobal holds unscoped settings.
	TierGlobal = Tier{Name: "global", Label: "Global", Priority: TierPriorityGlobal}
)

// Tiers returns every tier ordered from strongest to weakest.
func Tiers() []Tier {
	return []Tier{TierPackageTool, TierGlobalTool, TierPackage, TierGlobal}
}

// Trace captures how an option was resolved across the tiers that were
// inspected. Tiers weaker than the winner are not listed.
type Trace struct {
	Package string       `json:"package,omitempty"`
	Option  string       `json:"option"`
	Tool    Tool         `json:"tool,omitempty"`
	Winner  string       `json:"winner,omitempty"`
	Layers  []Provenance `json:"layers"`
}

// Provenance details what one tier contributed.
type Provenance struct {
	Tier   Tier   `json:"tier"`
	Option string `json:"option"`
	Keys   Keys   `json:"keys"`
	Value  Value  `json:"value"`
	Found  bool   `json:"found"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
