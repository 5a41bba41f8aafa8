// Package types provides shared types for ledgerlens-mcp.
// These types are used across multiple packages and are designed for external consumption.
package types

import "encoding/json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfidenceLevel grades how strongly a receipt's attestations support finality.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"   // attestations strictly exceed quorum
	ConfidenceMedium ConfidenceLevel = "MEDIUM" // attestations meet quorum exactly
	ConfidenceLow    ConfidenceLevel = "LOW"    // attestations present but below quorum
	ConfidenceNone   ConfidenceLevel = "NONE"   // no attestation data observed
)

// FinalityAssessment is the verdict of comparing a receipt's attestations
// against the committee quorum.
type FinalityAssessment struct {
	Finalized        bool            `json:"finalized"`
	AttestationCount int             `json:"attestation_count"`
	QuorumSize       int             `json:"quorum_size"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level"`
}

// Partial carries the errors and warnings accumulated by a composite
// operation. Composite results embed it so a partially failed multi-call
// operation still returns everything it could gather.
type Partial struct {
	Errors   []string `json:"errors,omitzero"`
	Warnings []string `json:"warnings,omitzero"`
}

// AddError records a failed required sub-call.
func (p *Partial) AddError(msg string) {
	p.Errors = append(p.Errors, msg)
}

// AddWarning records a failed optional sub-call.
func (p *Partial) AddWarning(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// Normalize replaces nil slices with empty ones so the envelope always
// serializes as arrays, never null.
func (p *Partial) Normalize() {
	if p.Errors == nil {
		p.Errors = []string{}
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
}
