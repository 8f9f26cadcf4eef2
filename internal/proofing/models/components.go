package models

// ProofingComponents records which vendor satisfied each stage of one
// submission. Write-once, read by audit/analytics consumers; nil fields are
// omitted from the wire shape.
type ProofingComponents struct {
	DocumentCheck              string `json:"document_check,omitempty"`
	DocumentType               string `json:"document_type,omitempty"`
	SourceCheck                string `json:"source_check,omitempty"`
	ResolutionCheck            string `json:"resolution_check,omitempty"`
	ResidentialResolutionCheck string `json:"residential_resolution_check,omitempty"`
	AddressCheck               string `json:"address_check,omitempty"`
	ThreatMetrix               string `json:"threatmetrix,omitempty"`
	ThreatMetrixReviewStatus   string `json:"threatmetrix_review_status,omitempty"`
}

// Merge overlays non-empty fields from other onto a copy of c. Stages write
// disjoint fields, so overlay order does not matter in practice.
func (c ProofingComponents) Merge(other ProofingComponents) ProofingComponents {
	merged := c
	if other.DocumentCheck != "" {
		merged.DocumentCheck = other.DocumentCheck
	}
	if other.DocumentType != "" {
		merged.DocumentType = other.DocumentType
	}
	if other.SourceCheck != "" {
		merged.SourceCheck = other.SourceCheck
	}
	if other.ResolutionCheck != "" {
		merged.ResolutionCheck = other.ResolutionCheck
	}
	if other.ResidentialResolutionCheck != "" {
		merged.ResidentialResolutionCheck = other.ResidentialResolutionCheck
	}
	if other.AddressCheck != "" {
		merged.AddressCheck = other.AddressCheck
	}
	if other.ThreatMetrix != "" {
		merged.ThreatMetrix = other.ThreatMetrix
	}
	if other.ThreatMetrixReviewStatus != "" {
		merged.ThreatMetrixReviewStatus = other.ThreatMetrixReviewStatus
	}
	return merged
}
