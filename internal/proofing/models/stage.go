package models

import (
	dErrors "idproof/pkg/domain-errors"
)

// Stage is one phase of identity proofing. Ordering matters to the agent:
// state_id is only attempted after a successful resolution, while address and
// phone_finder are independent of resolution.
type Stage string

const (
	StageResolution  Stage = "resolution"
	StageStateID     Stage = "state_id"
	StageAddress     Stage = "address"
	StagePhoneFinder Stage = "phone_finder"
)

// AllStages lists every stage the registry must be able to cover.
var AllStages = []Stage{StageResolution, StageStateID, StageAddress, StagePhoneFinder}

// ParseStage validates a wire-format stage name.
func ParseStage(raw string) (Stage, error) {
	for _, s := range AllStages {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown proofing stage %q", raw)
}

func (s Stage) String() string { return string(s) }
