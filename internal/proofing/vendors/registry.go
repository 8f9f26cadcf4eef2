package vendors

import (
	"fmt"
	"sort"
	"strings"

	"idproof/internal/proofing/models"
	dErrors "idproof/pkg/domain-errors"
)

// Registry resolves which vendor implementation services each proofing stage.
// It is built once at process start from the operator's ordered vendor list
// and an explicit table of available implementations; there is no runtime
// discovery and no mid-flight fallback.
type Registry struct {
	configured   map[models.Stage]Vendor
	mocks        map[models.Stage]Vendor
	mockFallback bool
}

// NewRegistry indexes the available vendors against the ordered vendor list.
// Each list entry has the form "name:stage"; the first entry naming a stage
// wins for that stage. A list entry that names an unknown vendor or a
// malformed stage is a configuration error.
func NewRegistry(vendorList []string, available []Vendor, mocks []Vendor, mockFallback bool) (*Registry, error) {
	byKey := make(map[string]Vendor, len(available))
	for _, v := range available {
		byKey[vendorKey(v.Name(), v.Stage())] = v
	}

	configured := make(map[models.Stage]Vendor)
	for _, entry := range vendorList {
		name, stage, err := parseVendorEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, taken := configured[stage]; taken {
			continue
		}
		vendor, ok := byKey[vendorKey(name, stage)]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "vendor %q is not a known implementation for stage %s", name, stage)
		}
		configured[stage] = vendor
	}

	mockByStage := make(map[models.Stage]Vendor, len(mocks))
	for _, m := range mocks {
		mockByStage[m.Stage()] = m
	}

	return &Registry{
		configured:   configured,
		mocks:        mockByStage,
		mockFallback: mockFallback,
	}, nil
}

// Get returns the vendor for a stage. Explicit configuration always wins;
// the mock table is consulted only when no vendor is configured and fallback
// is enabled. Nil means the stage has no coverage at all.
func (r *Registry) Get(stage models.Stage) Vendor {
	if vendor, ok := r.configured[stage]; ok {
		return vendor
	}
	if r.mockFallback {
		if mock, ok := r.mocks[stage]; ok {
			return mock
		}
	}
	return nil
}

// ValidateVendors is the boot-time check and the engine's single hard-failure
// path: a deployment where any stage resolves to nothing must not start.
func (r *Registry) ValidateVendors() error {
	var missing []string
	for _, stage := range models.AllStages {
		if r.Get(stage) == nil {
			missing = append(missing, string(stage))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return dErrors.Newf(dErrors.CodeConfiguration, "no proofer vendor configured for stage(s): %s", strings.Join(missing, ", "))
}

func parseVendorEntry(entry string) (string, models.Stage, error) {
	parts := strings.SplitN(entry, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", dErrors.Newf(dErrors.CodeConfiguration, "malformed vendor entry %q, want \"name:stage\"", entry)
	}
	stage, err := models.ParseStage(parts[1])
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("vendor entry %q", entry))
	}
	return parts[0], stage, nil
}

func vendorKey(name string, stage models.Stage) string {
	return name + ":" + string(stage)
}
