package engine

// Status is the three-valued per-identity classification result.
type Status string

const (
	// StatusMissing means no observed identity has the desired name.
	StatusMissing Status = "missing"

	// StatusPresent means credential and sudo flag match the desired state.
	StatusPresent Status = "present"

	// StatusOutdated means the identity exists but at least one compared
	// field differs.
	StatusOutdated Status = "outdated"
)

// Classification is the result of classifying one desired identity against
// the observed state.
type Classification struct {
	Status Status

	// Fields lists the differing fields for StatusOutdated, always in the
	// fixed order "key" then "sudo".
	Fields []string
}

// Classify evaluates a single desired identity against the observed
// identities indexed by name.
//
// The home path is deliberately not part of this comparison even though the
// diff computer treats a home mismatch as update-worthy; the two notions of
// "outdated" disagree on home drift and are kept distinct on purpose.
//
// An unreadable credential on the host manifests as an empty observed key, so
// a protected home directory classifies as outdated (or missing), never as a
// hard error.
func Classify(desired Identity, observed map[string]Identity) Classification {
	o, ok := observed[desired.Name]
	if !ok {
		return Classification{Status: StatusMissing}
	}
	if o.Key == desired.Key && o.Sudo == desired.Sudo {
		return Classification{Status: StatusPresent}
	}
	var fields []string
	if o.Key != desired.Key {
		fields = append(fields, "key")
	}
	if o.Sudo != desired.Sudo {
		fields = append(fields, "sudo")
	}
	return Classification{Status: StatusOutdated, Fields: fields}
}
