package detectors

// all lists the detectors in registration order. Output order follows it.
var all = []*Detector{
	destructiveCommand,
	gitForceOperation,
	credentialLeak,
	envVarLeak,
	dataExfiltration,
	remoteExecution,
	codeInjection,
	packagePoisoning,
	archiveExtraction,
	containerEscape,
	privilegeEscalation,
	backdoorPersistence,
	processManipulation,
}

// All returns the registered detectors in registration order.
func All() []*Detector {
	out := make([]*Detector, len(all))
	copy(out, all)
	return out
}

// IDs returns detector identifiers in registration order.
func IDs() []string {
	ids := make([]string, len(all))
	for i, d := range all {
		ids[i] = d.ID
	}
	return ids
}

// Lookup finds a detector by ID.
func Lookup(id string) (*Detector, bool) {
	for _, d := range all {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}
