package assemble

import "errors"

// Sentinel kinds for assembly errors.
var (
	// ErrAssemblyInconsistency marks an in-flight partial evicted before it
	// completed. It is logged and counted, never returned for the update
	// that caused it.
	ErrAssemblyInconsistency = errors.New("assembly inconsistency")
	ErrUnknownMode           = errors.New("unknown wire mode")
)
