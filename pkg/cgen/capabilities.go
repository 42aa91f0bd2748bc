package cgen

// Capabilities describes what the target runtime supports. It is resolved
// once at compilation-unit setup; components query boolean flags instead of
// comparing version numbers.
type Capabilities struct {
	// QualifiedNames: the runtime stores a qualified name separate from the
	// display name on callable objects.
	QualifiedNames bool

	// DirectAliasParams: the direct-call convention may pass a plain (non
	// shared) closure variable as a live alias instead of a boxed cell.
	DirectAliasParams bool

	// SelfDescribing: suspendable objects carry their own name and qualname,
	// so resumable bodies read them from the instance instead of the
	// constant pool.
	SelfDescribing bool
}

// DefaultCapabilities matches the current reference runtime.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		QualifiedNames:    true,
		DirectAliasParams: true,
		SelfDescribing:    true,
	}
}
