package domain

// Metadata keys attached to every invocation.
const (
	// KeyInvocationID identifies one handler invocation.
	KeyInvocationID = "invocation_id"
	// KeyStage holds the $name of the stage being executed, when set.
	KeyStage = "stage"
	// KeyParent holds the invocation id of the caller for nested calls.
	KeyParent = "parent_invocation_id"
	// KeyWhen holds the $when directive of the stage, when set.
	KeyWhen = "when"
)
