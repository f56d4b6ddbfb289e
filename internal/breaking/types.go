package breaking

// ChangeKind is the closed change taxonomy.
type ChangeKind string

const (
	AddedClass   ChangeKind = "AddedClass"   // New top-level or nested type
	RemovedClass ChangeKind = "RemovedClass" // Type deleted with all its members

	AddedMethod                  ChangeKind = "AddedMethod"                  // New signature
	RemovedMethod                ChangeKind = "RemovedMethod"                // Signature gone, including a parameter type change
	ModifiedMethodReturnType     ChangeKind = "ModifiedMethodReturnType"     // Same signature, different return type
	ModifiedMethodParameterNames ChangeKind = "ModifiedMethodParameterNames" // Same types, renamed parameters
	ModifiedMethodVisibility     ChangeKind = "ModifiedMethodVisibility"     // Access modifier changed
	ModifiedMethodDeprecation    ChangeKind = "ModifiedMethodDeprecation"    // Deprecated added or removed
	// ModifiedMethodParameterTypes is only produced by the opt-in
	// reconciliation pass.
	ModifiedMethodParameterTypes ChangeKind = "ModifiedMethodParameterTypes"

	AddedField               ChangeKind = "AddedField"               // New field name
	RemovedField             ChangeKind = "RemovedField"             // Field name gone
	ModifiedFieldType        ChangeKind = "ModifiedFieldType"        // Erased type changed
	ModifiedFieldVisibility  ChangeKind = "ModifiedFieldVisibility"  // Access modifier changed
	ModifiedFieldDeprecation ChangeKind = "ModifiedFieldDeprecation" // Deprecated added or removed
)

// Kinds lists every change kind in taxonomy order.
func Kinds() []ChangeKind {
	return []ChangeKind{
		AddedClass, RemovedClass,
		AddedMethod, RemovedMethod,
		ModifiedMethodReturnType, ModifiedMethodParameterNames,
		ModifiedMethodVisibility, ModifiedMethodDeprecation,
		ModifiedMethodParameterTypes,
		AddedField, RemovedField,
		ModifiedFieldType, ModifiedFieldVisibility, ModifiedFieldDeprecation,
	}
}

// Impact is the compatibility verdict for a change.
type Impact string

const (
	Breaking    Impact = "Breaking"    // Existing callers may fail to compile or link
	NonBreaking Impact = "NonBreaking" // Safe for existing callers
	Unknown     Impact = "Unknown"     // No rule matched
)

// Confidence qualifies an Impact.
type Confidence string

const (
	High   Confidence = "High"   // Structural change
	Medium Confidence = "Medium" // Source-compatible in most cases
	Low    Confidence = "Low"    // Fallback verdict
)

// Category is the symbol family a change belongs to.
type Category string

const (
	CategoryClass  Category = "class"
	CategoryField  Category = "field"
	CategoryMethod Category = "method"
)

// Meta is the structured metadata block of a change. Names and types are
// strings, parameter lists are []string and flags are bool.
type Meta map[string]any

// Text returns the string value under key, or "" when the key is absent
// or holds a list or flag.
func (m Meta) Text(key string) string {
	s, _ := m[key].(string)
	return s
}

// Strings returns the list value under key.
func (m Meta) Strings(key string) []string {
	l, _ := m[key].([]string)
	return l
}

// Flag returns the bool value under key.
func (m Meta) Flag(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Metadata keys.
const (
	MetaSymbolKind        = "symbolKind"
	MetaFQN               = "fqn"
	MetaMethodName        = "methodName"
	MetaFieldName         = "fieldName"
	MetaFieldType         = "fieldType"
	MetaSignature         = "signature"
	MetaVisibility        = "visibility"
	MetaReturnType        = "returnType"
	MetaParameterTypes    = "parameterTypes"
	MetaParameterNames    = "parameterNames"
	MetaDeprecated        = "deprecated"
	MetaParamNameChange   = "paramNameChange"
	MetaOldParamNames     = "oldParameterNames"
	MetaNewParamNames     = "newParameterNames"
	MetaOldParameterTypes = "oldParameterTypes"
	MetaConstructor       = "constructor"
	MetaWaived            = "waived"
	MetaWaiverReason      = "waiverReason"
)

// Change is one typed difference between two revisions.
type Change struct {
	Kind       ChangeKind `json:"changeType" yaml:"changeType"`
	Symbol     string     `json:"-" yaml:"-"`
	Before     string     `json:"before,omitempty" yaml:"before,omitempty"`
	After      string     `json:"after,omitempty" yaml:"after,omitempty"`
	Impact     Impact     `json:"impact,omitempty" yaml:"impact,omitempty"`
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Category   Category   `json:"category,omitempty" yaml:"category,omitempty"`
	Meta       Meta       `json:"meta,omitempty" yaml:"meta,omitempty"`
	Waived     bool       `json:"-" yaml:"-"`
}

// DiffOptions configures Diff.
type DiffOptions struct {
	// ReconcileParameterTypes folds a RemovedMethod/AddedMethod pair that is
	// the only pair for its arity key in a class into one
	// ModifiedMethodParameterTypes change.
	ReconcileParameterTypes bool
	// APIOnly ignores members and classes that are private or
	// package-private on every side they exist on.
	APIOnly bool
}

// Waiver accepts known breaking changes, for example from a policy file.
type Waiver interface {
	Waive(c Change) (reason string, ok bool)
}

// CompareOptions configures Compare.
type CompareOptions struct {
	Diff   DiffOptions
	Waiver Waiver
}

// Result is the classified outcome of comparing two revisions.
type Result struct {
	OldRevision string   `json:"oldRevision"`
	NewRevision string   `json:"newRevision"`
	Changes     []Change `json:"changes"`
	Summary     *Summary `json:"summary"`
}

// Summary aggregates a change list.
type Summary struct {
	TotalChanges int            `json:"totalChanges" yaml:"totalChanges"`
	Breaking     int            `json:"breaking" yaml:"breaking"`
	NonBreaking  int            `json:"nonBreaking" yaml:"nonBreaking"`
	Unknown      int            `json:"unknown" yaml:"unknown"`
	Waived       int            `json:"waived" yaml:"waived"`
	Additions    int            `json:"additions" yaml:"additions"`
	ByKind       map[string]int `json:"byKind" yaml:"byKind"`
	ByPackage    map[string]int `json:"byPackage,omitempty" yaml:"byPackage,omitempty"`
	SemverAdvice string         `json:"semverAdvice" yaml:"semverAdvice"`
}

// HasBreakingChanges reports unwaived breaking changes.
func (r *Result) HasBreakingChanges() bool {
	return r.Summary != nil && r.Summary.Breaking > 0
}
