package nlquery

// Kind discriminates the parser's closed payload union.
type Kind string

const (
	KindQuery  Kind = "query"
	KindAction Kind = "action"
	KindError  Kind = "error"
)

// Parameters is the raw parameter mapping attached to a query descriptor.
// Keys depend on the named function; typed decoding happens in dispatch.
type Parameters map[string]any

// String returns the parameter as a string, or "" when absent or not a string.
func (p Parameters) String(key string) string {
	value, ok := p[key]
	if !ok {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return s
}

// QueryDescriptor names a lookup function and its parameters.
type QueryDescriptor struct {
	FunctionName string     `json:"functionName"`
	Parameters   Parameters `json:"parameters"`
}

// ActionRequest is a side-effecting request derived from natural language.
// Query resolves the recipient set; nothing is executed until an operator
// confirms.
type ActionRequest struct {
	Name    string
	Message string
	Query   QueryDescriptor
}

// Payload is the parser output: exactly one of the three variants is set,
// indicated by Kind.
type Payload struct {
	Kind   Kind
	Query  *QueryDescriptor
	Action *ActionRequest
	Err    string
}

// ErrorPayload builds the error variant.
func ErrorPayload(msg string) Payload {
	return Payload{Kind: KindError, Err: msg}
}
