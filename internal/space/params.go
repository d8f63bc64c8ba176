package space

// Params maps dimension names to their concrete values for one
// candidate, preserving the space's dimension order.
type Params struct {
	names  []string
	values map[string]interface{}
}

// NewParams builds a Params value directly from ordered names and values.
// Intended for tests and checkpoint reloads; normal construction goes
// through Space.Params.
func NewParams(names []string, values map[string]interface{}) Params {
	return Params{names: names, values: values}
}

// Names returns the parameter names in dimension order.
func (p Params) Names() []string {
	return p.names
}

// Has reports whether a parameter with the given name exists.
func (p Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Float returns the named parameter as a float64. Integer-valued
// parameters are widened.
func (p Params) Float(name string) float64 {
	switch v := p.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Int returns the named parameter as an int.
func (p Params) Int(name string) int {
	switch v := p.values[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// String returns the named categorical parameter's choice.
func (p Params) String(name string) string {
	if v, ok := p.values[name].(string); ok {
		return v
	}
	return ""
}

// Bool interprets a categorical true/false parameter.
func (p Params) Bool(name string) bool {
	return p.String(name) == "true"
}

// Map returns a name-to-value copy, used for serialization and reporting.
func (p Params) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}
