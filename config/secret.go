package config

// SecretStringValue replaces secret values in any output.
const SecretStringValue = "<secret>"

// SecretString is a type for values which must not be visible in logs, dumps
// and reports, like credentials used to download images.
type SecretString string

// Value returns actual secret.
func (s SecretString) Value() string {
	return string(s)
}

// String implements fmt.Stringer, so secret is hidden when logged.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
