package membuf

// sanitizePrefixLen bounds how much of a payload the control-character
// scan inspects.
const sanitizePrefixLen = 64

// ValidateMessageSize reports whether a received frame size is inside
// the expected window.
func ValidateMessageSize(received, expectedMin, expectedMax int) bool {
	return received >= expectedMin && received <= expectedMax
}

// SanitizeNetworkInput rejects payloads whose leading bytes contain NUL
// or control characters other than tab, newline and carriage return.
func SanitizeNetworkInput(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	limit := len(data)
	if limit > sanitizePrefixLen {
		limit = sanitizePrefixLen
	}

	for _, b := range data[:limit] {
		if b == 0 || (b < 32 && b != '\t' && b != '\n' && b != '\r') {
			return false
		}
	}

	return true
}

// ValidateStringField reports whether s is printable (tab allowed) and
// fits within maxLength including the terminator.
func ValidateStringField(s string, maxLength int) bool {
	if len(s) >= maxLength {
		return false
	}

	for i := 0; i < len(s); i++ {
		if (s[i] < 32 || s[i] > 126) && s[i] != '\t' {
			return false
		}
	}

	return true
}
