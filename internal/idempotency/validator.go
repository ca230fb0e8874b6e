package idempotency

// ValidateKey reports whether a client-supplied idempotency key is acceptable:
// 10 to 128 characters, letters, digits, hyphen and underscore only.
func ValidateKey(key string) bool {
	if len(key) < 10 || len(key) > 128 {
		return false
	}

	for _, r := range key {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '-' || r == '_'
		if !isLower && !isUpper && !isDigit && !isSpecial {
			return false
		}
	}

	return true
}
