package utils

// MaskToken keeps the first visible characters of a credential for log
// correlation and hides the rest.
// Example: MaskToken("eyJhbGciOiJIUzI1NiJ9.x.y", 6) -> "eyJhbG***"
func MaskToken(s string, visible int) string {
	if s == "" {
		return ""
	}
	if visible <= 0 || len(s) <= visible*2 {
		return "***"
	}
	return s[:visible] + "***"
}
