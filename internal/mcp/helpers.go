package mcpserver

func boolPtr(v bool) *bool { return &v }

// clamp bounds n to [lo, hi], using def when n is not positive.
func clamp(n, def, lo, hi int) int {
	if n <= 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
