package scoring

// HashString folds a textual identifier into the unsigned 64-bit key
// space that Observe consumes, using djb2. The hash is stable across
// runs, platforms, and invocation order.
func HashString(s string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return h
}
