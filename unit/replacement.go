package unit

// Replacement maps a placeholder token such as "{ADB_SERIAL}" to its runtime value.
type Replacement map[string]string

// Clone returns an independent copy.
func (r Replacement) Clone() Replacement {
	out := make(Replacement, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge folds other into r. With override the values of other win,
// otherwise values already present in r are kept.
func (r Replacement) Merge(other Replacement, override bool) {
	for k, v := range other {
		if _, exists := r[k]; exists && !override {
			continue
		}
		r[k] = v
	}
}

// With returns a copy of r overridden by extra; r itself is untouched.
func (r Replacement) With(extra Replacement) Replacement {
	out := r.Clone()
	out.Merge(extra, true)
	return out
}
