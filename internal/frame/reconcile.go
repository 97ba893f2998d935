package frame

// Reconcile returns a copy of f holding exactly target, in order. Columns
// missing from f are added as null; extra columns are dropped.
func Reconcile(f *Frame, target []string) *Frame {
	out := f.Clone()
	if out == nil {
		out = &Frame{}
	}
	for _, c := range target {
		out.AddColumn(c, nil)
	}
	out.Project(target)
	return out
}
