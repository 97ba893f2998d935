package transform

import "talent-pipeline/internal/frame"

// MakePair adds a Pair column of "{keyA}-{keyB}". Both columns must exist,
// even on an empty batch, because Pair is a join key downstream. Empty key
// names default to Job ID and Person ID.
func MakePair(in *frame.Frame, keyA, keyB string) (*frame.Frame, error) {
	if keyA == "" {
		keyA = ColJobID
	}
	if keyB == "" {
		keyB = ColPersonID
	}
	if in == nil {
		in = &frame.Frame{}
	}
	if err := in.Require(keyA, keyB); err != nil {
		return nil, err
	}

	f := in.Clone()
	f.AddColumn(ColPair, nil)
	for i, r := range f.Rows {
		f.Set(i, ColPair, pairKey(r[keyA], r[keyB]))
	}
	return f, nil
}

func pairKey(a, b any) string {
	return frame.Text(a) + "-" + frame.Text(b)
}
