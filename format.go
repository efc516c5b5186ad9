package slotmap

// Format zeroes the words g occupies at region[offset:], leaving an empty map.
// Bytes outside that range are untouched.
//
// The region is validated exactly as by New.
func Format(region []byte, offset int, g Geometry) error {
	view, err := open(region, offset, g)
	if err != nil {
		return err
	}
	view.Clear()
	return nil
}
