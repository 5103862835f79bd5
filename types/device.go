package types

// DeviceGeometry is the screen size and rotation reported by the device.
// Orientation is 0..3 in quarter turns.
type DeviceGeometry struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	Orientation int `json:"orientation"`
}

// Landscape reports whether the screen is wider than tall.
func (g DeviceGeometry) Landscape() bool {
	return g.Width > g.Height
}

// DeviceInfo is the identity and geometry of a connected device.
type DeviceInfo struct {
	Serial   string         `json:"serial"`
	UUID     string         `json:"uuid"`
	Geometry DeviceGeometry `json:"geometry"`
}

// SwipeParam describes one contact of a multi-contact swipe. Starting and
// Duration are in milliseconds relative to the start of the gesture.
type SwipeParam struct {
	X1       int `json:"x1"`
	Y1       int `json:"y1"`
	X2       int `json:"x2"`
	Y2       int `json:"y2"`
	Starting int `json:"starting"`
	Duration int `json:"duration"`
}
