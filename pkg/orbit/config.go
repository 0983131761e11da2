package orbit

// Config tunes the controller.
type Config struct {
	// ScrollScale is the distance moved per unit of scroll.
	ScrollScale float64
	RotateSpeed float64
	PanSpeed    float64
	// EyeOffset pulls the point rotation is measured from back along the
	// view axis, so drags parallel to the view still produce an angle.
	EyeOffset float64
	// PoleThreshold is the |cos| between the pivot-to-camera direction and
	// world up above which rotation switches to a single free quaternion.
	PoleThreshold float64

	// Focus glide spring.
	FocusFrequency float64
	FocusDamping   float64
	FPS            int
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	return Config{
		ScrollScale:    0.5,
		RotateSpeed:    1,
		PanSpeed:       1,
		EyeOffset:      1,
		PoleThreshold:  0.999,
		FocusFrequency: 6,
		FocusDamping:   1,
		FPS:            30,
	}
}
