package autodiff

// Pause disables recording and returns a function that restores the
// previous recording state. Intended for defer:
//
//	defer g.Pause()()
func (g *Graph) Pause() (restore func()) {
	if g == nil {
		return func() {}
	}
	wasRecording := g.recording
	g.recording = false
	return func() {
		g.recording = wasRecording
	}
}

// NoGrad runs fn with recording disabled. The previous recording state is
// restored when fn returns, fails or panics. Operations run inside fn
// produce values only; their outputs cannot be passed to Backward.
//
// Example:
//
//	err := g.NoGrad(func() error {
//	    logp, err := model.Forward(g, images)
//	    ...
//	})
func (g *Graph) NoGrad(fn func() error) error {
	defer g.Pause()()
	return fn()
}
