// Package effects holds per-frame stereo processors applied to decoded
// clip audio before it reaches the output device.
package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}
