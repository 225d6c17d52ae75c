package input

import (
	"math"
	"strings"
)

// Snapshot is the steering state sampled once per tick.
type Snapshot struct {
	// Rotation is the steering scalar: -1 left, 0 none, 1 right.
	Rotation float64
}

// Clamped returns the snapshot with Rotation limited to [-1, 1].
// NaN steering is treated as no input.
func (s Snapshot) Clamped() Snapshot {
	if math.IsNaN(s.Rotation) {
		return Snapshot{}
	}
	return Snapshot{Rotation: math.Max(-1, math.Min(1, s.Rotation))}
}

// Source produces the input snapshot for a frame.
type Source interface {
	Sample(frame int64) Snapshot
}

// Static always reports the same snapshot.
type Static Snapshot

func (s Static) Sample(int64) Snapshot { return Snapshot(s) }

// Key codes bound to steering, matched case-insensitively.
var (
	LeftKeys  = []string{"KeyA", "ArrowLeft"}
	RightKeys = []string{"KeyD", "ArrowRight"}
)

// KeyState tracks which keys are held. Feed it from whatever delivers key
// events and sample it once per tick.
type KeyState struct {
	pressed map[string]bool
}

func NewKeyState() *KeyState {
	return &KeyState{pressed: make(map[string]bool)}
}

func (k *KeyState) Press(code string)   { k.pressed[strings.ToLower(code)] = true }
func (k *KeyState) Release(code string) { k.pressed[strings.ToLower(code)] = false }

func (k *KeyState) Pressed(code string) bool {
	return k.pressed[strings.ToLower(code)]
}

// Reset releases every key.
func (k *KeyState) Reset() { clear(k.pressed) }

// Rotation maps held keys to -1, 0 or 1. Holding both directions cancels out.
func (k *KeyState) Rotation() float64 {
	var rotation float64
	if k.anyPressed(LeftKeys) {
		rotation--
	}
	if k.anyPressed(RightKeys) {
		rotation++
	}
	return rotation
}

func (k *KeyState) Sample(int64) Snapshot {
	return Snapshot{Rotation: k.Rotation()}
}

func (k *KeyState) anyPressed(codes []string) bool {
	for _, code := range codes {
		if k.Pressed(code) {
			return true
		}
	}
	return false
}
