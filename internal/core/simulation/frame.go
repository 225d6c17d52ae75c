package simulation

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Event types published on the bus.
const (
	EventFrameCompleted  = "frame.completed"
	EventAgentDegenerate = "agent.degenerate"
)

// Resource names shared between systems within a tick.
const (
	ResourceAgentPose  = "agent.pose"
	ResourceCameraPose = "camera.pose"
)

// Mat3 is a 3x3 rotation in column-major order, the layout of three.js
// Matrix3.fromArray and of GL uniform uploads.
type Mat3 [9]float64

func matFrom(m *r3.Mat) Mat3 {
	var out Mat3
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			out[c*3+r] = m.At(r, c)
		}
	}
	return out
}

// Col returns column j.
func (m Mat3) Col(j int) r3.Vec {
	return r3.Vec{X: m[j*3], Y: m[j*3+1], Z: m[j*3+2]}
}

// AgentPose is what the agent system hands to later systems. Basis holds
// the model rotation with columns right, up and -forward.
type AgentPose struct {
	Position r3.Vec
	Forward  r3.Vec
	Right    r3.Vec
	Up       r3.Vec
	Basis    Mat3
}

// CameraPose is the camera output for a frame. Orientation has columns
// right, up and back; OrientationOK is false when the look-at was degenerate
// and Orientation repeats the last good basis.
type CameraPose struct {
	Position      r3.Vec
	LookTarget    r3.Vec
	Orientation   Mat3
	OrientationOK bool
}

// vector is the wire form of r3.Vec: an [x, y, z] array.
type vector [3]float64

func wireVec(v r3.Vec) vector { return vector{v.X, v.Y, v.Z} }

func (v vector) vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

type agentPoseJSON struct {
	Position vector `json:"position"`
	Forward  vector `json:"forward"`
	Right    vector `json:"right"`
	Up       vector `json:"up"`
	Basis    Mat3   `json:"basis"`
}

func (p AgentPose) MarshalJSON() ([]byte, error) {
	return json.Marshal(agentPoseJSON{
		Position: wireVec(p.Position),
		Forward:  wireVec(p.Forward),
		Right:    wireVec(p.Right),
		Up:       wireVec(p.Up),
		Basis:    p.Basis,
	})
}

func (p *AgentPose) UnmarshalJSON(data []byte) error {
	var w agentPoseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = AgentPose{
		Position: w.Position.vec(),
		Forward:  w.Forward.vec(),
		Right:    w.Right.vec(),
		Up:       w.Up.vec(),
		Basis:    w.Basis,
	}
	return nil
}

type cameraPoseJSON struct {
	Position      vector `json:"position"`
	LookTarget    vector `json:"look_target"`
	Orientation   Mat3   `json:"orientation"`
	OrientationOK bool   `json:"orientation_ok"`
}

func (p CameraPose) MarshalJSON() ([]byte, error) {
	return json.Marshal(cameraPoseJSON{
		Position:      wireVec(p.Position),
		LookTarget:    wireVec(p.LookTarget),
		Orientation:   p.Orientation,
		OrientationOK: p.OrientationOK,
	})
}

func (p *CameraPose) UnmarshalJSON(data []byte) error {
	var w cameraPoseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = CameraPose{
		Position:      w.Position.vec(),
		LookTarget:    w.LookTarget.vec(),
		Orientation:   w.Orientation,
		OrientationOK: w.OrientationOK,
	}
	return nil
}

// Frame is the read-only result of one tick, handed to renderers.
type Frame struct {
	Number    int64         `json:"number"`
	DeltaTime float64       `json:"delta_time"`
	Elapsed   time.Duration `json:"elapsed"`
	Rotation  float64       `json:"rotation"`
	Agent     AgentPose     `json:"agent"`
	Camera    CameraPose    `json:"camera"`
}

// Digest folds the pose of every frame into a 64-bit xxhash. Two runs with
// the same config and inputs produce the same digest.
type Digest struct {
	h   *xxhash.Digest
	buf [8]byte
}

func NewDigest() *Digest {
	return &Digest{h: xxhash.New()}
}

// Add mixes f into the digest. Wall-clock fields are ignored.
func (d *Digest) Add(f Frame) {
	d.putInt(f.Number)
	d.putFloat(f.DeltaTime)
	d.putFloat(f.Rotation)
	for _, v := range []r3.Vec{
		f.Agent.Position, f.Agent.Forward, f.Agent.Right, f.Agent.Up,
		f.Camera.Position, f.Camera.LookTarget,
	} {
		d.putFloat(v.X)
		d.putFloat(v.Y)
		d.putFloat(v.Z)
	}
}

func (d *Digest) Sum64() uint64 { return d.h.Sum64() }

func (d *Digest) putFloat(v float64) {
	binary.LittleEndian.PutUint64(d.buf[:], math.Float64bits(v))
	_, _ = d.h.Write(d.buf[:])
}

func (d *Digest) putInt(v int64) {
	binary.LittleEndian.PutUint64(d.buf[:], uint64(v))
	_, _ = d.h.Write(d.buf[:])
}
