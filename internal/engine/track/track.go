// SPDX-License-Identifier: MIT
package track

import (
	"errors"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/Mkinney99/sushi/internal/engine/event"
	"github.com/Mkinney99/sushi/internal/engine/processor"
)

// ErrDuplicateName is returned by AudioGraph.CreateTrack for a name
// collision (spec.md §4.2's INVALID_TRACK_NAME).
var ErrDuplicateName = errors.New("track: duplicate name")

// ErrNotMember is returned when removing a processor that does not
// currently belong to the track (spec.md §4.2).
var ErrNotMember = errors.New("track: processor is not a member of this track")

// blas is the pure-Go gonum BLAS implementation, used for the per-route
// accumulation below: each route adds one channel into another, which is
// BLAS level-1 AXPY (y += alpha*x) with alpha 1; routes carry no gain.
var blas = blas32.Implementation()

// bypassRampMillis is spec.md §4.6's equal-power crossfade length.
const bypassRampMillis = 32

// membership is the track's child list and, parallel to it, one
// BypassManager per child (spec.md §4.6). The pair is swapped as a unit
// behind a single atomic pointer so ProcessAudio — which indexes both
// slices together — never observes them out of step with each other.
type membership struct {
	children []processor.Processor
	bypass   []*processor.BypassManager
}

// Track is a Processor whose body is an ordered sequence of child
// Processors sharing an internal bus (mono=1, stereo=2, or N channels
// wide), addressed by AudioGraph through input/output Routes rather than
// through the generic Processor.ProcessAudio contract directly: the
// gather/scatter against global channels is done by GatherGlobalInputs and
// ScatterGlobalOutputs, which AudioGraph.Process calls around
// Track.ProcessAudio.
type Track struct {
	processor.Base

	busWidth     int
	maxBlockSize int

	// structure serializes AddPlugin/RemovePlugin/AddInputRoute/
	// AddOutputRoute against each other (non-RT callers only). members/
	// inputRoutes/outputRoutes are copy-on-write behind atomic pointers so
	// ProcessAudio, GatherGlobalInputs and ScatterGlobalOutputs — all
	// called from the RT thread, never taking structure — read a
	// consistent snapshot without ever waiting on a lock a non-RT
	// mutation could be holding.
	structure sync.Mutex
	members   atomic.Pointer[membership]

	inputRoutes  atomic.Pointer[[]Route]
	outputRoutes atomic.Pointer[[]Route]

	internal []float32 // busWidth * maxBlockSize, post input-mapping
	scratchA []float32
	scratchB []float32
}

// New creates a Track with the given name and bus width (1=mono, 2=stereo,
// N=multichannel). maxBlockSize bounds the per-block sample count so all
// buffers can be preallocated.
func New(name string, busWidth, maxBlockSize int) *Track {
	t := &Track{
		Base:         processor.NewBase(name, name, nil, 0),
		busWidth:     busWidth,
		maxBlockSize: maxBlockSize,
		internal:     make([]float32, busWidth*maxBlockSize),
		scratchA:     make([]float32, busWidth*maxBlockSize),
		scratchB:     make([]float32, busWidth*maxBlockSize),
	}
	t.members.Store(&membership{})
	t.inputRoutes.Store(&[]Route{})
	t.outputRoutes.Store(&[]Route{})
	t.SetInputChannels(busWidth)
	t.SetOutputChannels(busWidth)
	return t
}

// BusWidth returns the internal bus channel count.
func (t *Track) BusWidth() int { return t.busWidth }

// AddInputRoute declares that the track's internal bus channel
// r.BusChannel should accumulate from the engine's global input channel
// r.EngineChannel.
func (t *Track) AddInputRoute(r Route) {
	t.structure.Lock()
	defer t.structure.Unlock()
	old := *t.inputRoutes.Load()
	next := append(append([]Route{}, old...), r)
	t.inputRoutes.Store(&next)
}

// AddOutputRoute declares that the track's internal bus channel
// r.BusChannel should accumulate into the engine's global output channel
// r.EngineChannel.
func (t *Track) AddOutputRoute(r Route) {
	t.structure.Lock()
	defer t.structure.Unlock()
	old := *t.outputRoutes.Load()
	next := append(append([]Route{}, old...), r)
	t.outputRoutes.Store(&next)
}

// InputRoutes returns the track's current input routing table.
func (t *Track) InputRoutes() []Route { return *t.inputRoutes.Load() }

// OutputRoutes returns the track's current output routing table.
func (t *Track) OutputRoutes() []Route { return *t.outputRoutes.Load() }

// AddPlugin appends a child Processor to the track's chain and arms a
// BypassManager for it (spec.md §4.6's crossfade, one ramp state per
// child). Per spec.md's invariant, the child's channel counts are set to
// the track's bus width before it joins.
func (t *Track) AddPlugin(p processor.Processor) {
	p.SetInputChannels(t.busWidth)
	p.SetOutputChannels(t.busWidth)

	t.structure.Lock()
	defer t.structure.Unlock()
	old := t.members.Load()
	next := &membership{
		children: append(append([]processor.Processor{}, old.children...), p),
		bypass:   append(append([]*processor.BypassManager{}, old.bypass...), processor.NewBypassManager(t.bypassRampSamples(), t.maxBlockSize)),
	}
	t.members.Store(next)
}

// RemovePlugin removes p from the chain. Returns ErrNotMember if p does
// not belong to this track.
func (t *Track) RemovePlugin(p processor.Processor) error {
	t.structure.Lock()
	defer t.structure.Unlock()
	old := t.members.Load()
	idx := -1
	for i, c := range old.children {
		if c.ID() == p.ID() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotMember
	}
	next := &membership{
		children: make([]processor.Processor, 0, len(old.children)-1),
		bypass:   make([]*processor.BypassManager, 0, len(old.bypass)-1),
	}
	next.children = append(next.children, old.children[:idx]...)
	next.children = append(next.children, old.children[idx+1:]...)
	next.bypass = append(next.bypass, old.bypass[:idx]...)
	next.bypass = append(next.bypass, old.bypass[idx+1:]...)
	t.members.Store(next)
	return nil
}

// Children returns the track's child processors in declaration order.
func (t *Track) Children() []processor.Processor { return t.members.Load().children }

// bypassRampSamples is spec.md §4.6's 32ms crossfade, in samples at the
// track's currently configured sample rate. Falls back to maxBlockSize*4
// before the track has ever been configured, so an AddPlugin called before
// the first Configure still gets a non-zero ramp rather than an instant
// switch.
func (t *Track) bypassRampSamples() int {
	sr := t.SampleRate()
	if sr <= 0 {
		return t.maxBlockSize * 4
	}
	n := int(sr * bypassRampMillis / 1000)
	if n < 1 {
		n = 1
	}
	return n
}

// GatherGlobalInputs zeroes the track's internal bus buffer and, for every
// input route, accumulates the referenced global input channel into the
// target bus channel (spec.md §4.2's input mapping, performed by AudioGraph
// per §4.3 step 3).
func (t *Track) GatherGlobalInputs(globalIn []float32, globalChannels, n int) {
	clear(t.internal[:t.busWidth*n])
	for _, r := range t.InputRoutes() {
		if r.EngineChannel < 0 || r.EngineChannel >= globalChannels {
			continue
		}
		src := globalIn[r.EngineChannel*n : r.EngineChannel*n+n]
		dst := t.internal[r.BusChannel*n : r.BusChannel*n+n]
		blas.Saxpy(n, 1, src, 1, dst, 1)
	}
}

// ScatterGlobalOutputs accumulates the track's internal bus buffer into the
// engine's global output channels per the track's output routes.
func (t *Track) ScatterGlobalOutputs(globalOut []float32, globalChannels, n int) {
	for _, r := range t.OutputRoutes() {
		if r.EngineChannel < 0 || r.EngineChannel >= globalChannels {
			continue
		}
		src := t.internal[r.BusChannel*n : r.BusChannel*n+n]
		dst := globalOut[r.EngineChannel*n : r.EngineChannel*n+n]
		blas.Saxpy(n, 1, src, 1, dst, 1)
	}
}

// ProcessEvent forwards to whichever child the event targets; Track itself
// has no parameters of its own.
func (t *Track) ProcessEvent(e event.RtEvent) {
	for _, c := range t.Children() {
		if c.ID() == e.Target {
			c.ProcessEvent(e)
			return
		}
	}
}

// ProcessAudio runs the track's children in declaration order against the
// already gathered internal bus buffer (t.internal, filled by
// GatherGlobalInputs before this call). The first child to run reads
// t.internal and writes scratchA; after that cur and next ping-pong between
// scratchA and scratchB, and t.internal becomes the alt buffer a
// crossfading child writes its processed output into. No child ever
// aliases its own input and output. The final buffer is copied back into
// t.internal, which ScatterGlobalOutputs then reads.
//
// A child transitioning SET_BYPASS is crossfaded rather than hard-switched:
// each child's BypassManager tracks the child's own Bypassed() flag and, on
// a change, arms the spec.md §4.6 equal-power ramp, blending the child's
// processed output against a passthrough copy into alt/next until the ramp
// completes, at which point the track reverts to the cheap hard-switch path.
func (t *Track) ProcessAudio(_, _ []float32, n int) {
	width := t.busWidth * n
	cur := t.internal[:width]
	next := t.scratchA[:width]
	alt := t.scratchB[:width]

	members := t.members.Load()

	ran := false
	for i, child := range members.children {
		if !child.Enabled() {
			continue
		}
		clear(next)

		switch {
		case child.SoftBypass():
			child.ProcessAudio(cur, next, n)
		default:
			bm := members.bypass[i]
			if bm.Bypassed() != child.Bypassed() {
				bm.SetBypassed(child.Bypassed())
			}
			switch {
			case !bm.Active() && !bm.Bypassed():
				child.ProcessAudio(cur, next, n)
			case !bm.Active() && bm.Bypassed():
				processor.CopyChannels(cur, next, t.busWidth, t.busWidth, n)
			default:
				clear(alt)
				child.ProcessAudio(cur, alt, n)
				bm.Blend(alt, cur, next, t.busWidth, n)
			}
		}

		ran = true
		if ran && &cur[0] == &t.internal[0] {
			// First iteration's output (in scratchA) is the last buffer still
			// aliasing the gathered snapshot; from here on cur and next
			// rotate between scratchA and scratchB, and t.internal is alt.
			cur, next, alt = next, alt, cur
		} else {
			cur, next = next, cur
		}
	}

	if ran {
		copy(t.internal[:width], cur)
	}
}

var _ processor.Processor = (*Track)(nil)
