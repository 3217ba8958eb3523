package transform

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type link struct {
	parent   FrameName
	toParent Affine3
}

// Manager keeps a tree of named frames, each linked to its parent by a
// transform, and resolves transformations between any two of them.
type Manager struct {
	links map[FrameName]link
	order []FrameName
}

// NewManager returns an empty frame tree.
func NewManager() *Manager {
	return &Manager{links: make(map[FrameName]link)}
}

// Add links frame child to parent. toParent maps child coordinates into
// parent coordinates.
func (m *Manager) Add(child, parent FrameName, toParent Affine3) error {
	if child == parent {
		return fmt.Errorf("frame %s cannot be its own parent", child)
	}
	if _, ok := m.links[child]; ok {
		return fmt.Errorf("frame %s already linked", child)
	}
	m.links[child] = link{parent: parent, toParent: toParent}
	m.order = append(m.order, child)
	return nil
}

// MustAdd is like Add but panics on a self link or a frame linked twice.
// It is meant for chains whose frames are fixed at compile time.
func (m *Manager) MustAdd(child, parent FrameName, toParent Affine3) *Manager {
	if err := m.Add(child, parent, toParent); err != nil {
		panic(err)
	}
	return m
}

// Frames lists the linked frames in insertion order.
func (m *Manager) Frames() []FrameName {
	out := make([]FrameName, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager) known(name FrameName) bool {
	if _, ok := m.links[name]; ok {
		return true
	}
	for _, l := range m.links {
		if l.parent == name {
			return true
		}
	}
	return false
}

// toRoot returns the transform from name into the root of its tree.
func (m *Manager) toRoot(name FrameName) (Affine3, FrameName) {
	t := Identity3()
	cur := name
	for {
		l, ok := m.links[cur]
		if !ok {
			return t, cur
		}
		t = t.Then(l.toParent)
		cur = l.parent
	}
}

// Transformation returns the transform mapping from-coordinates to
// to-coordinates.
func (m *Manager) Transformation(from, to FrameName) (Affine3, error) {
	if !m.known(from) || !m.known(to) {
		return Affine3{}, fmt.Errorf("%w: %s to %s", ErrUnsupportedFrame, from, to)
	}
	if from == to {
		return Identity3(), nil
	}
	fromRoot, rootA := m.toRoot(from)
	toRoot, rootB := m.toRoot(to)
	if rootA != rootB {
		return Affine3{}, fmt.Errorf("%w: %s and %s are not connected", ErrUnsupportedFrame, from, to)
	}
	inv, err := toRoot.Inverse()
	if err != nil {
		return Affine3{}, err
	}
	return fromRoot.Then(inv), nil
}

// Transform moves the point p from one frame to another.
func (m *Manager) Transform(p r3.Vec, from, to FrameName) (r3.Vec, error) {
	t, err := m.Transformation(from, to)
	if err != nil {
		return r3.Vec{}, err
	}
	return t.Apply(p), nil
}

func (m *Manager) String() string {
	parts := make([]string, 0, len(m.order))
	for _, name := range m.order {
		parts = append(parts, fmt.Sprintf("%s->%s", name, m.links[name].parent))
	}
	return "Manager(" + strings.Join(parts, ", ") + ")"
}
