package geometry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Element is a node of the parsed geometry document. Attributes keep their
// document order since Bounds and Wires are read positionally.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element

	parent *Element
}

// Parent returns the enclosing element, or nil for the document root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Attr returns the trimmed value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value), true
		}
	}
	return "", false
}

// IntAttr parses the named attribute as an integer.
func (e *Element) IntAttr(name string) (int, error) {
	v, ok := e.Attr(name)
	if !ok {
		return 0, fmt.Errorf("%w: attribute %q on <%s>", ErrNotFound, name, e.Name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("attribute %q on <%s>: %w", name, e.Name, err)
	}
	return n, nil
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find returns the first descendant with the given name in document order.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant with the given name in document order.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el != e && el.Name == name {
			out = append(out, el)
		}
	})
	return out
}

// FindWhere returns the first descendant named name whose attribute attr
// equals value.
func (e *Element) FindWhere(name, attr, value string) *Element {
	for _, el := range e.FindAll(name) {
		if v, ok := el.Attr(attr); ok && v == value {
			return el
		}
	}
	return nil
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.walk(fn)
	}
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

func parseTriple(s string) (r3.Vec, error) {
	found := numberPattern.FindAllString(s, -1)
	if len(found) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 coordinates in %q, found %d", s, len(found))
	}
	var v [3]float64
	for i, f := range found {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("coordinate %q: %w", f, err)
		}
		v[i] = x
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Vector reads a position-like property (GlobalPosition, LocalPosition,
// NormalVector). The child element text wins over an attribute of the same
// name.
func (e *Element) Vector(name string) (r3.Vec, error) {
	if c := e.Child(name); c != nil {
		return parseTriple(c.Text)
	}
	if v, ok := e.Attr(name); ok {
		return parseTriple(v)
	}
	return r3.Vec{}, fmt.Errorf("%w: %s of <%s>", ErrNotFound, name, e.Name)
}

func positionalFloats(el *Element, n int) ([]float64, error) {
	if len(el.Attrs) < n {
		return nil, fmt.Errorf("<%s> has %d attributes, want at least %d", el.Name, len(el.Attrs), n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(el.Attrs[i].Value), 64)
		if err != nil {
			return nil, fmt.Errorf("<%s> attribute %s: %w", el.Name, el.Attrs[i].Name.Local, err)
		}
		out[i] = f
	}
	return out, nil
}

// Bounds reads the Bounds child; its first three attributes are width,
// height and length.
func (e *Element) Bounds() (Bounds, error) {
	b := e.Child("Bounds")
	if b == nil {
		return Bounds{}, fmt.Errorf("%w: Bounds of <%s>", ErrNotFound, e.Name)
	}
	v, err := positionalFloats(b, 3)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Width: v[0], Height: v[1], Length: v[2]}, nil
}

func (e *Element) wires() (*Element, error) {
	w := e.Find("Wires")
	if w == nil {
		return nil, fmt.Errorf("%w: Wires of <%s>", ErrNotFound, e.Name)
	}
	return w, nil
}

// WiresSize reads the first three Wires attributes as a size.
func (e *Element) WiresSize() (Bounds, error) {
	w, err := e.wires()
	if err != nil {
		return Bounds{}, err
	}
	v, err := positionalFloats(w, 3)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Width: v[0], Height: v[1], Length: v[2]}, nil
}

// WiresRange reads the first and last wire numbers, the fourth and fifth
// Wires attributes.
func (e *Element) WiresRange() (first, last int, err error) {
	w, err := e.wires()
	if err != nil {
		return 0, 0, err
	}
	if len(w.Attrs) < 5 {
		return 0, 0, fmt.Errorf("<Wires> of <%s> has %d attributes, want 5", e.Name, len(w.Attrs))
	}
	first, err = strconv.Atoi(strings.TrimSpace(w.Attrs[3].Value))
	if err != nil {
		return 0, 0, fmt.Errorf("first wire: %w", err)
	}
	last, err = strconv.Atoi(strings.TrimSpace(w.Attrs[4].Value))
	if err != nil {
		return 0, 0, fmt.Errorf("last wire: %w", err)
	}
	if last < first {
		return 0, 0, fmt.Errorf("wire range %d..%d of <%s> is empty", first, last, e.Name)
	}
	return first, last, nil
}

// Topology holds the drift cell dimensions.
type Topology struct {
	CellWidth  float64
	CellHeight float64
	CellLength float64
}

func (e *Element) topology() (Topology, error) {
	read := func(name string) (float64, error) {
		c := e.Find(name)
		if c == nil {
			return 0, fmt.Errorf("%w: Topology %s", ErrNotFound, name)
		}
		return strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	}
	var t Topology
	var err error
	if t.CellWidth, err = read("cellWidth"); err != nil {
		return Topology{}, err
	}
	if t.CellHeight, err = read("cellHeight"); err != nil {
		return Topology{}, err
	}
	if t.CellLength, err = read("cellLength"); err != nil {
		return Topology{}, err
	}
	return t, nil
}

func parseElements(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode geometry xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if n := len(stack); n > 0 {
				el.parent = stack[n-1]
				el.parent.Children = append(el.parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if n := len(stack); n > 0 {
				stack[n-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("geometry xml has no root element")
	}
	root.walk(func(el *Element) {
		el.Text = strings.TrimSpace(el.Text)
	})
	return root, nil
}
