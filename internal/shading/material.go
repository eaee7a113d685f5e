// Package shading models materials as small node graphs and binds texture
// images into them.
package shading

import (
	"fmt"

	"github.com/Faultbox/autotex/internal/assets"
)

// NodeKind identifies the type of a shader node.
type NodeKind int

const (
	NodeMaterialOutput NodeKind = iota
	NodePrincipledBSDF
	NodeImageTexture
)

// String returns the node type name.
func (k NodeKind) String() string {
	switch k {
	case NodeMaterialOutput:
		return "MaterialOutput"
	case NodePrincipledBSDF:
		return "PrincipledBSDF"
	case NodeImageTexture:
		return "ImageTexture"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Socket names used by the binder.
const (
	SocketBSDF      = "BSDF"
	SocketSurface   = "Surface"
	SocketColor     = "Color"
	SocketBaseColor = "Base Color"
)

// Node is one shader node. Image is set only for NodeImageTexture.
type Node struct {
	ID    int
	Kind  NodeKind
	Image *assets.Image
}

// Link connects an output socket of one node to an input socket of another.
type Link struct {
	From       int
	FromSocket string
	To         int
	ToSocket   string
}

// Material is a named slot on the mesh with its shader graph.
type Material struct {
	Name  string
	Index int

	nodes  []*Node
	links  []Link
	nextID int
}

// Clear removes all nodes and links.
func (m *Material) Clear() {
	m.nodes = nil
	m.links = nil
}

// AddNode appends a node of the given kind and returns it.
func (m *Material) AddNode(kind NodeKind) *Node {
	n := &Node{ID: m.nextID, Kind: kind}
	m.nextID++
	m.nodes = append(m.nodes, n)
	return n
}

// Connect links from.fromSocket to to.toSocket. An existing link into the
// same input is replaced.
func (m *Material) Connect(from *Node, fromSocket string, to *Node, toSocket string) {
	for i, l := range m.links {
		if l.To == to.ID && l.ToSocket == toSocket {
			m.links = append(m.links[:i], m.links[i+1:]...)
			break
		}
	}
	m.links = append(m.links, Link{From: from.ID, FromSocket: fromSocket, To: to.ID, ToSocket: toSocket})
}

// Nodes returns the graph nodes in creation order.
func (m *Material) Nodes() []*Node {
	return m.nodes
}

// Links returns the graph links.
func (m *Material) Links() []Link {
	return m.links
}

func (m *Material) node(id int) *Node {
	for _, n := range m.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// input returns the node linked into to.socket, if any.
func (m *Material) input(to *Node, socket string) *Node {
	for _, l := range m.links {
		if l.To == to.ID && l.ToSocket == socket {
			return m.node(l.From)
		}
	}
	return nil
}

// Output returns the material output node.
func (m *Material) Output() *Node {
	for _, n := range m.nodes {
		if n.Kind == NodeMaterialOutput {
			return n
		}
	}
	return nil
}

// BaseColorImage follows Output.Surface → BSDF.Base Color and returns the
// image found there, or nil when no texture is bound.
func (m *Material) BaseColorImage() *assets.Image {
	out := m.Output()
	if out == nil {
		return nil
	}
	bsdf := m.input(out, SocketSurface)
	if bsdf == nil || bsdf.Kind != NodePrincipledBSDF {
		return nil
	}
	tex := m.input(bsdf, SocketBaseColor)
	if tex == nil || tex.Kind != NodeImageTexture {
		return nil
	}
	return tex.Image
}

// System owns the material slots of one scene. It is not safe for
// concurrent use.
type System struct {
	materials []*Material
	binder    *Binder
}

// NewSystem creates an empty shading system binding images from src.
func NewSystem(src ImageSource) *System {
	return &System{binder: NewBinder(src)}
}

// CreateMaterial adds a material slot and returns its index. Creating a
// name that already exists returns the existing slot.
func (s *System) CreateMaterial(name string) (int, error) {
	if name == "" {
		return -1, fmt.Errorf("material name is empty")
	}

	for _, m := range s.materials {
		if m.Name == name {
			return m.Index, nil
		}
	}

	m := &Material{Name: name, Index: len(s.materials)}
	s.materials = append(s.materials, m)
	return m.Index, nil
}

// Material returns the material at index, or nil.
func (s *System) Material(index int) *Material {
	if index < 0 || index >= len(s.materials) {
		return nil
	}
	return s.materials[index]
}

// Materials returns all material slots in index order.
func (s *System) Materials() []*Material {
	out := make([]*Material, len(s.materials))
	copy(out, s.materials)
	return out
}

// Bind binds the texture at textureRef to the material at index.
func (s *System) Bind(index int, textureRef string) error {
	m := s.Material(index)
	if m == nil {
		return fmt.Errorf("bind: no material at index %d", index)
	}
	return s.binder.Bind(m, textureRef)
}
