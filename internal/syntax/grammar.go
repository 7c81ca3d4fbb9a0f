package syntax

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrSyntax is returned when source text cannot be parsed into an error-free tree
var ErrSyntax = errors.New("source does not parse")

// Grammar couples a tree-sitter language with the declaration profile used to
// recognise functions and decorators in its trees.
type Grammar struct {
	name       string
	language   *sitter.Language
	extensions []string
	profile    Profile
}

func NewGrammar(name string, language *sitter.Language, profile Profile, extensions ...string) *Grammar {
	return &Grammar{
		name:       name,
		language:   language,
		extensions: extensions,
		profile:    profile,
	}
}

func (g *Grammar) Language() string {
	return g.name
}

func (g *Grammar) SupportedExtensions() []string {
	return g.extensions
}

func (g *Grammar) Profile() Profile {
	return g.profile
}

// Parse parses src and hands the root to fn. Nodes are only valid while fn runs;
// the tree is released when Parse returns. A parser is created per call, so Parse
// is safe for concurrent use.
func (g *Grammar) Parse(src []byte, fn func(root Node)) error {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(g.language); err != nil {
		return fmt.Errorf("failed to set language for %s parser: %w", g.name, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return fmt.Errorf("%w: %s parser returned nil tree", ErrSyntax, g.name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("%w: %s tree has no root", ErrSyntax, g.name)
	}
	if root.HasError() {
		return fmt.Errorf("%w: %s source contains syntax errors", ErrSyntax, g.name)
	}

	fn(sitterNode{node: root, src: src})
	return nil
}

type sitterNode struct {
	node *sitter.Node
	src  []byte
}

func (n sitterNode) Kind() string {
	return n.node.Kind()
}

func (n sitterNode) Text() string {
	return n.node.Utf8Text(n.src)
}

func (n sitterNode) Field(name string) Node {
	child := n.node.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return sitterNode{node: child, src: n.src}
}

func (n sitterNode) Children() []Node {
	count := n.node.ChildCount()
	children := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := n.node.Child(i); child != nil {
			children = append(children, sitterNode{node: child, src: n.src})
		}
	}
	return children
}
