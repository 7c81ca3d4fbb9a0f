package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Profile tells the syntactic tier which node kinds declare functions or carry
// decorators in one grammar, and how to read their names.
type Profile struct {
	FunctionKinds  map[string]bool
	DecoratorKinds map[string]bool
	FunctionName   func(Node) string
	DecoratorName  func(Node) string
}

func (p Profile) IsFunction(n Node) bool {
	return p.FunctionKinds[n.Kind()]
}

func (p Profile) IsDecorator(n Node) bool {
	return p.DecoratorKinds[n.Kind()]
}

func kinds(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

func nameField(n Node) string {
	if name := n.Field("name"); name != nil {
		return strings.TrimSpace(name.Text())
	}
	return ""
}

// declaratorName follows C's nested declarator fields (pointer, function, parenthesized)
// down to the identifier.
func declaratorName(n Node) string {
	current := n.Field("declarator")
	for current != nil {
		switch current.Kind() {
		case "identifier", "field_identifier":
			return strings.TrimSpace(current.Text())
		}
		current = current.Field("declarator")
	}
	return ""
}

// expressionName reads a decorator's expression: "@Controller('users')" yields
// "Controller", "@app.route('/')" yields "app.route".
func expressionName(n Node) string {
	for _, child := range n.Children() {
		if child.Kind() == "@" {
			continue
		}
		text := strings.TrimPrefix(strings.TrimSpace(child.Text()), "@")
		if i := strings.IndexAny(text, "(<"); i >= 0 {
			text = text[:i]
		}
		return strings.TrimSpace(text)
	}
	return ""
}

var typeScriptProfile = Profile{
	FunctionKinds:  kinds("function_declaration", "generator_function_declaration", "method_definition"),
	DecoratorKinds: kinds("decorator"),
	FunctionName:   nameField,
	DecoratorName:  expressionName,
}

var goProfile = Profile{
	FunctionKinds:  kinds("function_declaration", "method_declaration"),
	DecoratorKinds: kinds(),
	FunctionName:   nameField,
	DecoratorName:  expressionName,
}

var javaProfile = Profile{
	FunctionKinds:  kinds("method_declaration", "constructor_declaration"),
	DecoratorKinds: kinds("annotation", "marker_annotation"),
	FunctionName:   nameField,
	DecoratorName:  nameField,
}

var pythonProfile = Profile{
	FunctionKinds:  kinds("function_definition"),
	DecoratorKinds: kinds("decorator"),
	FunctionName:   nameField,
	DecoratorName:  expressionName,
}

var cProfile = Profile{
	FunctionKinds:  kinds("function_definition"),
	DecoratorKinds: kinds(),
	FunctionName:   declaratorName,
	DecoratorName:  expressionName,
}

func NewTypeScriptGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	return NewGrammar("TypeScript", lang, typeScriptProfile, ".ts")
}

func NewTSXGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	// JavaScript files may contain JSX
	return NewGrammar("TSX", lang, typeScriptProfile, ".tsx", ".jsx", ".js", ".mjs", ".cjs")
}

func NewGoGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_go.Language())
	return NewGrammar("Go", lang, goProfile, ".go")
}

func NewJavaGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	return NewGrammar("Java", lang, javaProfile, ".java")
}

func NewPythonGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return NewGrammar("Python", lang, pythonProfile, ".py")
}

func NewCGrammar() *Grammar {
	lang := sitter.NewLanguage(tree_sitter_c.Language())
	return NewGrammar("C", lang, cProfile, ".c", ".h")
}
