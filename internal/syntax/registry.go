package syntax

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

type Registry struct {
	grammars map[string]*Grammar
}

// NewRegistry returns a registry with every bundled grammar registered
func NewRegistry() *Registry {
	registry := NewEmptyRegistry()
	registry.Register(NewTypeScriptGrammar())
	registry.Register(NewTSXGrammar())
	registry.Register(NewGoGrammar())
	registry.Register(NewJavaGrammar())
	registry.Register(NewPythonGrammar())
	registry.Register(NewCGrammar())
	return registry
}

func NewEmptyRegistry() *Registry {
	return &Registry{
		grammars: make(map[string]*Grammar),
	}
}

// Register maps every extension of g to g, replacing earlier registrations
func (r *Registry) Register(g *Grammar) {
	for _, ext := range g.SupportedExtensions() {
		r.grammars[strings.ToLower(ext)] = g
	}
}

// GrammarFor returns the grammar for filePath, or nil when none is registered
func (r *Registry) GrammarFor(filePath string) *Grammar {
	ext := strings.ToLower(filepath.Ext(filePath))
	return r.grammars[ext]
}

func (r *Registry) SupportedLanguages() []string {
	seen := make(map[string]bool)
	var languages []string
	for _, g := range r.grammars {
		if !seen[g.Language()] {
			seen[g.Language()] = true
			languages = append(languages, g.Language())
		}
	}
	return languages
}

// IsKnownLanguage reports whether filePath has a source-code extension. Files in
// languages without a grammar still count; the classifier degrades to lexical
// matching for them.
func (r *Registry) IsKnownLanguage(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	if _, ok := r.grammars[ext]; ok {
		return true
	}

	switch ext {
	case ".sh", ".bash", ".zsh", ".fish", ".ps1", ".bat", ".cmd":
		return false
	case ".go", ".java", ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".py", ".rb", ".php",
		".cs", ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".rs", ".kt",
		".scala", ".swift":
		return true
	default:
		return false
	}
}

// IsSourceFile is the change source filter: source-code extensions only, minus
// vendored code, documentation trees and TypeScript declaration files.
func (r *Registry) IsSourceFile(filePath string) bool {
	if filePath == "" {
		return false
	}
	if strings.HasSuffix(strings.ToLower(filePath), ".d.ts") {
		return false
	}
	if enry.IsVendor(filePath) || enry.IsDocumentation(filePath) {
		return false
	}
	return r.IsKnownLanguage(filePath)
}

var fenceLanguages = map[string]string{
	".go":    "go",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".jsx":   "jsx",
	".tsx":   "tsx",
	".py":    "python",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".rb":    "ruby",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
}

// LanguageName returns a code-fence language identifier for filePath
func LanguageName(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if lang, ok := fenceLanguages[ext]; ok {
		return lang
	}
	if lang := enry.GetLanguage(filepath.Base(filePath), nil); lang != "" {
		return strings.ToLower(lang)
	}
	return ""
}
