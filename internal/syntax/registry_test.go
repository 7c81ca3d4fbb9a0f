package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_GrammarFor(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		path     string
		expected string
	}{
		{"src/services/order.ts", "TypeScript"},
		{"src/legacy/util.js", "TSX"},
		{"scripts/build.mjs", "TSX"},
		{"web/OrderRow.tsx", "TSX"},
		{"web/OrderRow.JSX", "TSX"},
		{"internal/orders/service.go", "Go"},
		{"src/main/java/OrderService.java", "Java"},
		{"app/views.py", "Python"},
		{"lib/calc.c", "C"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g := registry.GrammarFor(tt.path)
			if assert.NotNil(t, g) {
				assert.Equal(t, tt.expected, g.Language())
			}
		})
	}

	assert.Nil(t, registry.GrammarFor("lib/order.rb"))
	assert.Nil(t, registry.GrammarFor("README.md"))
}

func TestRegistry_IsSourceFile(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"typescript", "src/services/order.ts", true},
		{"ruby without grammar", "app/models/order.rb", true},
		{"markdown", "README.md", false},
		{"json", "package.json", false},
		{"shell", "scripts/deploy.sh", false},
		{"vendored", "node_modules/lodash/index.js", false},
		{"declaration file", "types/index.d.ts", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, registry.IsSourceFile(tt.path))
		})
	}
}

func TestRegistry_SupportedLanguages(t *testing.T) {
	languages := NewRegistry().SupportedLanguages()
	assert.ElementsMatch(t, []string{"TypeScript", "TSX", "Go", "Java", "Python", "C"}, languages)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "typescript", LanguageName("src/a.ts"))
	assert.Equal(t, "go", LanguageName("main.go"))
	assert.Equal(t, "python", LanguageName("app/views.py"))
}
