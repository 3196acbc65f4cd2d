package discover

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// Go returns the tree-sitter grammar for Go source.
func Go() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_go.Language())
}

// JavaScript returns the tree-sitter grammar shared by the jest, vitest,
// deno, and node:test runners (all four frameworks are authored in
// JavaScript/TypeScript superset syntax the JS grammar parses well
// enough for call-expression-shaped test declarations).
func JavaScript() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
}

// Rust returns the tree-sitter grammar for the cargo-test/cargo-nextest
// runners.
func Rust() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_rust.Language())
}

// PHP returns the tree-sitter grammar for the phpunit runner.
func PHP() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
}
