// Package discover implements the generic tree-sitter-driven test
// discoverer shared by every language runner: given a parsed source file,
// a grammar, and a capture-tagged query, it walks the query matches and
// produces a nested-namespace TestItem list.
//
// The query is expected to tag four capture names: "namespace.definition"
// / "namespace.name" for describe-blocks, mod blocks, or test classes, and
// "test.definition" / "test.name" for the tests themselves. Namespace ids
// are composed by string concatenation in source order, joined with "::".
package discover

import (
	"fmt"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/wharflab/testingls/internal/spec"
)

// point mirrors tree_sitter.Point but keeps this package's exported
// surface independent of the grammar library's own type names.
type point struct {
	row, column uint32
}

// WithTreeSitter parses filePath's contents with language and evaluates
// query against the resulting tree, producing one TestItem per distinct
// "test.name" capture in source order. Duplicate ids (the same
// namespace/test pair captured twice, e.g. by two alternative query
// branches) are dropped after the first occurrence.
func WithTreeSitter(filePath string, language *tree_sitter.Language, query string) ([]spec.TestItem, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("discover: set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("discover: failed to parse %s", filePath)
	}
	defer tree.Close()

	q, qerr := tree_sitter.NewQuery(language, query)
	if qerr != nil {
		return nil, fmt.Errorf("discover: query: %w", qerr)
	}
	defer q.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(q, tree.RootNode(), source)

	var (
		testItems            []spec.TestItem
		namespaceName         string
		namespaceStack        []struct{ start, end point }
		testIDSeen            = map[string]struct{}{}
	)

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		var testStart, testEnd point

		for _, capture := range m.Captures {
			name := q.CaptureNames()[capture.Index]
			node := capture.Node
			value := string(node.Utf8Text(source))
			start := point{row: node.StartPosition().Row, column: node.StartPosition().Column}
			end := point{row: node.EndPosition().Row, column: node.EndPosition().Column}

			switch name {
			case "namespace.definition":
				// Rust pushes onto the end of a Vec and always inspects
				// index 0 (the first, i.e. outermost, still-open
				// namespace) — appending here preserves that ordering.
				namespaceStack = append(namespaceStack, struct{ start, end point }{start, end})

			case "namespace.name":
				if len(namespaceStack) > 0 {
					ns := namespaceStack[0]
					if start.row >= ns.start.row && end.row <= ns.end.row && namespaceName != "" {
						namespaceName = namespaceName + "::" + value
					} else {
						namespaceName = value
					}
				} else {
					namespaceName = value
				}

			case "test.definition":
				if len(namespaceStack) > 0 {
					ns := namespaceStack[0]
					if start.row < ns.start.row || end.row > ns.end.row {
						namespaceStack = namespaceStack[1:]
						namespaceName = ""
					}
				}
				testStart, testEnd = start, end

			case "test.name":
				testID := value
				if namespaceName != "" {
					testID = namespaceName + "::" + value
				}

				if _, seen := testIDSeen[testID]; seen {
					continue
				}
				testIDSeen[testID] = struct{}{}

				testItems = append(testItems, spec.TestItem{
					Id:   testID,
					Name: testID,
					Path: filePath,
					StartPosition: spec.Range{
						Start: spec.Position{Line: testStart.row, Character: testStart.column},
						End:   spec.Position{Line: testStart.row, Character: spec.MaxCharLength},
					},
					EndPosition: spec.Range{
						Start: spec.Position{Line: testEnd.row, Character: 0},
						End:   spec.Position{Line: testEnd.row, Character: testEnd.column},
					},
				})
				testStart, testEnd = point{}, point{}
			}
		}
	}

	return testItems, nil
}
