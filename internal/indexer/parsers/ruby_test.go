package parsers

import (
	"testing"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the Ruby catalog:
// - Modules are namespaces scoping their classes and methods
// - Classes carry their superclass and instance and singleton methods
// - Methods without parentheses render "()"
// - Methods outside classes are functions
// - require, require_relative and load are imports; other calls are not

const rubySample = `require 'json'
require_relative "lib/util"
puts "hello"

module Billing
  class Invoice < Base
    def total(tax = 0)
    end

    def self.build
    end
  end

  def helper
  end
end

def top(a, b)
end
`

func TestRubyCatalog_Declarations(t *testing.T) {
	t.Parallel()

	result := extractSource(t, grammar.Ruby, rubySample)

	invoice := findRecord(t, result.Records(extraction.KindClass), "Invoice")
	assert.Equal(t, []string{"Base"}, invoice.Bases)
	assert.Equal(t, []string{"total(tax = 0)", "build()"}, invoice.Methods)
	assert.Equal(t, "Billing", invoice.Scope)
	assert.Equal(t, 6, invoice.Line)

	functions := result.Records(extraction.KindFunction)
	assert.Equal(t, []string{"helper()", "top(a, b)"}, signatures(functions))
	assert.Equal(t, "Billing", functions[0].Scope)
	assert.Empty(t, functions[1].Scope)

	assert.Equal(t, []string{"Billing"}, recordNames(result.Records(extraction.KindNamespace)))
}

func TestRubyCatalog_Imports(t *testing.T) {
	t.Parallel()

	result := extractImports(t, grammar.Ruby, rubySample)
	imports := result.Records(extraction.KindImport)
	require.Len(t, imports, 2)

	assert.Equal(t, "json", imports[0].Source)
	assert.Equal(t, "lib/util", imports[1].Source)
	assert.Equal(t, []string{"*"}, imports[1].ImportedItems)
}
