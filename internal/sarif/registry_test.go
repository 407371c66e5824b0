package sarif

import (
	"testing"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleRegistry(t *testing.T) {
	t.Run("first declaration in a run wins", func(t *testing.T) {
		r := NewRuleRegistry()
		assert.True(t, r.Register(&Rule{ID: "R1", ShortDescription: "first", RunIndex: 0}))
		assert.False(t, r.Register(&Rule{ID: "R1", ShortDescription: "second", RunIndex: 0}))

		rule, ok := r.Lookup("R1")
		require.True(t, ok)
		assert.Equal(t, "first", rule.ShortDescription)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("runs keep their own definitions", func(t *testing.T) {
		r := NewRuleRegistry()
		r.Register(&Rule{ID: "R1", ShortDescription: "from run 0", RunIndex: 0})
		r.Register(&Rule{ID: "R1", ShortDescription: "from run 1", RunIndex: 1})

		rule, ok := r.Resolve(1, "R1")
		require.True(t, ok)
		assert.Equal(t, "from run 1", rule.ShortDescription)

		rule, ok = r.Resolve(2, "R1")
		require.True(t, ok)
		assert.Equal(t, "from run 0", rule.ShortDescription)

		merged, _ := r.Lookup("R1")
		assert.Equal(t, "from run 0", merged.ShortDescription)
		assert.Len(t, r.Rules(), 1)
	})

	t.Run("placeholder is upgraded by a declaration", func(t *testing.T) {
		r := NewRuleRegistry()
		placeholder := r.Ensure(0, "Demo", "R9")
		assert.True(t, placeholder.Placeholder)
		assert.Equal(t, "Demo", placeholder.ToolName)
		assert.Same(t, placeholder, r.Ensure(0, "Demo", "R9"))

		assert.True(t, r.Register(&Rule{ID: "R9", ShortDescription: "declared", RunIndex: 1}))
		merged, _ := r.Lookup("R9")
		assert.False(t, merged.Placeholder)
		assert.Equal(t, "declared", merged.ShortDescription)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("rules keep registration order", func(t *testing.T) {
		r := NewRuleRegistry()
		for _, id := range []string{"b", "a", "c"} {
			r.Ensure(0, "", id)
		}
		var ids []string
		for _, rule := range r.Rules() {
			ids = append(ids, rule.ID)
		}
		assert.Equal(t, []string{"b", "a", "c"}, ids)
	})
}

func TestRuleFromDescriptor(t *testing.T) {
	d := sarif.NewRule(" R1 ").
		WithName("Name").
		WithShortDescription(sarif.NewMarkdownMultiformatMessageString("**short**")).
		WithHelpURI("https://example.com/R1").
		WithProperties(sarif.Properties{"tags": []interface{}{"security"}})

	rule := ruleFromDescriptor(d, "Demo", 3)
	assert.Equal(t, "R1", rule.ID)
	assert.Equal(t, "Name", rule.Name)
	assert.Equal(t, "**short**", rule.ShortDescription)
	assert.Equal(t, "https://example.com/R1", rule.HelpURI)
	assert.Equal(t, "Demo", rule.ToolName)
	assert.Equal(t, 3, rule.RunIndex)
	assert.Contains(t, rule.Properties, "tags")
	assert.Equal(t, "**short**", rule.DisplayName())
}

func TestRuleDisplayName(t *testing.T) {
	assert.Equal(t, "", (*Rule)(nil).DisplayName())
	assert.Equal(t, "R1", (&Rule{ID: "R1"}).DisplayName())
	assert.Equal(t, "Name", (&Rule{ID: "R1", Name: "Name"}).DisplayName())
	assert.Equal(t, "Short", (&Rule{ID: "R1", Name: "Name", ShortDescription: "Short"}).DisplayName())
}
