package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/statekernel/internal/primitives"
)

const tabsYAML = `
test-vectors:
  - scenario: "select second tab"
    given:
      state: idle
      context: { selectedId: "tab-0", count: 2 }
    when: select_tab
    payload: { id: "tab-1", index: 1 }
    then:
      state: idle
      context: { selectedId: "tab-1" }
  - scenario: "documented only"
    given:
      state: idle
    then:
      state: idle
  - scenario: "focus"
    given:
      state: idle
    when: " focus "
    then:
      state: focused
      context: {}
`

func TestParseYAMLVectors(t *testing.T) {
	got, err := ParseYAMLVectors([]byte(tabsYAML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	sc := got[0]
	assert.Equal(t, "select second tab", sc.Name)
	assert.Equal(t, SourceYAML, sc.Source)
	require.Len(t, sc.Steps, 1)

	step := sc.Steps[0]
	assert.Equal(t, "SELECT_TAB", step.Event)
	assert.Equal(t, map[string]any{"id": "tab-1", "index": 1.0}, step.Payload)
	assert.Equal(t, primitives.Context{"selectedId": "tab-0", "count": 2.0}, step.Before.Context)
	assert.Equal(t, "idle", step.After.State)

	focus := got[1].Steps[0]
	assert.Equal(t, "FOCUS", focus.Event)
	assert.Nil(t, focus.Before.Context)
	assert.Equal(t, primitives.Context{}, focus.After.Context)
	assert.Nil(t, focus.Payload)
}

func TestParseYAMLVectorsWrappers(t *testing.T) {
	item := `
  - scenario: "open"
    given: { state: closed }
    when: open
    then: { state: open, context: {} }
`
	for _, doc := range []string{
		item,
		"test_vectors:" + item,
		"vectors:" + item,
		"scenarios:" + item,
		"title: dialog\ntest-vectors:" + item,
	} {
		got, err := ParseYAMLVectors([]byte(doc))
		require.NoError(t, err, doc)
		require.Len(t, got, 1, doc)
		assert.Equal(t, "OPEN", got[0].Steps[0].Event)
	}
}

func TestParseYAMLVectorsErrors(t *testing.T) {
	_, err := ParseYAMLVectors([]byte("title: nothing here\n"))
	assert.ErrorIs(t, err, ErrInvalidVectors)

	_, err = ParseYAMLVectors([]byte("- scenario: x\n  when: open\n  then: { state: open }\n"))
	assert.ErrorIs(t, err, ErrInvalidVectors)
	assert.Contains(t, err.Error(), `"x"`)

	_, err = ParseYAMLVectors([]byte("- scenario: y\n  given: { state: closed }\n  when: open\n  then: { state: open }\n"))
	assert.ErrorIs(t, err, ErrInvalidVectors)
	assert.Contains(t, err.Error(), "then.context is required")

	_, err = ParseYAMLVectors([]byte("- [unterminated"))
	assert.Error(t, err)

	got, err := ParseYAMLVectors(nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractTestVectors(t *testing.T) {
	md := "# Toggle\n\nSome prose.\n\n```yaml\nnot: this\n```\n\n```test-vectors\n- scenario: a\n  when: toggle\n```\n\n```test-vectors\n- scenario: b\n```\n"
	got, ok := ExtractTestVectors(md)
	require.True(t, ok)
	assert.Equal(t, "- scenario: a\n  when: toggle", got)

	_, ok = ExtractTestVectors("# No vectors\n")
	assert.False(t, ok)

	_, ok = ExtractTestVectors("```test-vectors\n- scenario: a\n")
	assert.False(t, ok)
}
