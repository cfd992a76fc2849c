package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildrenAddAndGet(t *testing.T) {
	var c Children[Code]

	assert.Nil(t, c.Get("Strategy"))
	assert.Equal(t, 0, c.Len())

	c.Add("Strategy", Code{Value: "Alpha", Active: true})
	c.Add("Strategy", Code{Value: "Beta", Active: true})
	c.Add("Desk", Code{Value: "Rates", Active: true})

	require.Len(t, c.Get("Strategy"), 2)
	assert.Equal(t, "Alpha", c.Get("Strategy")[0].Value)
	assert.Equal(t, "Beta", c.Get("Strategy")[1].Value)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"Desk", "Strategy"}, c.Tags())
}

func TestChildrenRemoveFirstMatchOnly(t *testing.T) {
	var c Children[Comment]
	c.Add("Audit", Comment{Text: "first", Active: true})
	c.Add("Audit", Comment{Text: "dup", Active: true})
	c.Add("Audit", Comment{Text: "dup", Active: true})

	err := c.Remove("Audit", func(cm Comment) bool { return cm.Text == "dup" })
	require.NoError(t, err)

	entries := c.Get("Audit")
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Text)
	assert.Equal(t, "dup", entries[1].Text)
}

func TestChildrenRemoveAbsent(t *testing.T) {
	var c Children[Party]
	c.Add("Broker", Party{PartyID: "BRK1", Active: true})

	err := c.Remove("Broker", func(p Party) bool { return p.PartyID == "BRK9" })
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.Remove("Custodian", func(p Party) bool { return true })
	assert.ErrorIs(t, err, ErrNotFound)

	// The existing entry is untouched by failed removals.
	require.Len(t, c.Get("Broker"), 1)
}

func TestChildrenRemoveLastEntryDropsTag(t *testing.T) {
	var c Children[Reference]
	c.Add("External", Reference{Value: "X-1", Active: true})

	err := c.Remove("External", func(r Reference) bool { return r.Value == "X-1" })
	require.NoError(t, err)
	assert.Empty(t, c.Tags())
	assert.Equal(t, 0, c.Len())
}

func TestChildrenTagNamespacesIndependent(t *testing.T) {
	var c Children[Code]
	c.Add("A", Code{Value: "one"})
	c.Add("B", Code{Value: "one"})

	err := c.Remove("A", func(Code) bool { return true })
	require.NoError(t, err)
	assert.Len(t, c.Get("B"), 1)
}

func TestLinkSetMultiplicity(t *testing.T) {
	var l LinkSet

	// Three links under one tag, including a duplicate pair.
	l.AddLink("Multiple", "T1")
	l.AddLink("Multiple", "T2")
	l.AddLink("Multiple", "T2")
	require.Equal(t, []string{"T1", "T2", "T2"}, l.Linked("Multiple"))

	// Re-adding grows the collection to four.
	l.AddLink("Multiple", "T3")
	require.Len(t, l.Linked("Multiple"), 4)

	// Removing the duplicate pair takes out exactly one entry.
	require.NoError(t, l.RemoveLink("Multiple", "T2"))
	assert.Equal(t, []string{"T1", "T2", "T3"}, l.Linked("Multiple"))
}

func TestLinkSetRemoveAbsent(t *testing.T) {
	var l LinkSet
	l.AddLink("Single", "T1")

	err := l.RemoveLink("Single", "T9")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = l.RemoveLink("Multiple", "T1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLinkSetEqual(t *testing.T) {
	var a, b LinkSet
	a.AddLink("Multiple", "T1")
	a.AddLink("Multiple", "T2")
	b.AddLink("Multiple", "T1")
	b.AddLink("Multiple", "T2")

	assert.True(t, a.Equal(&b))

	// A duplicate pair is a distinct state.
	b.AddLink("Multiple", "T2")
	assert.False(t, a.Equal(&b))
}
