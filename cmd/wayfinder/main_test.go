package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["export"])
	assert.True(t, names["import"])

	for _, flag := range []string{"config", "prefs", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}

	export, _, err := root.Find([]string{"export"})
	require.NoError(t, err)
	assert.NotNil(t, export.Flags().Lookup("pinned"))
}

func TestImportAcceptsAtMostOneSource(t *testing.T) {
	root := newRootCommand()
	imp, _, err := root.Find([]string{"import"})
	require.NoError(t, err)
	assert.NoError(t, imp.Args(imp, nil))
	assert.NoError(t, imp.Args(imp, []string{"seed.json"}))
	assert.Error(t, imp.Args(imp, []string{"a", "b"}))
}
