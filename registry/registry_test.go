package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/registry"
)

func TestRegister_DuplicateLabelFails(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	person := &registry.NodeType{Label: "TestPerson"}

	require.NoError(t, reg.Register(person))
	err := reg.Register(&registry.NodeType{Label: "TestPerson"})
	assert.Error(t, err)
}

func TestNodeType_Labels_IncludesInheritanceChainAndRoot(t *testing.T) {
	t.Parallel()

	base := &registry.NodeType{Label: "AstroBody"}
	child := &registry.NodeType{Label: "DwarfPlanet", Inherits: base}

	assert.Equal(t, []string{"DwarfPlanet", "AstroBody", registry.RootLabel}, child.Labels())
	assert.Equal(t, []string{"AstroBody", registry.RootLabel}, base.Labels())
}

func TestForwardRef_ResolvesAfterRegistration(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	ref := reg.ForwardRef("Movie")

	// Before resolution: label reads still work.
	assert.Equal(t, "Movie", ref.RefLabel())

	_, err := ref.Resolve()
	require.Error(t, err)
	var unreg *ogm.UnregisteredTypeError
	assert.ErrorAs(t, err, &unreg)

	require.NoError(t, reg.Register(&registry.NodeType{Label: "Movie"}))

	nt, err := ref.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Movie", nt.Label)
}

func TestForwardRef_ImplementsTypeRef(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	var _ registry.TypeRef = reg.ForwardRef("X")
	var _ registry.TypeRef = &registry.NodeType{Label: "X"}
}
