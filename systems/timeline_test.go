package systems

import (
	"testing"

	"github.com/hatoba/efkstage/tags"
	"github.com/solarlune/resolv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorAtFindsBoxUnderPoint(t *testing.T) {
	space := resolv.NewSpace(320, 320, 16, 16)
	hero := resolv.NewObject(40, 40, 24, 24, tags.ResolvAnchor)
	sidekick := resolv.NewObject(200, 40, 24, 24, tags.ResolvAnchor)
	space.Add(hero)
	space.Add(sidekick)

	hit := anchorAt(space, 50, 50)
	require.NotNil(t, hit)
	assert.Same(t, hero, hit)

	hit = anchorAt(space, 210, 60)
	require.NotNil(t, hit)
	assert.Same(t, sidekick, hit)
}

func TestAnchorAtMissesOutsideEveryBox(t *testing.T) {
	space := resolv.NewSpace(320, 320, 16, 16)
	space.Add(resolv.NewObject(40, 40, 24, 24, tags.ResolvAnchor))

	assert.Nil(t, anchorAt(space, 150, 150))
}

func TestAnchorAtNeedsContainmentNotJustSharedCell(t *testing.T) {
	space := resolv.NewSpace(320, 320, 16, 16)
	space.Add(resolv.NewObject(40, 40, 24, 24, tags.ResolvAnchor))

	// Same 16px cell as the box corner, but outside the box itself.
	assert.Nil(t, anchorAt(space, 33, 33))
}

func TestAnchorAtIgnoresUntaggedObjects(t *testing.T) {
	space := resolv.NewSpace(320, 320, 16, 16)
	space.Add(resolv.NewObject(40, 40, 24, 24))

	assert.Nil(t, anchorAt(space, 50, 50))
}

func TestAnchorAtLeavesSpaceUnchanged(t *testing.T) {
	space := resolv.NewSpace(320, 320, 16, 16)
	anchor := resolv.NewObject(40, 40, 24, 24, tags.ResolvAnchor)
	space.Add(anchor)

	_ = anchorAt(space, 50, 50)
	_ = anchorAt(space, 150, 150)

	objs := space.Objects()
	require.Len(t, objs, 1)
	assert.Same(t, anchor, objs[0])
}
