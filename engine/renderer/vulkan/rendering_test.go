package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderingInfoWithDepth(t *testing.T) {
	color := &imageView{}
	depth := &imageView{}
	info := newRenderingInfo(&driver.RenderingInfo{
		Area: driver.Rect2D{Extent: driver.Extent2D{Width: 800, Height: 600}},
		Color: []driver.Attachment{{
			View:   color,
			Layout: driver.ImageLayoutColorAttachmentOptimal,
			Load:   driver.LoadOpClear,
			Store:  driver.StoreOpStore,
		}},
		Depth: &driver.Attachment{
			View:   depth,
			Layout: driver.ImageLayoutDepthStencilAttachmentOptimal,
			Load:   driver.LoadOpClear,
			Store:  driver.StoreOpDontCare,
			Clear:  driver.ClearValue{Depth: 1},
		},
	})

	assert.Equal(t, vk.StructureTypeRenderingInfo, info.SType)
	assert.Equal(t, uint32(1), info.LayerCount)
	assert.Equal(t, uint32(800), info.RenderArea.Extent.Width)
	assert.Equal(t, uint32(600), info.RenderArea.Extent.Height)
	require.Len(t, info.PColorAttachments, 1)
	assert.Equal(t, uint32(1), info.ColorAttachmentCount)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, info.PColorAttachments[0].ImageLayout)

	require.Len(t, info.PDepthAttachment, 1)
	assert.Equal(t, vk.StructureTypeRenderingAttachmentInfo, info.PDepthAttachment[0].SType)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, info.PDepthAttachment[0].ImageLayout)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, info.PDepthAttachment[0].StoreOp)
	assert.Empty(t, info.PStencilAttachment)
}

func TestNewRenderingInfoWithoutDepth(t *testing.T) {
	info := newRenderingInfo(&driver.RenderingInfo{
		Color: []driver.Attachment{{View: &imageView{}}},
	})
	assert.Empty(t, info.PDepthAttachment)
	assert.Len(t, info.PColorAttachments, 1)
}

func TestRenderingProcNames(t *testing.T) {
	assert.Equal(t, []string{"vkCmdBeginRendering", "vkCmdBeginRenderingKHR"}, beginRenderingNames)
	assert.Equal(t, []string{"vkCmdEndRendering", "vkCmdEndRenderingKHR"}, endRenderingNames)
}

func TestLoadRenderingProcsWithoutLoader(t *testing.T) {
	_, err := loadRenderingProcs(nil, nil, nil)
	assert.ErrorContains(t, err, "vkGetInstanceProcAddr")
}
