package closureme_test

import (
	"testing"

	"github.com/closureme/closureme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadType_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		typ   closureme.DownloadType
		valid bool
	}{
		{name: "image is valid", typ: closureme.DownloadImage, valid: true},
		{name: "appearance is valid", typ: closureme.DownloadAppearance, valid: true},
		{name: "memory is valid", typ: closureme.DownloadMemory, valid: true},
		{name: "all is valid", typ: closureme.DownloadAll, valid: true},
		{name: "empty is invalid", typ: "", valid: false},
		{name: "uppercase is invalid", typ: "ALL", valid: false},
		{name: "voice is invalid", typ: "voice", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.IsValid())
		})
	}
}

func TestParseDownloadType(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		typ, err := closureme.ParseDownloadType("memory")
		require.NoError(t, err)
		assert.Equal(t, closureme.DownloadMemory, typ)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := closureme.ParseDownloadType("everything")
		require.ErrorIs(t, err, closureme.ErrInvalidInput)
		assert.Contains(t, err.Error(), "everything")
	})
}

func TestDownloadType_Includes(t *testing.T) {
	for _, kind := range closureme.ArtifactKinds {
		assert.True(t, closureme.DownloadAll.Includes(kind), "all includes %s", kind)
	}

	assert.True(t, closureme.DownloadImage.Includes(closureme.ArtifactImage))
	assert.False(t, closureme.DownloadImage.Includes(closureme.ArtifactMemory))
	assert.True(t, closureme.DownloadAppearance.Includes(closureme.ArtifactAppearance))
	assert.False(t, closureme.DownloadAppearance.Includes(closureme.ArtifactImage))
	assert.True(t, closureme.DownloadMemory.Includes(closureme.ArtifactMemory))
}

func TestCharacterRecord_Path(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("present and absent", func(t *testing.T) {
		rec := closureme.CharacterRecord{
			ImagePath:      nil,
			AppearancePath: str("/x"),
			MemoryPath:     str(""),
		}

		_, ok := rec.Path(closureme.ArtifactImage)
		assert.False(t, ok)

		p, ok := rec.Path(closureme.ArtifactAppearance)
		assert.True(t, ok)
		assert.Equal(t, "/x", p)

		_, ok = rec.Path(closureme.ArtifactMemory)
		assert.False(t, ok, "empty path counts as absent")
	})

	t.Run("profile path stands in for appearance", func(t *testing.T) {
		rec := closureme.CharacterRecord{ProfilePath: str("/uploads/hero_profile.txt")}

		p, ok := rec.Path(closureme.ArtifactAppearance)
		assert.True(t, ok)
		assert.Equal(t, "/uploads/hero_profile.txt", p)
	})

	t.Run("appearance wins over profile", func(t *testing.T) {
		rec := closureme.CharacterRecord{
			AppearancePath: str("/a"),
			ProfilePath:    str("/p"),
		}

		p, _ := rec.Path(closureme.ArtifactAppearance)
		assert.Equal(t, "/a", p)
	})
}

func TestTransferStatus_IsValid(t *testing.T) {
	assert.True(t, closureme.TransferDone.IsValid())
	assert.True(t, closureme.TransferSkipped.IsValid())
	assert.True(t, closureme.TransferFailed.IsValid())
	assert.False(t, closureme.TransferStatus("pending").IsValid())
}
