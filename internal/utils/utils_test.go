package utils_test

import (
	"testing"

	"socialnotes/internal/utils"

	"github.com/stretchr/testify/require"
)

func TestFormatEpoch(t *testing.T) {
	require.Equal(t, "1970-01-01T00:00:00Z", utils.FormatEpoch(0))
	require.Equal(t, "2023-05-15T10:30:00Z", utils.FormatEpoch(1684146600000))
}

func TestCheckFileExt(t *testing.T) {
	valid := []string{"png", "jpg"}

	ext, ok := utils.CheckFileExt("photo.png", valid)
	require.True(t, ok)
	require.Equal(t, ".png", ext)

	// Extension matching must not be case sensitive
	_, ok = utils.CheckFileExt("photo.PNG", valid)
	require.True(t, ok)

	ext, ok = utils.CheckFileExt("archive.zip", valid)
	require.False(t, ok)
	require.Equal(t, ".zip", ext)

	_, ok = utils.CheckFileExt("noextension", valid)
	require.False(t, ok)
}

func TestSanitize(t *testing.T) {
	bio := "  padded bio  "
	req := struct {
		Title string
		Bio   *string
		Tags  []string
		Count int
	}{
		Title: "  hello  ",
		Bio:   &bio,
		Tags:  []string{" a ", "b "},
		Count: 3,
	}

	utils.Sanitize(&req)

	require.Equal(t, "hello", req.Title)
	require.Equal(t, "padded bio", *req.Bio)
	require.Equal(t, []string{"a", "b"}, req.Tags)
	require.Equal(t, 3, req.Count)
}

func TestSanitize_NilPointerField(t *testing.T) {
	req := struct {
		Name *string
	}{}

	// Must not panic on nil optional fields
	utils.Sanitize(&req)
	require.Nil(t, req.Name)
}
