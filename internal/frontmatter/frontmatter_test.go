package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Forms in React\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Forms in React\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\ntitle: Forms\n# Title\n")

	_, _, had, _, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\ntitle: Forms\r\n---\r\n# Title\r\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Forms\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("---\ntitle: Forms\n---\n# Title\n"),
		[]byte("---\n---\n# Title\n"),
		[]byte("---\r\ntitle: Forms\r\n---\r\n# Title\r\n"),
	}

	for _, input := range cases {
		fm, body, had, style, err := Split(input)
		require.NoError(t, err)

		out := Join(fm, body, had, style)
		require.Equal(t, input, out)
	}
}

func TestDecode_TypedFields_ExtractsKnownKeys(t *testing.T) {
	fields, err := Decode([]byte("title: Forms in React\ndescription: Controlled inputs\nslug: react-forms\n"))
	require.NoError(t, err)
	require.Equal(t, "Forms in React", fields.Title)
	require.Equal(t, "Controlled inputs", fields.Description)
	require.Equal(t, "react-forms", fields.Slug)
}

func TestDecode_UnknownKeys_PreservedInExtra(t *testing.T) {
	fields, err := Decode([]byte("title: Forms\ntags:\n  - react\n  - interview\n"))
	require.NoError(t, err)
	require.Equal(t, "Forms", fields.Title)
	require.Contains(t, fields.Extra, "tags")
}

func TestDecode_Empty_ReturnsZeroFields(t *testing.T) {
	fields, err := Decode(nil)
	require.NoError(t, err)
	require.Empty(t, fields.Title)
}

func TestDecode_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Decode([]byte("title: [unclosed\n"))
	require.Error(t, err)
}
