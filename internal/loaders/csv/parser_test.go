package csv

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, domain.FormatCSV, New().Format())
}

func TestParse_RowsBecomeDocuments(t *testing.T) {
	data := "name,city\nAda,London\nGrace,Arlington\n"

	docs, err := New().Parse(context.Background(), "/data/people.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "name: Ada\ncity: London", docs[0].Content)
	assert.Equal(t, 1, docs[0].Metadata[domain.MetaRow])
	assert.Equal(t, "name: Grace\ncity: Arlington", docs[1].Content)
	assert.Equal(t, 2, docs[1].Metadata[domain.MetaRow])

	for _, d := range docs {
		assert.Equal(t, "/data/people.csv", d.Source)
		assert.Equal(t, "people.csv", d.Name)
		assert.Equal(t, domain.FormatCSV, d.Format)
		assert.NotEmpty(t, d.ID)
	}
}

func TestParse_RowSeven(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,product\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "%d,widget-%d\n", i, i)
	}

	docs, err := New().Parse(context.Background(), "products.csv", []byte(b.String()))
	require.NoError(t, err)
	require.Len(t, docs, 10)

	assert.Equal(t, 7, docs[6].Metadata[domain.MetaRow])
	assert.Contains(t, docs[6].Content, "product: widget-7")
}

func TestParse_HeaderOnly(t *testing.T) {
	docs, err := New().Parse(context.Background(), "empty.csv", []byte("a,b,c\n"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParse_EmptyFile(t *testing.T) {
	docs, err := New().Parse(context.Background(), "empty.csv", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParse_BlankRowsSkipped(t *testing.T) {
	data := "a,b\n1,2\n , \n3,4\n"

	docs, err := New().Parse(context.Background(), "gaps.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 3, docs[1].Metadata[domain.MetaRow])
}

func TestParse_ExtraColumns(t *testing.T) {
	data := "a\n1,2\n"

	docs, err := New().Parse(context.Background(), "ragged.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a: 1\ncolumn 2: 2", docs[0].Content)
}

func TestParse_ByteOrderMark(t *testing.T) {
	data := "\xef\xbb\xbfname\nAda\n"

	docs, err := New().Parse(context.Background(), "bom.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "name: Ada", docs[0].Content)
}

func TestParse_CustomDelimiter(t *testing.T) {
	data := "a;b\n1;2\n"

	docs, err := New(WithComma(';')).Parse(context.Background(), "semi.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a: 1\nb: 2", docs[0].Content)
}
