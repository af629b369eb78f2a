package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	require.Equal(t, "Total: $12.00", Clean("\n\t  Total:   $12.00 \u200b\n"))
	require.Equal(t, "", Clean(" \n "))
}

func TestText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="card">
			<p class="id">  SB-123  </p>
			<p class="id">SB-456</p>
		</div>
	`))
	require.NoError(t, err)

	require.Equal(t, "SB-123", Text(doc.Find("p.id")))
	require.Equal(t, "", Text(doc.Find("p.missing")))
	require.Equal(t, 0, Find(doc.Selection, "").Length())
	require.Equal(t, 2, Find(doc.Selection, "p.id").Length())
}
