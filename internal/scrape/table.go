package scrape

import (
	"bytes"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"talent-pipeline/internal/scrape/util"
)

// Table is an HTML table flattened to text.
type Table struct {
	Headings []string
	Rows     [][]string
}

// Empty reports a page that rendered no table at all.
func (t Table) Empty() bool {
	return len(t.Headings) == 0 && len(t.Rows) == 0
}

// ExtractTable reads every th as a heading and every tr with td cells as a
// row. Rows without cells (the heading row) are skipped.
func ExtractTable(r io.Reader) (Table, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Table{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Table{}, fmt.Errorf("parse table html: %w", err)
	}

	var t Table
	doc.Find("th").Each(func(_ int, th *goquery.Selection) {
		t.Headings = append(t.Headings, util.CleanText(th.Text()))
	})
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, util.CleanText(td.Text()))
		})
		t.Rows = append(t.Rows, row)
	})
	return t, nil
}
