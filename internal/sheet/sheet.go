// package sheet reads schedule workbooks and normalizes their rows into the
// local project model.
//
// The workbook layout is a fixed positional contract: row 0 is the header,
// row 1 column 0 holds the project name, and every following row is
// classified by its type column (stage marker vs. activity/item).
package sheet

import (
	"fmt"
	"io"

	"github.com/schedsync/schedsync/internal/shared"
	"github.com/xuri/excelize/v2"
)

// ReadRows extracts the raw cell rows of the first worksheet in an .xlsx
// stream. Cell values are returned as rendered strings; trailing empty cells
// may be absent, so consumers index defensively.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", shared.ErrInvalidSheet)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSheet, err)
	}

	return rows, nil
}
