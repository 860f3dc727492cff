package runs

import "strings"

// ColumnHeader labels one column of a row.
type ColumnHeader struct {
	Title string
	Width int // in bytes
}

// HeaderRow is one horizontal row of column labels.
type HeaderRow struct {
	Columns []ColumnHeader
}

// String renders the row as space-separated titles.
func (r HeaderRow) String() string {
	titles := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		titles[i] = c.Title
	}
	return strings.Join(titles, " ")
}

// HeaderRows returns column headers for a display width bytes wide whose
// first row begins at address startingDataIndex. ok is false unless width
// is a multiple or a divisor of the element length; the caller then falls
// back to DefaultHeaderRows.
func (a ArrayRun) HeaderRows(width, startingDataIndex int) (rows []HeaderRow, ok bool) {
	length := a.format.ElementLength
	if width <= 0 {
		return nil, false
	}
	if width >= length {
		if width%length != 0 {
			return nil, false
		}
		return []HeaderRow{a.headerRow(startingDataIndex-a.start, width)}, true
	}
	if length%width != 0 {
		return nil, false
	}
	rows = make([]HeaderRow, length/width)
	for i := range rows {
		rows[i] = a.headerRow(width*i+startingDataIndex-a.start, width)
	}
	return rows, true
}

// headerRow labels width bytes starting byteStart bytes into the array.
// A row starting inside a segment opens with the rest of that segment, and
// the last column is cut at the row's end.
func (a ArrayRun) headerRow(byteStart, width int) HeaderRow {
	segments := a.format.Segments
	length := a.format.ElementLength
	byteStart = (byteStart%length + length) % length

	index, current := 0, 0
	for current+segments[index].Length <= byteStart {
		current += segments[index].Length
		index++
	}
	consumed := byteStart - current

	var row HeaderRow
	for filled := 0; filled < width; index++ {
		segment := segments[index%len(segments)]
		columnWidth := min(segment.Length-consumed, width-filled)
		row.Columns = append(row.Columns, ColumnHeader{Title: segment.Name, Width: columnWidth})
		filled += columnWidth
		consumed = 0
	}
	return row
}

// DefaultHeaderRows returns hex index headers for a display width bytes
// wide. Widths that do not tile a 16-byte line get no headers.
func DefaultHeaderRows(width, startingDataIndex int) []HeaderRow {
	switch {
	case width <= 0:
		return nil
	case width > 0x10 && width%0x10 != 0:
		return nil
	case width < 0x10 && 0x10%width != 0:
		return nil
	case width >= 0x10:
		return []HeaderRow{hexHeaderRow(startingDataIndex, width)}
	}
	rows := make([]HeaderRow, 0x10/width)
	for i := range rows {
		rows[i] = hexHeaderRow(width*i+startingDataIndex, width)
	}
	return rows
}

func hexHeaderRow(start, width int) HeaderRow {
	const hex = "0123456789ABCDEF"
	start = (start%0x10 + 0x10) % 0x10
	row := HeaderRow{Columns: make([]ColumnHeader, width)}
	for i := range row.Columns {
		row.Columns[i] = ColumnHeader{Title: string(hex[(start+i)%0x10]), Width: 1}
	}
	return row
}
