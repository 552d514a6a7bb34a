// xmlresult.go - decodes the XML tabular bodies the query endpoint returns.
package service

import (
	"encoding/xml"
	"fmt"

	"github.com/ailink-labs/ailink/pkg/core"
)

type xmlQueryResponse struct {
	Succeeded    bool      `xml:"succeeded"`
	ErrorMessage string    `xml:"error-message"`
	Columns      []xmlName `xml:"metadata>columns>column"`
	Rows         []xmlRow  `xml:"rows>row"`
}

type xmlName struct {
	Name string `xml:"name"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"column"`
}

type xmlCell struct {
	Null  string `xml:"null,attr"`
	Value string `xml:",chardata"`
}

// ParseQueryResponse decodes a query response body into a frame. Null cells
// become nil; everything else stays a string, typing is left to the caller.
// A response with succeeded=false surfaces as a ServerError carrying the
// service's error message.
func ParseQueryResponse(body []byte) (*core.Frame, error) {
	var decoded xmlQueryResponse
	if err := xml.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("parsing query response: %w", err)
	}
	if !decoded.Succeeded {
		return nil, &core.ServerError{Msg: decoded.ErrorMessage}
	}

	names := make([]string, len(decoded.Columns))
	for i, c := range decoded.Columns {
		names[i] = c.Name
	}
	frame := core.NewFrame(names...)
	for _, row := range decoded.Rows {
		values := make([]any, len(row.Cells))
		for i, cell := range row.Cells {
			if cell.Null == "true" {
				continue
			}
			values[i] = cell.Value
		}
		if err := frame.AppendRow(values...); err != nil {
			return nil, fmt.Errorf("assembling query response: %w", err)
		}
	}
	return frame, nil
}
