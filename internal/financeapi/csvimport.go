package financeapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"financy/internal/core"
)

// UploadCSV sends a bank statement for parsing. accountID, when set, is the account the file is from.
// Nothing is imported until ConfirmCSV is called with the rows to keep.
func (c *Client) UploadCSV(ctx context.Context, filename string, r io.Reader, accountID int64) (core.CSVUploadResult, error) {
	var out core.CSVUploadResult

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return out, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return out, fmt.Errorf("copy csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("close multipart: %w", err)
	}

	var q url.Values
	if accountID > 0 {
		q = url.Values{"account_id": {strconv.FormatInt(accountID, 10)}}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/csv-import/upload", q), body)
	if err != nil {
		return out, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return out, c.send(req, &out)
}

func (c *Client) ConfirmCSV(ctx context.Context, rows []core.ImportedTransaction) (core.CSVConfirmResult, error) {
	var out core.CSVConfirmResult
	if rows == nil {
		rows = []core.ImportedTransaction{}
	}
	return out, c.post(ctx, "/api/csv-import/confirm", rows, &out)
}
