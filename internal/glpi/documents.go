package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"time"
)

// DocumentUpload describes a file to transfer to GLPI.
type DocumentUpload struct {
	Name      string
	Content   []byte
	OwnerID   int64
	EntityID  int64
	CreatedAt string
}

// DocumentLink binds an uploaded document to a ticket.
type DocumentLink struct {
	DocumentID int64
	TicketID   int64
	OwnerID    int64
	CreatedAt  string
}

// UploadDocument transfers raw bytes as a GLPI document and returns the
// document id. The request is multipart: a JSON manifest part named
// uploadManifest plus one binary part named filename[0].
//
// Upload is the first half of the transfer saga; the caller must follow with
// LinkDocument and compensate with DeleteDocument if linking fails, otherwise
// the document is left orphaned on the target.
func (c *Client) UploadDocument(ctx context.Context, s *Session, upload DocumentUpload) (int64, error) {
	manifest, err := json.Marshal(map[string]any{
		"input": map[string]any{
			"name":          upload.Name,
			"entities_id":   upload.EntityID,
			"users_id":      upload.OwnerID,
			"date_creation": upload.CreatedAt,
			"_filename":     []string{upload.Name},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal upload manifest: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	manifestHeader := textproto.MIMEHeader{}
	manifestHeader.Set("Content-Disposition", `form-data; name="uploadManifest"`)
	manifestHeader.Set("Content-Type", "application/json")
	manifestPart, err := writer.CreatePart(manifestHeader)
	if err != nil {
		return 0, fmt.Errorf("create manifest part: %w", err)
	}
	if _, err := manifestPart.Write(manifest); err != nil {
		return 0, fmt.Errorf("write manifest part: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="filename[0]"; filename=%q`, upload.Name))
	fileHeader.Set("Content-Type", contentTypeFor(upload.Name))
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return 0, fmt.Errorf("create file part: %w", err)
	}
	if _, err := filePart.Write(upload.Content); err != nil {
		return 0, fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Document", &body)
	if err != nil {
		return 0, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Session-Token", s.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("upload document %q (latency=%v): %w", upload.Name, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("upload document %q returned %d (latency=%v): %s",
			upload.Name, resp.StatusCode, latency, snippet(resp.Body))
	}

	var response idPayload
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("decode upload response: %w", err)
	}
	id, ok := response.value()
	if !ok {
		return 0, fmt.Errorf("upload document %q: %w", upload.Name, ErrMissingID)
	}
	return id, nil
}

// LinkDocument creates the Document_Item record binding a document to its
// ticket.
func (c *Client) LinkDocument(ctx context.Context, s *Session, link DocumentLink) error {
	payload := map[string]any{
		"input": map[string]any{
			"itemtype":      "Ticket",
			"items_id":      link.TicketID,
			"users_id":      link.OwnerID,
			"date_creation": link.CreatedAt,
			"documents_id":  link.DocumentID,
		},
	}
	if _, err := c.postJSON(ctx, s, "/Document_Item", payload, nil); err != nil {
		return fmt.Errorf("link document %d to ticket %d: %w", link.DocumentID, link.TicketID, err)
	}
	return nil
}

// DeleteDocument removes an uploaded document. Used as the compensating
// action when linking fails.
func (c *Client) DeleteDocument(ctx context.Context, s *Session, documentID int64) error {
	endpoint := c.baseURL + "/Document/" + strconv.FormatInt(documentID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header = c.sessionHeaders(s)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", documentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("delete document %d returned %d: %s",
			documentID, resp.StatusCode, snippet(resp.Body))
	}
	return nil
}

func contentTypeFor(name string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
