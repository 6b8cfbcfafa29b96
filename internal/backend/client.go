package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/samarth126/SmartShelf/internal/models"
)

var (
	ErrUnexpectedResponse = errors.New("unexpected backend response")
	ErrNotFound           = errors.New("backend resource not found")
)

// APIError ответ бэкенда со статусом вне 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("smartshelf backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("smartshelf backend returned status %d: %s", e.StatusCode, e.Body)
}

// Is позволяет проверять 404 через errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client обращается к REST API бэкенда SmartShelf.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент бэкенда. timeout <= 0 означает отсутствие таймаута.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := &http.Client{}
	if timeout > 0 {
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListInventoryLists загружает все списки инвентаря.
func (c *Client) ListInventoryLists(ctx context.Context) (models.InventoryListResponse, error) {
	var response models.InventoryListResponse

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("inventory-lists-all/"), nil)
	if err != nil {
		return response, err
	}

	if err := c.do(request, &response); err != nil {
		return response, fmt.Errorf("list inventory lists: %w", err)
	}

	if response.InventoryLists == nil {
		response.InventoryLists = []models.InventoryList{}
	}

	return response, nil
}

// GetInventoryList загружает один список инвентаря по идентификатору.
func (c *Client) GetInventoryList(ctx context.Context, id int64) (models.InventoryList, error) {
	var list models.InventoryList

	path := "inventory-lists/" + strconv.FormatInt(id, 10) + "/"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return list, err
	}

	if err := c.do(request, &list); err != nil {
		return list, fmt.Errorf("get inventory list %d: %w", id, err)
	}

	return list, nil
}

// SendMessage отправляет текстовое сообщение в create_plan.
func (c *Client) SendMessage(ctx context.Context, message string) (models.PlanReply, error) {
	var reply models.PlanReply

	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return reply, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("create_plan/"), bytes.NewReader(payload))
	if err != nil {
		return reply, err
	}
	request.Header.Set("Content-Type", "application/json")

	if err := c.do(request, &reply); err != nil {
		return reply, fmt.Errorf("send message: %w", err)
	}

	slog.Debug("message response", slog.String("message", reply.Message))
	return reply, nil
}

// UploadBill отправляет фото чека и необязательную подпись в create_plan.
func (c *Client) UploadBill(ctx context.Context, upload models.Upload, text string) (models.PlanReply, error) {
	var reply models.PlanReply

	fields := map[string]string{}
	if text != "" {
		fields["text"] = text
	}

	request, err := c.newMultipartRequest(ctx, "create_plan/", upload, fields)
	if err != nil {
		return reply, err
	}

	if err := c.do(request, &reply); err != nil {
		return reply, fmt.Errorf("upload bill: %w", err)
	}

	slog.Debug("upload response", slog.String("message", reply.Message))
	return reply, nil
}

// MatchStock сверяет фото запасов со списком инвентаря.
func (c *Client) MatchStock(ctx context.Context, upload models.Upload, listID int64) (models.MatchingResult, error) {
	var result models.MatchingResult

	fields := map[string]string{"list_id": strconv.FormatInt(listID, 10)}
	request, err := c.newMultipartRequest(ctx, "stock-matching/", upload, fields)
	if err != nil {
		return result, err
	}

	if err := c.do(request, &result); err != nil {
		return result, fmt.Errorf("match stock: %w", err)
	}

	if result.RestockList == nil {
		result.RestockList = []string{}
	}

	return result, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/api/" + path
}

func (c *Client) newMultipartRequest(ctx context.Context, path string, upload models.Upload, fields map[string]string) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	detected := mimetype.Detect(upload.Data)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = detected.String()
	}

	filename := upload.Filename
	if filename == "" {
		filename = "image" + detected.Extension()
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, err
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	return request, nil
}

func (c *Client) do(request *http.Request, target interface{}) error {
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &APIError{StatusCode: response.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
