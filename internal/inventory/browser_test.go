package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/samarth126/SmartShelf/internal/backend"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/repository"
)

type fakeSource struct {
	response  models.InventoryListResponse
	listErr   error
	detail    map[int64]models.InventoryList
	detailErr error
	calls     int
}

func (f *fakeSource) ListInventoryLists(ctx context.Context) (models.InventoryListResponse, error) {
	f.calls++
	return f.response, f.listErr
}

func (f *fakeSource) GetInventoryList(ctx context.Context, id int64) (models.InventoryList, error) {
	if f.detailErr != nil {
		return models.InventoryList{}, f.detailErr
	}
	list, ok := f.detail[id]
	if !ok {
		return models.InventoryList{}, &backend.APIError{StatusCode: 404}
	}
	return list, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleList() models.InventoryList {
	brand := "Horizon"
	return models.InventoryList{
		ID:        3,
		Name:      "Weekly Groceries",
		Purpose:   "weekly",
		CreatedAt: time.Date(2024, time.October, 5, 10, 0, 0, 0, time.UTC),
		InventoryItems: []models.InventoryItem{
			{ID: 1, Name: "Milk", Quantity: "2 gallons", Brand: &brand},
			{ID: 2, Name: "Eggs", Quantity: "1 dozen"},
		},
	}
}

// TestMountEmptySnapshot проверяет сценарий пустого ответа и снимка "[]".
func TestMountEmptySnapshot(t *testing.T) {
	source := &fakeSource{response: models.InventoryListResponse{Count: 0, InventoryLists: []models.InventoryList{}}}
	snapshots := repository.NewMemorySnapshotRepository()
	browser := NewBrowser(source, snapshots, "session-a", quietLogger())

	browser.Mount(context.Background())

	if len(browser.Lists()) != 0 {
		t.Fatalf("expected no lists, got %d", len(browser.Lists()))
	}

	stored, err := snapshots.Get(context.Background(), "session-a", repository.KeyInventoryLists)
	if err != nil {
		t.Fatalf("expected snapshot, got %v", err)
	}
	if string(stored) != "[]" {
		t.Fatalf("expected [], got %s", stored)
	}
}

// TestMountNilListsSnapshot проверяет, что отсутствие поля тоже дает "[]".
func TestMountNilListsSnapshot(t *testing.T) {
	snapshots := repository.NewMemorySnapshotRepository()
	browser := NewBrowser(&fakeSource{}, snapshots, "session-a", quietLogger())

	browser.Mount(context.Background())

	stored, _ := snapshots.Get(context.Background(), "session-a", repository.KeyInventoryLists)
	if string(stored) != "[]" {
		t.Fatalf("expected [], got %s", stored)
	}
}

// TestMountOnce проверяет однократную загрузку.
func TestMountOnce(t *testing.T) {
	source := &fakeSource{response: models.InventoryListResponse{Count: 1, InventoryLists: []models.InventoryList{sampleList()}}}
	browser := NewBrowser(source, nil, "session-a", quietLogger())

	browser.Mount(context.Background())
	browser.Mount(context.Background())

	if source.calls != 1 {
		t.Fatalf("expected one fetch, got %d", source.calls)
	}
	if len(browser.Lists()) != 1 {
		t.Fatalf("expected one list, got %d", len(browser.Lists()))
	}
}

// TestMountFailure проверяет, что ошибка загрузки оставляет браузер пустым.
func TestMountFailure(t *testing.T) {
	snapshots := repository.NewMemorySnapshotRepository()
	browser := NewBrowser(&fakeSource{listErr: errors.New("connection refused")}, snapshots, "session-a", quietLogger())

	browser.Mount(context.Background())

	if len(browser.Lists()) != 0 {
		t.Fatal("expected empty browser")
	}
	if _, err := snapshots.Get(context.Background(), "session-a", repository.KeyInventoryLists); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no snapshot, got %v", err)
	}
}

// TestMountRetriesAfterFailure проверяет, что после ошибки следующий вызов снова загружает списки.
func TestMountRetriesAfterFailure(t *testing.T) {
	source := &fakeSource{
		response: models.InventoryListResponse{Count: 1, InventoryLists: []models.InventoryList{sampleList()}},
		listErr:  errors.New("connection refused"),
	}
	snapshots := repository.NewMemorySnapshotRepository()
	browser := NewBrowser(source, snapshots, "session-a", quietLogger())

	browser.Mount(context.Background())
	if len(browser.Lists()) != 0 {
		t.Fatal("expected empty browser after failed fetch")
	}

	source.listErr = nil
	browser.Mount(context.Background())
	if len(browser.Lists()) != 1 {
		t.Fatalf("expected one list after retry, got %d", len(browser.Lists()))
	}
	if _, err := snapshots.Get(context.Background(), "session-a", repository.KeyInventoryLists); err != nil {
		t.Fatalf("expected snapshot after retry, got %v", err)
	}

	browser.Mount(context.Background())
	if source.calls != 2 {
		t.Fatalf("expected two fetches, got %d", source.calls)
	}
}

// TestCloseStopsSnapshots проверяет, что закрытый браузер не пишет снимок.
func TestCloseStopsSnapshots(t *testing.T) {
	snapshots := repository.NewMemorySnapshotRepository()
	browser := NewBrowser(&fakeSource{}, snapshots, "session-a", quietLogger())

	browser.Close()
	browser.Mount(context.Background())

	if _, err := snapshots.Get(context.Background(), "session-a", repository.KeyInventoryLists); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no snapshot after close, got %v", err)
	}
}

// TestDetail проверяет загрузку по id и отсутствие списка.
func TestDetail(t *testing.T) {
	source := &fakeSource{detail: map[int64]models.InventoryList{3: sampleList()}}
	browser := NewBrowser(source, nil, "session-a", quietLogger())

	list, err := browser.Detail(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Name != "Weekly Groceries" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := browser.Detail(context.Background(), 99); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
}

// TestDetailSnapshotFallback проверяет чтение из снимка при недоступном бэкенде.
func TestDetailSnapshotFallback(t *testing.T) {
	source := &fakeSource{
		response:  models.InventoryListResponse{Count: 1, InventoryLists: []models.InventoryList{sampleList()}},
		detailErr: errors.New("dial tcp: connection refused"),
	}
	browser := NewBrowser(source, repository.NewMemorySnapshotRepository(), "session-a", quietLogger())
	browser.Mount(context.Background())

	list, err := browser.Detail(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected snapshot fallback, got %v", err)
	}
	if len(list.InventoryItems) != 2 {
		t.Fatalf("unexpected items: %+v", list.InventoryItems)
	}

	if _, err := browser.Detail(context.Background(), 4); err == nil || errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

// TestExportCSV проверяет CSV-выгрузку позиций.
func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleList(), "CSV"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][5] != "Milk" || records[1][7] != "Horizon" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][7] != "" {
		t.Fatalf("expected empty brand, got %q", records[2][7])
	}
}

// TestExportXLSX проверяет, что книга открывается и содержит позиции.
func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleList(), FormatXLSX); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open xlsx: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue(xlsxSheet, "F3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "Eggs" {
		t.Fatalf("expected Eggs, got %q", value)
	}
}

// TestExportUnknownFormat проверяет отказ на неизвестном формате.
func TestExportUnknownFormat(t *testing.T) {
	if err := Export(io.Discard, sampleList(), "pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := ContentType("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
