package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

type Bill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

type InventoryItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Brand    *string `json:"brand"`
}

type InventoryList struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Purpose        string          `json:"purpose"`
	InventoryItems []InventoryItem `json:"inventory_items"`
	CreatedAt      time.Time       `json:"created_at"`
}

type InventoryListResponse struct {
	Count          int             `json:"count"`
	InventoryLists []InventoryList `json:"inventory_lists"`
}

// PlanReply ответ create_plan; остальные поля бэкенда игнорируются.
type PlanReply struct {
	Message string `json:"message,omitempty"`
}

type CheapestInfo struct {
	Store              string  `json:"store"`
	EstimatedTotalCost float64 `json:"estimated_total_cost"`
}

type MatchingResult struct {
	Message           string       `json:"message"`
	ListID            int64        `json:"list_id"`
	ListName          string       `json:"list_name"`
	RestockList       []string     `json:"restock_list"`
	CheapestInfo      CheapestInfo `json:"cheapest_info"`
	TotalMissingItems int          `json:"total_missing_items"`
}

type Checklist struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Items     []ChecklistItem `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

type ChecklistItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Checked  bool   `json:"checked"`
}

// Upload файл изображения, выбранный пользователем.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
