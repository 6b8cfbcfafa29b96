package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samarth126/SmartShelf/internal/models"
)

const (
	ApologyText        = "Sorry, something went wrong. Please try again."
	AcknowledgmentText = "Got it! Your message has been received."

	EventMessageAppended = "message_appended"
	EventBillAdded       = "bill_added"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoImage      = errors.New("image is required")
)

// Ordering определяет порядок добавления ответов бэкенда в журнал.
type Ordering int

const (
	// OrderRequest добавляет ответы в порядке отправки запросов.
	OrderRequest Ordering = iota
	// OrderArrival добавляет ответы по мере их прихода.
	OrderArrival
)

// ParseOrdering разбирает значение INTAKE_ORDERING.
func ParseOrdering(value string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "request":
		return OrderRequest, nil
	case "arrival":
		return OrderArrival, nil
	default:
		return OrderRequest, fmt.Errorf("unknown ordering %q", value)
	}
}

// Backend эндпоинт create_plan бэкенда.
type Backend interface {
	SendMessage(ctx context.Context, message string) (models.PlanReply, error)
	UploadBill(ctx context.Context, upload models.Upload, text string) (models.PlanReply, error)
}

// Event уведомление о добавлении записи в журнал или нового чека.
type Event struct {
	Type    string
	Message *models.ChatMessage
	Bill    *models.Bill
}

type Option func(*Conversation)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

func WithOrdering(ordering Ordering) Option {
	return func(c *Conversation) {
		c.ordering = ordering
	}
}

// WithNotifier подписывает получателя на события журнала.
// Вызывается под блокировкой разговора и не должен блокироваться.
func WithNotifier(notify func(Event)) Option {
	return func(c *Conversation) {
		c.notify = notify
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// Conversation журнал диалога приема чеков.
type Conversation struct {
	backend  Backend
	now      func() time.Time
	ordering Ordering
	notify   func(Event)
	logger   *slog.Logger

	mu         sync.Mutex
	messages   []models.ChatMessage
	bills      []models.Bill
	draft      string
	nextSeq    uint64
	nextAppend uint64
	pending    map[uint64]*Submission
}

// Submission отправленный запрос; Wait возвращает системный ответ после добавления в журнал.
type Submission struct {
	Seq  uint64
	User *models.ChatMessage

	reply      models.ChatMessage
	bill       *models.Bill
	clearDraft bool
	done       chan struct{}
}

// Done закрывается, когда ответ добавлен в журнал.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait блокируется до добавления ответа и возвращает его.
func (s *Submission) Wait() models.ChatMessage {
	<-s.done
	return s.reply
}

// NewConversation создает пустой журнал поверх клиента бэкенда.
func NewConversation(backend Backend, opts ...Option) *Conversation {
	c := &Conversation{
		backend:  backend,
		now:      time.Now,
		ordering: OrderRequest,
		logger:   slog.Default(),
		pending:  make(map[uint64]*Submission),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SubmitText добавляет сообщение пользователя и асинхронно отправляет его в бэкенд.
// Ошибки транспорта не возвращаются: они превращаются в запись с извинением.
func (c *Conversation) SubmitText(ctx context.Context, message string) (*Submission, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	user := c.newMessage(text, true)
	c.messages = append(c.messages, user)
	c.emit(Event{Type: EventMessageAppended, Message: &user})
	c.draft = ""
	sub := c.startLocked(&user)
	c.mu.Unlock()

	go func() {
		reply, err := c.backend.SendMessage(ctx, text)
		if err != nil {
			c.logger.Warn("create_plan message failed", slog.Uint64("seq", sub.Seq), slog.String("error", err.Error()))
			c.settle(sub, ApologyText)
			return
		}

		c.settle(sub, replyText(reply))
	}()

	return sub, nil
}

// SubmitImage отправляет фото чека с необязательной подписью.
// Если подпись передана, черновик очищается после завершения запроса при любом исходе.
func (c *Conversation) SubmitImage(ctx context.Context, upload models.Upload, caption string) (*Submission, error) {
	if len(upload.Data) == 0 {
		return nil, ErrNoImage
	}

	caption = strings.TrimSpace(caption)
	date := c.now()
	label := BillLabel(date)

	c.mu.Lock()
	sub := c.startLocked(nil)
	sub.clearDraft = caption != ""
	c.mu.Unlock()

	go func() {
		reply, err := c.backend.UploadBill(ctx, upload, caption)
		if err != nil {
			c.logger.Warn("create_plan upload failed", slog.Uint64("seq", sub.Seq), slog.String("error", err.Error()))
			c.settle(sub, ApologyText)
			return
		}

		sub.bill = &models.Bill{ID: uuid.New(), Name: label, Date: date.UTC()}
		c.settle(sub, composeBillReply(label, caption, replyText(reply)))
	}()

	return sub, nil
}

// SetDraft сохраняет текст поля ввода.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = text
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.draft
}

// Messages возвращает копию журнала в порядке добавления.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Bills возвращает копию загруженных чеков.
func (c *Conversation) Bills() []models.Bill {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Bill, len(c.bills))
	copy(out, c.bills)
	return out
}

func (c *Conversation) startLocked(user *models.ChatMessage) *Submission {
	sub := &Submission{
		Seq:  c.nextSeq,
		User: user,
		done: make(chan struct{}),
	}
	c.nextSeq++
	return sub
}

func (c *Conversation) settle(sub *Submission, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub.clearDraft {
		c.draft = ""
	}
	sub.reply = c.newMessage(text, false)

	if c.ordering == OrderArrival {
		c.appendLocked(sub)
		return
	}

	c.pending[sub.Seq] = sub
	for {
		next, ok := c.pending[c.nextAppend]
		if !ok {
			return
		}
		delete(c.pending, c.nextAppend)
		c.nextAppend++
		c.appendLocked(next)
	}
}

func (c *Conversation) appendLocked(sub *Submission) {
	if sub.bill != nil {
		c.bills = append(c.bills, *sub.bill)
		bill := *sub.bill
		c.emit(Event{Type: EventBillAdded, Bill: &bill})
	}

	c.messages = append(c.messages, sub.reply)
	reply := sub.reply
	c.emit(Event{Type: EventMessageAppended, Message: &reply})
	close(sub.done)
}

func (c *Conversation) newMessage(text string, isUser bool) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: c.now().UTC(),
	}
}

func (c *Conversation) emit(event Event) {
	if c.notify != nil {
		c.notify(event)
	}
}

func replyText(reply models.PlanReply) string {
	if strings.TrimSpace(reply.Message) == "" {
		return AcknowledgmentText
	}
	return reply.Message
}
