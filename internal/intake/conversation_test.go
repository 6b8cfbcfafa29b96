package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samarth126/SmartShelf/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	replies  map[string]string
	gates    map[string]chan struct{}
	err      error
	captions []string
}

func (f *fakeBackend) SendMessage(ctx context.Context, message string) (models.PlanReply, error) {
	f.mu.Lock()
	gate := f.gates[message]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return models.PlanReply{}, f.err
	}
	return models.PlanReply{Message: f.replies[message]}, nil
}

func (f *fakeBackend) UploadBill(ctx context.Context, upload models.Upload, text string) (models.PlanReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.captions = append(f.captions, text)
	if f.err != nil {
		return models.PlanReply{}, f.err
	}
	return models.PlanReply{Message: f.replies["image"]}, nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.October, 5, 18, 30, 0, 0, time.UTC)
}

func newTestConversation(backend Backend, opts ...Option) *Conversation {
	base := []Option{
		WithClock(fixedClock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewConversation(backend, append(base, opts...)...)
}

func waitOrFail(t *testing.T, sub *Submission) models.ChatMessage {
	t.Helper()

	select {
	case <-sub.Done():
		return sub.Wait()
	case <-time.After(2 * time.Second):
		t.Fatalf("submission %d did not settle", sub.Seq)
		return models.ChatMessage{}
	}
}

// TestBillLabel проверяет подпись чека по фиксированной таблице месяцев.
func TestBillLabel(t *testing.T) {
	if got := BillLabel(time.Date(2024, time.October, 5, 0, 0, 0, 0, time.UTC)); got != "Oct 5" {
		t.Fatalf("expected Oct 5, got %s", got)
	}

	tokyo := time.FixedZone("JST", 9*60*60)
	if got := BillLabel(time.Date(2025, time.January, 31, 23, 0, 0, 0, tokyo)); got != "Jan 31" {
		t.Fatalf("expected Jan 31, got %s", got)
	}
}

// TestSubmitTextScenario проверяет сценарий "milk?" -> "You have 2 gallons".
func TestSubmitTextScenario(t *testing.T) {
	backend := &fakeBackend{replies: map[string]string{"milk?": "You have 2 gallons"}}
	conv := newTestConversation(backend)
	conv.SetDraft("milk?")

	sub, err := conv.SubmitText(context.Background(), "milk?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.User == nil || sub.User.Text != "milk?" || !sub.User.IsUser {
		t.Fatalf("unexpected user entry: %+v", sub.User)
	}
	if conv.Draft() != "" {
		t.Fatalf("expected draft to be cleared, got %q", conv.Draft())
	}

	reply := waitOrFail(t, sub)
	if reply.Text != "You have 2 gallons" || reply.IsUser {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	messages := conv.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "milk?" || messages[1].Text != "You have 2 gallons" {
		t.Fatalf("unexpected log: %+v", messages)
	}
}

// TestSubmitTextLogLength проверяет длину журнала 2N и порядок сообщений пользователя.
func TestSubmitTextLogLength(t *testing.T) {
	backend := &fakeBackend{replies: map[string]string{}}
	conv := newTestConversation(backend)

	inputs := []string{"eggs", "bread", "milk", "butter", "rice"}
	for _, input := range inputs {
		sub, err := conv.SubmitText(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waitOrFail(t, sub)
	}

	messages := conv.Messages()
	if len(messages) != 2*len(inputs) {
		t.Fatalf("expected %d messages, got %d", 2*len(inputs), len(messages))
	}

	var users []string
	for _, message := range messages {
		if message.IsUser {
			users = append(users, message.Text)
		}
	}
	if strings.Join(users, ",") != strings.Join(inputs, ",") {
		t.Fatalf("unexpected user order: %v", users)
	}

	if messages[1].Text != AcknowledgmentText {
		t.Fatalf("expected acknowledgment fallback, got %q", messages[1].Text)
	}
}

// TestSubmitTextEmpty проверяет отказ на пустом сообщении без записи в журнал.
func TestSubmitTextEmpty(t *testing.T) {
	conv := newTestConversation(&fakeBackend{})

	if _, err := conv.SubmitText(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(conv.Messages()) != 0 {
		t.Fatal("expected empty log")
	}
}

// TestSubmitTextFailure проверяет ровно одну запись с извинением при ошибке.
func TestSubmitTextFailure(t *testing.T) {
	conv := newTestConversation(&fakeBackend{err: errors.New("connection refused")})

	sub, err := conv.SubmitText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error at call boundary, got %v", err)
	}

	reply := waitOrFail(t, sub)
	if reply.Text != ApologyText {
		t.Fatalf("expected apology, got %q", reply.Text)
	}

	messages := conv.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected user entry plus apology, got %d", len(messages))
	}

	apologies := 0
	for _, message := range messages {
		if message.Text == ApologyText {
			apologies++
		}
	}
	if apologies != 1 {
		t.Fatalf("expected exactly one apology, got %d", apologies)
	}
}

// TestSubmitImageSuccess проверяет запись чека и текст ответа.
func TestSubmitImageSuccess(t *testing.T) {
	backend := &fakeBackend{replies: map[string]string{"image": "Found 12 items"}}
	conv := newTestConversation(backend)
	conv.SetDraft("weekly shop")

	sub, err := conv.SubmitImage(context.Background(), models.Upload{Data: []byte("jpeg")}, "weekly shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.User != nil {
		t.Fatal("image submission must not add a user entry")
	}

	reply := waitOrFail(t, sub)
	want := "Bill Oct 5 uploaded: weekly shop\nFound 12 items"
	if reply.Text != want {
		t.Fatalf("expected %q, got %q", want, reply.Text)
	}

	bills := conv.Bills()
	if len(bills) != 1 || bills[0].Name != "Oct 5" {
		t.Fatalf("unexpected bills: %+v", bills)
	}
	if !bills[0].Date.Equal(fixedClock()) {
		t.Fatalf("unexpected bill date: %v", bills[0].Date)
	}
	if conv.Draft() != "" {
		t.Fatalf("expected caption draft to be cleared, got %q", conv.Draft())
	}
	if backend.captions[0] != "weekly shop" {
		t.Fatalf("unexpected caption sent: %q", backend.captions[0])
	}
}

// TestSubmitImageFailureClearsCaption проверяет очистку подписи и извинение при ошибке.
func TestSubmitImageFailureClearsCaption(t *testing.T) {
	conv := newTestConversation(&fakeBackend{err: errors.New("timeout")})
	conv.SetDraft("october receipt")

	sub, err := conv.SubmitImage(context.Background(), models.Upload{Data: []byte("jpeg")}, "october receipt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply := waitOrFail(t, sub)
	if reply.Text != ApologyText {
		t.Fatalf("expected apology, got %q", reply.Text)
	}
	if conv.Draft() != "" {
		t.Fatalf("expected draft to be cleared, got %q", conv.Draft())
	}
	if len(conv.Bills()) != 0 {
		t.Fatal("failed upload must not create a bill")
	}
	if len(conv.Messages()) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(conv.Messages()))
	}
}

// TestSubmitImageWithoutCaptionKeepsDraft проверяет, что черновик не трогается без подписи.
func TestSubmitImageWithoutCaptionKeepsDraft(t *testing.T) {
	conv := newTestConversation(&fakeBackend{replies: map[string]string{}})
	conv.SetDraft("typing")

	sub, err := conv.SubmitImage(context.Background(), models.Upload{Data: []byte("jpeg")}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply := waitOrFail(t, sub)
	if reply.Text != "Bill Oct 5 uploaded\n"+AcknowledgmentText {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if conv.Draft() != "typing" {
		t.Fatalf("expected draft to survive, got %q", conv.Draft())
	}
}

// TestSubmitImageEmpty проверяет отказ без файла.
func TestSubmitImageEmpty(t *testing.T) {
	conv := newTestConversation(&fakeBackend{})

	if _, err := conv.SubmitImage(context.Background(), models.Upload{}, "caption"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

// TestRequestOrdering проверяет, что ответы добавляются в порядке запросов.
func TestRequestOrdering(t *testing.T) {
	slow := make(chan struct{})
	backend := &fakeBackend{
		replies: map[string]string{"first": "reply one", "second": "reply two"},
		gates:   map[string]chan struct{}{"first": slow},
	}
	conv := newTestConversation(backend, WithOrdering(OrderRequest))

	first, _ := conv.SubmitText(context.Background(), "first")
	second, _ := conv.SubmitText(context.Background(), "second")

	select {
	case <-second.Done():
		t.Fatal("second reply must wait for the first one")
	case <-time.After(50 * time.Millisecond):
	}

	close(slow)
	waitOrFail(t, first)
	waitOrFail(t, second)

	var texts []string
	for _, message := range conv.Messages() {
		texts = append(texts, message.Text)
	}
	want := "first,second,reply one,reply two"
	if strings.Join(texts, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(texts, ","))
	}
}

// TestArrivalOrdering проверяет порядок по факту прихода ответов.
func TestArrivalOrdering(t *testing.T) {
	slow := make(chan struct{})
	backend := &fakeBackend{
		replies: map[string]string{"first": "reply one", "second": "reply two"},
		gates:   map[string]chan struct{}{"first": slow},
	}
	conv := newTestConversation(backend, WithOrdering(OrderArrival))

	first, _ := conv.SubmitText(context.Background(), "first")
	second, _ := conv.SubmitText(context.Background(), "second")

	waitOrFail(t, second)
	close(slow)
	waitOrFail(t, first)

	var texts []string
	for _, message := range conv.Messages() {
		texts = append(texts, message.Text)
	}
	want := "first,second,reply two,reply one"
	if strings.Join(texts, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(texts, ","))
	}
}

// TestNotifier проверяет события о новых записях и чеках.
func TestNotifier(t *testing.T) {
	var mu sync.Mutex
	var events []string
	notify := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event.Type)
	}

	conv := newTestConversation(&fakeBackend{replies: map[string]string{}}, WithNotifier(notify))

	sub, _ := conv.SubmitText(context.Background(), "hi")
	waitOrFail(t, sub)
	sub, _ = conv.SubmitImage(context.Background(), models.Upload{Data: []byte("jpeg")}, "")
	waitOrFail(t, sub)

	mu.Lock()
	defer mu.Unlock()
	want := []string{EventMessageAppended, EventMessageAppended, EventBillAdded, EventMessageAppended}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

// TestParseOrdering проверяет разбор режима упорядочивания.
func TestParseOrdering(t *testing.T) {
	if value, err := ParseOrdering("Arrival"); err != nil || value != OrderArrival {
		t.Fatalf("expected arrival, got %v (err=%v)", value, err)
	}
	if value, err := ParseOrdering(""); err != nil || value != OrderRequest {
		t.Fatalf("expected request default, got %v (err=%v)", value, err)
	}
	if _, err := ParseOrdering("lifo"); err == nil {
		t.Fatal("expected error for unknown ordering")
	}
}
