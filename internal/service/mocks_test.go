package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/paypal"
	"github.com/spec-kit/exemption-service/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	updateErr error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = "user-" + time.Now().Format("150405.000000000")
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListWithFilter(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) CountWithFilter(_ context.Context, _ repository.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*domain.PaymentOrder

	createErr error
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.PaymentOrder{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	order.ID = "order-" + string(rune('a'+r.seq-1))
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.orders[order.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *order
	copied.UpdatedAt = time.Now()
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByProviderOrderID(_ context.Context, providerOrderID string) (*domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ProviderOrderID == providerOrderID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrderRepo) GetActiveByUser(_ context.Context, userID string) (*domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.UserID == userID && !order.Status.Terminal() {
			copied := *order
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrderRepo) GetLatestByUser(_ context.Context, userID string) (*domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.PaymentOrder
	for _, order := range r.orders {
		if order.UserID != userID {
			continue
		}
		if latest == nil || order.CreatedAt.After(latest.CreatedAt) {
			latest = order
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeOrderRepo) ListStale(_ context.Context, olderThan time.Time, _ int) ([]domain.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PaymentOrder
	for _, order := range r.orders {
		if !order.Status.Terminal() && order.UpdatedAt.Before(olderThan) {
			out = append(out, *order)
		}
	}
	return out, nil
}

type fakeProvider struct {
	CreateOrderFunc  func(ctx context.Context, input paypal.CreateOrderInput) (*paypal.Order, error)
	CaptureOrderFunc func(ctx context.Context, orderID string) (*paypal.Order, error)
	GetOrderFunc     func(ctx context.Context, orderID string) (*paypal.Order, error)
}

func (p *fakeProvider) CreateOrder(ctx context.Context, input paypal.CreateOrderInput) (*paypal.Order, error) {
	return p.CreateOrderFunc(ctx, input)
}

func (p *fakeProvider) CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	return p.CaptureOrderFunc(ctx, orderID)
}

func (p *fakeProvider) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	return p.GetOrderFunc(ctx, orderID)
}

type fakeLocker struct {
	denied bool
}

func (l *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return !l.denied, nil
}

func (l *fakeLocker) Release(_ context.Context, _ string) {}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) typesSeen() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.EventType
	for _, event := range d.events {
		out = append(out, event.Type)
	}
	return out
}

type fakeSubmissionRepo struct {
	mu   sync.Mutex
	seq  int
	subs map[string]*domain.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: map[string]*domain.Submission{}}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	sub.ID = "sub-" + string(rune('a'+r.seq-1))
	sub.CreatedAt = time.Now()
	copied := *sub
	r.subs[sub.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) Update(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *sub
	r.subs[sub.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) GetByUser(_ context.Context, userID string) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UserID == userID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSubmissionRepo) ListWithFilter(_ context.Context, _ repository.SubmissionFilter) ([]repository.SubmissionSummary, error) {
	return nil, nil
}

func (r *fakeSubmissionRepo) CountWithFilter(_ context.Context, _ repository.SubmissionFilter) (int64, error) {
	return 0, nil
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	seq  int
	docs map[string]*domain.Document

	createErr error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[string]*domain.Document{}}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	doc.ID = "doc-" + string(rune('a'+r.seq-1))
	doc.CreatedAt = time.Now()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocumentRepo) GetBySubmissionCategory(_ context.Context, submissionID string, category domain.DocumentCategory) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.SubmissionID == submissionID && doc.Category == category {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDocumentRepo) ListBySubmission(_ context.Context, submissionID string) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Document
	for _, doc := range r.docs {
		if doc.SubmissionID == submissionID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) SetVerified(_ context.Context, id string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	doc.Verified = verified
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.docs, id)
	return nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	putErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (b *fakeBlobStore) Put(key string, content io.Reader) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return 0, b.putErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return 0, err
	}
	b.blobs[key] = data
	return int64(len(data)), nil
}

func (b *fakeBlobStore) Open(key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobStore) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

func (b *fakeBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

type fakeAccountTokenRepo struct {
	mu     sync.Mutex
	seq    int
	tokens []*repository.AccountToken
}

func (r *fakeAccountTokenRepo) Create(_ context.Context, token *repository.AccountToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = "tok-" + string(rune('a'+r.seq-1))
	copied := *token
	r.tokens = append(r.tokens, &copied)
	return nil
}

func (r *fakeAccountTokenRepo) GetByToken(_ context.Context, purpose domain.TokenPurpose, value string) (*repository.AccountToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.Purpose == purpose && token.Token == value {
			copied := *token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountTokenRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.Admin
}

func newFakeAdminRepo(admins ...*domain.Admin) *fakeAdminRepo {
	r := &fakeAdminRepo{admins: map[string]*domain.Admin{}}
	for _, a := range admins {
		r.admins[a.ID] = a
	}
	return r
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[admin.ID] = admin
	return nil
}

func (r *fakeAdminRepo) Update(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[admin.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.admins[admin.ID] = admin
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *admin
	return &copied, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Email == email {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func (r *fakeChatRepo) Create(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = "msg-" + string(rune('a'+len(r.messages)))
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeChatRepo) ListByUser(_ context.Context, userID string, after *time.Time, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range r.messages {
		if msg.UserID != userID {
			continue
		}
		if after != nil && !msg.CreatedAt.After(*after) {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChatRepo) ListThreads(_ context.Context, _, _ int) ([]repository.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byUser := map[string]*repository.ChatThread{}
	var order []string
	for _, msg := range r.messages {
		thread, ok := byUser[msg.UserID]
		if !ok {
			thread = &repository.ChatThread{UserID: msg.UserID}
			byUser[msg.UserID] = thread
			order = append(order, msg.UserID)
		}
		thread.MessageCount++
		thread.LastMessageAt = msg.CreatedAt
	}
	var out []repository.ChatThread
	for _, userID := range order {
		out = append(out, *byUser[userID])
	}
	return out, nil
}

type fakeEligibilityRepo struct {
	mu      sync.Mutex
	records map[string]*domain.EligibilityRecord

	createErr error
}

func newFakeEligibilityRepo() *fakeEligibilityRepo {
	return &fakeEligibilityRepo{records: map[string]*domain.EligibilityRecord{}}
}

func (r *fakeEligibilityRepo) Create(_ context.Context, record *domain.EligibilityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	record.ID = "elig-" + record.UserID
	record.CreatedAt = time.Now()
	copied := *record
	r.records[record.UserID] = &copied
	return nil
}

func (r *fakeEligibilityRepo) GetByUser(_ context.Context, userID string) (*domain.EligibilityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

type fakeContactRepo struct {
	mu      sync.Mutex
	created []*domain.ContactMessage
}

func (r *fakeContactRepo) Create(_ context.Context, msg *domain.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = "contact-1"
	msg.CreatedAt = time.Now()
	r.created = append(r.created, msg)
	return nil
}

type fakeChangelogRepo struct {
	mu      sync.Mutex
	entries []domain.ChangelogEntry
}

func (r *fakeChangelogRepo) Create(_ context.Context, entry *domain.ChangelogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = "cl-" + string(rune('a'+len(r.entries)))
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeChangelogRepo) ListAll(_ context.Context) ([]domain.ChangelogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChangelogEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *fakeChangelogRepo) LatestVersion(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return "", nil
	}
	return r.entries[len(r.entries)-1].Version, nil
}
