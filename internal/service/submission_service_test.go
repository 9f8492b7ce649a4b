package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

func newSubmissionFixture(t *testing.T) (*SubmissionService, *fakeSubmissionRepo, *fakeDocumentRepo, *fakeBlobStore, *fakeUserRepo, *recordingDispatcher) {
	t.Helper()
	users := newFakeUserRepo(&domain.User{
		ID:            "user-1",
		Email:         "driver@example.test",
		PaymentStatus: domain.PaymentStatusPaid,
	})
	subs := newFakeSubmissionRepo()
	docs := newFakeDocumentRepo()
	blobs := newFakeBlobStore()
	dispatcher := &recordingDispatcher{}
	svc := NewSubmissionService(SubmissionDependencies{
		SubmissionRepo: subs,
		DocumentRepo:   docs,
		UserRepo:       users,
		Blobs:          blobs,
		Dispatcher:     dispatcher,
	}, 1024, zap.NewNop())
	return svc, subs, docs, blobs, users, dispatcher
}

func uploadInput(category domain.DocumentCategory, name, body string) UploadInput {
	return UploadInput{
		Category: category,
		FileName: name,
		MimeType: "application/pdf",
		Size:     int64(len(body)),
		Content:  strings.NewReader(body),
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores blob and metadata", func(t *testing.T) {
		svc, subs, _, blobs, _, dispatcher := newSubmissionFixture(t)

		doc, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "passport.pdf", "scan bytes"))
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if doc.SizeBytes != int64(len("scan bytes")) {
			t.Errorf("size = %d", doc.SizeBytes)
		}
		if blobs.count() != 1 {
			t.Errorf("blob count = %d, want 1", blobs.count())
		}
		if _, err := subs.GetByUser(ctx, "user-1"); err != nil {
			t.Errorf("submission not created on first upload: %v", err)
		}
		types := dispatcher.typesSeen()
		if len(types) != 1 || types[0] != events.EventDocumentUploaded {
			t.Errorf("events = %v", types)
		}
	})

	t.Run("unpaid user is gated", func(t *testing.T) {
		svc, _, _, blobs, users, _ := newSubmissionFixture(t)
		user, _ := users.GetByID(ctx, "user-1")
		user.PaymentStatus = domain.PaymentStatusUnpaid
		if err := users.Update(ctx, user); err != nil {
			t.Fatalf("seed unpaid user: %v", err)
		}

		_, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "passport.pdf", "x"))
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "PAYMENT_REQUIRED" {
			t.Fatalf("err = %v, want PAYMENT_REQUIRED", err)
		}
		if blobs.count() != 0 {
			t.Errorf("blob stored for gated upload")
		}
	})

	t.Run("rejects unknown category and missing file name", func(t *testing.T) {
		svc, _, _, _, _, _ := newSubmissionFixture(t)

		for _, input := range []UploadInput{
			uploadInput("tax_form", "form.pdf", "x"),
			uploadInput(domain.DocumentCategoryIdentity, "", "x"),
		} {
			_, err := svc.Upload(ctx, "user-1", input)
			var derr *apperrors.DomainError
			if !errors.As(err, &derr) || derr.Code != "VALIDATION_FAILED" {
				t.Errorf("input %+v: err = %v, want VALIDATION_FAILED", input.Category, err)
			}
		}
	})

	t.Run("rejects oversize file", func(t *testing.T) {
		svc, _, _, _, _, _ := newSubmissionFixture(t)
		input := uploadInput(domain.DocumentCategoryIdentity, "huge.pdf", "x")
		input.Size = 4096

		_, err := svc.Upload(ctx, "user-1", input)
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "VALIDATION_FAILED" {
			t.Fatalf("err = %v, want VALIDATION_FAILED", err)
		}
	})

	t.Run("re-upload replaces the previous category document", func(t *testing.T) {
		svc, _, docs, blobs, _, _ := newSubmissionFixture(t)

		first, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "passport.pdf", "old"))
		if err != nil {
			t.Fatalf("first Upload: %v", err)
		}
		second, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "id-card.pdf", "new"))
		if err != nil {
			t.Fatalf("second Upload: %v", err)
		}

		if _, err := docs.GetByID(ctx, first.ID); err == nil {
			t.Errorf("previous document row still present")
		}
		if blobs.count() != 1 {
			t.Errorf("blob count = %d, want old blob discarded", blobs.count())
		}
		if _, err := blobs.Open(second.StorageKey); err != nil {
			t.Errorf("new blob missing: %v", err)
		}
	})

	t.Run("failed metadata write removes the blob again", func(t *testing.T) {
		svc, _, docs, blobs, _, dispatcher := newSubmissionFixture(t)
		docs.createErr = errors.New("insert failed")

		_, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "passport.pdf", "x"))
		if err == nil {
			t.Fatal("Upload succeeded despite metadata failure")
		}
		if blobs.count() != 0 {
			t.Errorf("blob left behind after metadata failure")
		}
		if len(dispatcher.typesSeen()) != 0 {
			t.Errorf("event published for failed upload")
		}
	})
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	svc, subs, docs, blobs, users, _ := newSubmissionFixture(t)

	doc, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryOther, "note.pdf", "x"))
	if err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	t.Run("another user's document is forbidden", func(t *testing.T) {
		if err := users.Create(ctx, &domain.User{ID: "user-2", Email: "other@example.test", PaymentStatus: domain.PaymentStatusPaid}); err != nil {
			t.Fatalf("seed second user: %v", err)
		}
		err := svc.Delete(ctx, "user-2", doc.ID)
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "FORBIDDEN" {
			t.Fatalf("err = %v, want FORBIDDEN", err)
		}
	})

	t.Run("owner delete removes row and blob", func(t *testing.T) {
		if err := svc.Delete(ctx, "user-1", doc.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := docs.GetByID(ctx, doc.ID); err == nil {
			t.Errorf("document row still present")
		}
		if blobs.count() != 0 {
			t.Errorf("blob still present")
		}
	})

	t.Run("completed submission refuses deletion", func(t *testing.T) {
		doc, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryOther, "note.pdf", "x"))
		if err != nil {
			t.Fatalf("seed upload: %v", err)
		}
		sub, _ := subs.GetByUser(ctx, "user-1")
		sub.Completed = true
		if err := subs.Update(ctx, sub); err != nil {
			t.Fatalf("seed completed submission: %v", err)
		}

		err = svc.Delete(ctx, "user-1", doc.ID)
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "CONFLICT" {
			t.Fatalf("err = %v, want CONFLICT", err)
		}
	})
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	seedVerified := func(t *testing.T, svc *SubmissionService, docs *fakeDocumentRepo, categories []domain.DocumentCategory) {
		t.Helper()
		for _, cat := range categories {
			doc, err := svc.Upload(ctx, "user-1", uploadInput(cat, string(cat)+".pdf", "x"))
			if err != nil {
				t.Fatalf("seed %s: %v", cat, err)
			}
			if err := docs.SetVerified(ctx, doc.ID, true); err != nil {
				t.Fatalf("verify %s: %v", cat, err)
			}
		}
	}

	t.Run("without a submission", func(t *testing.T) {
		svc, _, _, _, _, _ := newSubmissionFixture(t)
		_, err := svc.Start(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "NOT_FOUND" {
			t.Fatalf("err = %v, want NOT_FOUND", err)
		}
	})

	t.Run("unverified required document blocks start", func(t *testing.T) {
		svc, _, docs, _, _, _ := newSubmissionFixture(t)
		seedVerified(t, svc, docs, domain.RequiredCategories[:3])
		if _, err := svc.Upload(ctx, "user-1", uploadInput(domain.RequiredCategories[3], "last.pdf", "x")); err != nil {
			t.Fatalf("seed unverified doc: %v", err)
		}

		_, err := svc.Start(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "VALIDATION_FAILED" {
			t.Fatalf("err = %v, want VALIDATION_FAILED", err)
		}
	})

	t.Run("all required verified starts once", func(t *testing.T) {
		svc, _, docs, _, _, dispatcher := newSubmissionFixture(t)
		seedVerified(t, svc, docs, domain.RequiredCategories)

		sub, err := svc.Start(ctx, "user-1")
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		if !sub.Completed || sub.StartedAt == nil {
			t.Errorf("submission = %+v, want completed with start time", sub)
		}

		started := 0
		for _, typ := range dispatcher.typesSeen() {
			if typ == events.EventSubmissionStarted {
				started++
			}
		}
		if started != 1 {
			t.Errorf("start events = %d, want 1", started)
		}

		_, err = svc.Start(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "CONFLICT" {
			t.Fatalf("second Start err = %v, want CONFLICT", err)
		}
	})
}

func TestMine(t *testing.T) {
	ctx := context.Background()

	t.Run("empty status before first upload", func(t *testing.T) {
		svc, _, _, _, _, _ := newSubmissionFixture(t)
		status, err := svc.Mine(ctx, "user-1")
		if err != nil {
			t.Fatalf("Mine: %v", err)
		}
		if status.Submission != nil || status.CanStart || len(status.Documents) != 0 {
			t.Errorf("status = %+v, want empty", status)
		}
	})

	t.Run("reflects verified categories", func(t *testing.T) {
		svc, _, docs, _, _, _ := newSubmissionFixture(t)
		doc, err := svc.Upload(ctx, "user-1", uploadInput(domain.DocumentCategoryIdentity, "passport.pdf", "x"))
		if err != nil {
			t.Fatalf("seed upload: %v", err)
		}
		if err := docs.SetVerified(ctx, doc.ID, true); err != nil {
			t.Fatalf("verify: %v", err)
		}

		status, err := svc.Mine(ctx, "user-1")
		if err != nil {
			t.Fatalf("Mine: %v", err)
		}
		if !status.Verified[domain.DocumentCategoryIdentity] {
			t.Errorf("identity document not reported verified")
		}
		if status.CanStart {
			t.Errorf("start allowed with three required categories missing")
		}
	})
}
