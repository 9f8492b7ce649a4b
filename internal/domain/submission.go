package domain

import "time"

// DocumentCategory classifies uploaded documents.
type DocumentCategory string

const (
	DocumentCategoryRegistration     DocumentCategory = "registration_certificate"
	DocumentCategoryProofOfResidence DocumentCategory = "proof_of_residence"
	DocumentCategoryPurchaseInvoice  DocumentCategory = "purchase_invoice"
	DocumentCategoryIdentity         DocumentCategory = "identity_document"
	DocumentCategoryOwnershipProof   DocumentCategory = "ownership_proof"
	DocumentCategoryOther            DocumentCategory = "other"
)

// RequiredCategories are the four categories that must each hold a verified
// document before the exemption process can be started.
var RequiredCategories = []DocumentCategory{
	DocumentCategoryRegistration,
	DocumentCategoryProofOfResidence,
	DocumentCategoryPurchaseInvoice,
	DocumentCategoryIdentity,
}

// ValidCategory reports whether the category is part of the intake catalog.
func ValidCategory(c DocumentCategory) bool {
	switch c {
	case DocumentCategoryRegistration, DocumentCategoryProofOfResidence,
		DocumentCategoryPurchaseInvoice, DocumentCategoryIdentity,
		DocumentCategoryOwnershipProof, DocumentCategoryOther:
		return true
	}
	return false
}

// Submission aggregates a user's uploaded documents and process state.
type Submission struct {
	ID        string
	UserID    string
	Completed bool
	StartedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document is an uploaded file attached to a submission.
type Document struct {
	ID           string
	SubmissionID string
	Category     DocumentCategory
	StorageKey   string
	FileName     string
	MimeType     string
	SizeBytes    int64
	Verified     bool
	CreatedAt    time.Time
}

// CanStart reports whether every required category has a verified document.
func CanStart(docs []Document) bool {
	verified := map[DocumentCategory]bool{}
	for _, doc := range docs {
		if doc.Verified {
			verified[doc.Category] = true
		}
	}
	for _, cat := range RequiredCategories {
		if !verified[cat] {
			return false
		}
	}
	return true
}
