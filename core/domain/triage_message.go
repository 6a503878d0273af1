package domain

import "strings"

// Category is the business category assigned to an inbound email.
// The set is closed: classifier output that matches none of the legal
// names maps to CategoryGeneral, never to a free-form string.
type Category string

const (
	CategoryClaim        Category = "CLAIM"         // Claim status, new claims
	CategoryBilling      Category = "BILLING"       // Payments, invoices, premiums
	CategoryPolicyUpdate Category = "POLICY_UPDATE" // Coverage or policy changes
	CategoryComplaint    Category = "COMPLAINT"     // Service complaints
	CategoryEnquiry      Category = "ENQUIRY"       // General product questions

	// CategoryGeneral is the fallback for unparseable classifier output.
	// It is never part of the classifier prompt vocabulary.
	CategoryGeneral Category = "GENERAL"
)

// Categories lists the legal classifier vocabulary, fallback excluded.
func Categories() []Category {
	return []Category{
		CategoryClaim,
		CategoryBilling,
		CategoryPolicyUpdate,
		CategoryComplaint,
		CategoryEnquiry,
	}
}

// ParseCategory maps a raw classifier reply to a Category after trimming
// and upper-casing. Unknown labels return (CategoryGeneral, false).
func ParseCategory(raw string) (Category, bool) {
	label := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range Categories() {
		if label == c {
			return c, true
		}
	}
	return CategoryGeneral, false
}

func (c Category) String() string { return string(c) }

// InboundMessage is one email pulled from the mailbox, normalized by the
// content extractor. It lives for a single polling cycle and is never
// persisted directly.
type InboundMessage struct {
	UID         uint32   // mailbox UID, used to flip the seen flag
	Sender      string   // RFC 5322 address of the sender
	Subject     string
	Content     string   // flattened text of all string-typed parts
	Attachments []string // filenames of skipped non-text parts
}

// CategorizedMessage is an InboundMessage with its assigned category.
type CategorizedMessage struct {
	InboundMessage
	Category Category
}

// ReplyDraft is the generated response, ready for the mail sender.
// Subject already carries the real ticket identifier; Body is simple HTML.
type ReplyDraft struct {
	Subject string
	Body    string
}
