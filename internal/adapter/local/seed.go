package local

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

type demoRecord struct {
	id, agent, firm, contact, mobile, addr, city, pincode, pan string
	status                                                     domain.Status
	docs                                                       []domain.Document
	items                                                      []domain.DiscrepancyItem
	rejection                                                  string
	created, updated                                           string
}

var demoRecords = []demoRecord{
	{
		id: "1", agent: "Priya Sharma", firm: "Fresh Grocers Ltd", contact: "Rajesh Kumar", mobile: "9876543210",
		addr: "123 Market Street", city: "Mumbai", pincode: "400001", pan: "ABCDE1234F",
		status: domain.StatusDraft,
		docs: []domain.Document{
			{Type: domain.DocumentPAN, Name: "pan_card.pdf", Size: 256000},
			{Type: domain.DocumentAadhaar, Name: "aadhaar.pdf", Size: 512000},
		},
		created: "2024-01-15T10:30:00Z", updated: "2024-01-15T14:20:00Z",
	},
	{
		id: "2", agent: "Rohit Verma", firm: "Tech Solutions Inc", contact: "Amit Patel", mobile: "9123456789",
		addr: "456 Tech Park", city: "Bangalore", pincode: "560001", pan: "XYZAB5678C",
		status: domain.StatusSubmitted,
		docs: []domain.Document{
			{Type: domain.DocumentPAN, Name: "pan_copy.jpg", Size: 128000},
			{Type: domain.DocumentAadhaar, Name: "voter_id.pdf", Size: 300000},
			{Type: domain.DocumentShopPhoto, Name: "shop_front.jpg", Size: 800000},
		},
		created: "2024-01-14T09:15:00Z", updated: "2024-01-16T11:45:00Z",
	},
	{
		id: "3", agent: "Neha Singh", firm: "Fashion Hub", contact: "Sneha Gupta", mobile: "9876123456",
		addr: "789 Style Avenue", city: "Delhi", pincode: "110001", pan: "PQRST9876E",
		status: domain.StatusDiscrepancy,
		docs: []domain.Document{
			{Type: domain.DocumentPAN, Name: "pan_card.pdf", Size: 200000},
			{Type: domain.DocumentShopPhoto, Name: "store_pic.jpg", Size: 600000},
		},
		items: []domain.DiscrepancyItem{
			{Code: "DOC_QUALITY", Message: "PAN card image is not clear"},
			{Code: "MISSING_DOC", Message: "KYC document required"},
		},
		created: "2024-01-13T16:20:00Z", updated: "2024-01-17T09:30:00Z",
	},
	{
		id: "4", agent: "Vikash Kumar", firm: "Coffee Corner", contact: "Ravi Mehta", mobile: "9543216789",
		addr: "321 Cafe Street", city: "Pune", pincode: "411001", pan: "LMNOP4567Q",
		status: domain.StatusApproved,
		docs: []domain.Document{
			{Type: domain.DocumentPAN, Name: "pan_certificate.pdf", Size: 180000},
			{Type: domain.DocumentAadhaar, Name: "passport.pdf", Size: 420000},
			{Type: domain.DocumentShopPhoto, Name: "cafe_exterior.jpg", Size: 950000},
		},
		created: "2024-01-12T11:00:00Z", updated: "2024-01-18T15:10:00Z",
	},
	{
		id: "5", agent: "Anjali Joshi", firm: "Mobile Repairs", contact: "Suresh Yadav", mobile: "9098765432",
		addr: "654 Repair Lane", city: "Chennai", pincode: "600001", pan: "DEFGH7890K",
		status:    domain.StatusRejected,
		docs:      []domain.Document{{Type: domain.DocumentPAN, Name: "pan_scan.jpg", Size: 160000}},
		rejection: "Incomplete documentation and business verification failed",
		created:   "2024-01-11T14:30:00Z", updated: "2024-01-19T10:20:00Z",
	},
}

// Seed loads the demo applications into an empty database and reports how
// many were written.
func (b *Backend) Seed(ctx context.Context) (int, error) {
	n, err := b.apps.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, r := range demoRecords {
		if err := b.apps.Create(ctx, r.application()); err != nil {
			return 0, fmt.Errorf("seeding application %s: %w", r.id, err)
		}
	}
	return len(demoRecords), nil
}

func (r demoRecord) application() domain.Application {
	fields := domain.NewDraft()
	fields.Merge(domain.Draft{
		domain.FieldApplName:      r.contact,
		domain.FieldFirm:          r.firm,
		domain.FieldContactPerson: r.contact,
		domain.FieldMobile:        r.mobile,
		domain.FieldInstAddr1:     r.addr,
		domain.FieldInstLocality:  r.city,
		domain.FieldCity:          r.city,
		domain.FieldInstPincode:   r.pincode,
		domain.FieldPAN:           r.pan,
	})

	app := domain.NewApplication(r.id, r.agent, fields)
	app.Status = r.status
	app.Documents = make([]domain.Document, len(r.docs))
	for i, d := range r.docs {
		d.URL = fmt.Sprintf("/files/applications/%s/%s/%s", r.id, d.Type, d.Name)
		app.Documents[i] = d
	}
	app.DiscrepancyItems = r.items
	app.RejectionReason = r.rejection
	app.CreatedAt, _ = time.Parse(time.RFC3339, r.created)
	app.UpdatedAt, _ = time.Parse(time.RFC3339, r.updated)
	return app
}
