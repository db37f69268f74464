package response

import (
	"time"

	"travel-booking/internal/pkg/errs"
	"travel-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingItemResponse struct {
	UnitID         *uuid.UUID `json:"unitId,omitempty"`
	UnitName       string     `json:"unitName"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	UnitTaxCents   int64      `json:"unitTaxCents"`
}

type BookingResponse struct {
	ID            uuid.UUID             `json:"id"`
	ListingID     uuid.UUID             `json:"listingId"`
	ListingTitle  string                `json:"listingTitle"`
	VendorID      uuid.UUID             `json:"vendorId"`
	CustomerID    uuid.UUID             `json:"customerId"`
	CustomerEmail string                `json:"customerEmail"`
	ServiceType   string                `json:"serviceType"`
	StartDate     time.Time             `json:"startDate"`
	EndDate       time.Time             `json:"endDate"`
	Guests        *int                  `json:"guests,omitempty"`
	Items         []BookingItemResponse `json:"items"`
	SubtotalCents int64                 `json:"subtotalCents"`
	TaxCents      int64                 `json:"taxCents"`
	FeeCents      int64                 `json:"feeCents"`
	DiscountCents int64                 `json:"discountCents"`
	TotalCents    int64                 `json:"totalCents"`
	CouponID      *uuid.UUID            `json:"couponId,omitempty"`
	CouponCode    *string               `json:"couponCode,omitempty"`
	Status        string                `json:"status"`
	Note          *string               `json:"note,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	Replayed      bool                  `json:"replayed,omitempty"`
}

type BookingListResponse struct {
	ID           uuid.UUID `json:"id"`
	ListingID    uuid.UUID `json:"listingId"`
	ListingTitle string    `json:"listingTitle"`
	ServiceType  string    `json:"serviceType"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"totalCents"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BookingPageResponse struct {
	Items     []BookingListResponse `json:"items"`
	NextAfter string                `json:"nextAfter,omitempty"`
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copier.Copy(&resp, v); err != nil {
		return nil, errs.Wrap(err, "map booking view")
	}
	if resp.Items == nil {
		resp.Items = []BookingItemResponse{}
	}
	return &resp, nil
}

func FromBookingList(items []*queries.BookingListItem, next *queries.Cursor) (*BookingPageResponse, error) {
	page := &BookingPageResponse{Items: make([]BookingListResponse, 0, len(items))}
	for _, it := range items {
		var r BookingListResponse
		if err := copier.Copy(&r, it); err != nil {
			return nil, errs.Wrap(err, "map booking list item")
		}
		page.Items = append(page.Items, r)
	}
	if next != nil {
		page.NextAfter = next.After
	}
	return page, nil
}
