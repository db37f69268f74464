package notify

import (
	"fmt"
	"strings"
)

const dateLayout = "2006-01-02"

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func summary(n BookingNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", n.BookingID)
	fmt.Fprintf(&b, "Listing: %s (%s)\n", n.ListingTitle, n.ServiceType)
	fmt.Fprintf(&b, "Dates: %s to %s (%d %s)\n", n.Start.Format(dateLayout), n.End.Format(dateLayout), n.Units, n.DurationLabel)
	if n.CouponCode != nil {
		fmt.Fprintf(&b, "Coupon: %s\n", *n.CouponCode)
	}
	fmt.Fprintf(&b, "Total: %s\n", formatCents(n.TotalCents))
	return b.String()
}

func buildMessage(kind Kind, n BookingNotice, admin Recipient) Message {
	switch kind {
	case KindCustomerConfirmation:
		return Message{
			To:      n.Customer,
			Subject: "Your booking for " + n.ListingTitle + " is received",
			Body:    fmt.Sprintf("Hi %s,\n\nThank you for your booking.\n\n%s", n.Customer.Name, summary(n)),
		}
	case KindVendorNotification:
		return Message{
			To:      n.Vendor,
			Subject: "New booking for " + n.ListingTitle,
			Body:    fmt.Sprintf("Hi %s,\n\nYou have a new booking from %s.\n\n%s", n.Vendor.Name, n.Customer.Name, summary(n)),
		}
	default:
		return Message{
			To:      admin,
			Subject: "[admin] New booking " + n.BookingID.String(),
			Body:    fmt.Sprintf("Customer: %s <%s>\nVendor: %s <%s>\n\n%s", n.Customer.Name, n.Customer.Email, n.Vendor.Name, n.Vendor.Email, summary(n)),
		}
	}
}
