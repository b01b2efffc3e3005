package models

import "time"

// Payment option and method values accepted by the upstream booking API.
const (
	PaymentOptionPayNow        = "pay_now"
	PaymentOptionPayLater      = "pay_later"
	PaymentOptionPayAtProperty = "pay_at_property"
	PaymentOptionInstallments  = "installments"

	PaymentMethodCard  = "card"
	PaymentMethodMpesa = "mpesa"
	PaymentMethodCash  = "cash"
)

// BookingDraft collects everything the wizard gathers before a booking is
// created. It is discarded on success or cancellation.
type BookingDraft struct {
	PropertyID   string `json:"property_id"`
	PropertyType string `json:"property_type"`
	UserID       string `json:"user_id"`

	CheckInDate  string `json:"check_in_date,omitempty"`
	CheckOutDate string `json:"check_out_date,omitempty"`

	NumberOfAdults   int `json:"number_of_adults,omitempty"`
	NumberOfChildren int `json:"number_of_children,omitempty"`
	NumberOfGuests   int `json:"number_of_guests,omitempty"`
	NumberOfRooms    int `json:"number_of_rooms,omitempty"`

	// Land reservations only.
	PurchasePurpose     string `json:"purchase_purpose,omitempty"`
	ReservationDuration string `json:"reservation_duration,omitempty"`
	PaymentPeriod       string `json:"payment_period,omitempty"`

	PaymentOption string `json:"payment_option,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	MpesaPhone    string `json:"mpesa_phone,omitempty"`

	TotalAmount     float64 `json:"total_amount"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// BookingUpdate is the payload sent when editing an existing booking.
// property_id, property_type and user_id are immutable once a booking
// exists; this type has no such fields so an update can never resend them.
type BookingUpdate struct {
	CheckInDate  string `json:"check_in_date,omitempty"`
	CheckOutDate string `json:"check_out_date,omitempty"`

	NumberOfAdults   int `json:"number_of_adults,omitempty"`
	NumberOfChildren int `json:"number_of_children,omitempty"`
	NumberOfGuests   int `json:"number_of_guests,omitempty"`
	NumberOfRooms    int `json:"number_of_rooms,omitempty"`

	PurchasePurpose     string `json:"purchase_purpose,omitempty"`
	ReservationDuration string `json:"reservation_duration,omitempty"`
	PaymentPeriod       string `json:"payment_period,omitempty"`

	PaymentOption string `json:"payment_option,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	MpesaPhone    string `json:"mpesa_phone,omitempty"`

	TotalAmount     float64 `json:"total_amount"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// UpdatePayload derives the mutable-fields-only update payload from a draft.
func (d *BookingDraft) UpdatePayload() *BookingUpdate {
	return &BookingUpdate{
		CheckInDate:         d.CheckInDate,
		CheckOutDate:        d.CheckOutDate,
		NumberOfAdults:      d.NumberOfAdults,
		NumberOfChildren:    d.NumberOfChildren,
		NumberOfGuests:      d.NumberOfGuests,
		NumberOfRooms:       d.NumberOfRooms,
		PurchasePurpose:     d.PurchasePurpose,
		ReservationDuration: d.ReservationDuration,
		PaymentPeriod:       d.PaymentPeriod,
		PaymentOption:       d.PaymentOption,
		PaymentMethod:       d.PaymentMethod,
		MpesaPhone:          d.MpesaPhone,
		TotalAmount:         d.TotalAmount,
		SpecialRequests:     d.SpecialRequests,
	}
}

// Booking is a created booking record as returned by the upstream API.
type Booking struct {
	ID string `json:"id"`
	BookingDraft
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// BlockedDatesResponse is the upstream blocked-dates envelope.
type BlockedDatesResponse struct {
	BlockedDates []string `json:"blocked_dates"`
}
