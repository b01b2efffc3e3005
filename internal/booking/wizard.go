package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// Step is the wizard's position in the sequential flow.
type Step int

const (
	// StepDetails collects travel dates and guest counts, or the land
	// reservation fields.
	StepDetails Step = iota
	// StepPayment collects the payment option/method and, for pay-now
	// M-Pesa, gates on the payment confirmation.
	StepPayment
	// StepAdditional collects special requests and submits.
	StepAdditional
)

var (
	// ErrPaymentRequired blocks the payment step until the M-Pesa session
	// has confirmed, for pay-now M-Pesa bookings.
	ErrPaymentRequired = errors.New("payment must be completed before continuing")
	// ErrWrongStep is returned when an operation is invoked on a step it
	// does not belong to.
	ErrWrongStep = errors.New("operation not valid for the current wizard step")
)

// Wizard is one multi-step booking flow. It lives in Redis between requests
// and is discarded on submit or cancel. Steps are strictly sequential; no
// two steps are ever active at once.
type Wizard struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// Editing mode: an existing booking is being changed rather than a new
	// one created.
	Editing   bool   `json:"editing"`
	BookingID string `json:"booking_id,omitempty"`

	// Email receives the confirmation message after submit.
	Email string `json:"email,omitempty"`

	DailyRate    float64  `json:"daily_rate"`
	BlockedDates []string `json:"blocked_dates"`

	Draft models.BookingDraft `json:"draft"`
	Step  Step                `json:"step"`

	PaymentSessionID string `json:"payment_session_id,omitempty"`
	PaymentConfirmed bool   `json:"payment_confirmed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLand reports whether this wizard follows the land-reservation flow,
// which has no travel dates.
func (w *Wizard) IsLand() bool {
	return strings.EqualFold(w.Draft.PropertyType, "land")
}

// DetailsInput carries the fields of the details step. Travel bookings use
// the date and guest fields; land reservations use the purpose/duration
// fields instead.
type DetailsInput struct {
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`

	NumberOfAdults   int `json:"number_of_adults"`
	NumberOfChildren int `json:"number_of_children"`
	NumberOfGuests   int `json:"number_of_guests"`
	NumberOfRooms    int `json:"number_of_rooms"`

	PurchasePurpose     string `json:"purchase_purpose"`
	ReservationDuration string `json:"reservation_duration"`
	PaymentPeriod       string `json:"payment_period"`
	PaymentOption       string `json:"payment_option"`
}

// PaymentInput carries the fields of the payment step.
type PaymentInput struct {
	PaymentOption string `json:"payment_option"`
	PaymentMethod string `json:"payment_method"`
	MpesaPhone    string `json:"mpesa_phone"`
}

// ApplyDetails records the details step fields. Date changes recompute the
// total immediately, not at submit time, because the payment step displays
// and charges the total before the final step. A validation failure leaves
// the wizard untouched and is a field-level error, never fatal.
func (w *Wizard) ApplyDetails(in DetailsInput) error {
	if w.IsLand() {
		w.Draft.PurchasePurpose = in.PurchasePurpose
		w.Draft.ReservationDuration = in.ReservationDuration
		w.Draft.PaymentPeriod = in.PaymentPeriod
		if in.PaymentOption != "" {
			w.Draft.PaymentOption = in.PaymentOption
		}
		w.touch()
		return nil
	}

	if in.CheckInDate != "" || in.CheckOutDate != "" {
		if err := ValidateDates(in.CheckInDate, in.CheckOutDate, w.BlockedDates); err != nil {
			return err
		}
		w.Draft.CheckInDate = in.CheckInDate
		w.Draft.CheckOutDate = in.CheckOutDate
		if err := w.recomputeTotal(); err != nil {
			return err
		}
	}
	w.Draft.NumberOfAdults = in.NumberOfAdults
	w.Draft.NumberOfChildren = in.NumberOfChildren
	w.Draft.NumberOfGuests = in.NumberOfGuests
	w.Draft.NumberOfRooms = in.NumberOfRooms
	w.touch()
	return nil
}

// SelectPayment records the payment step selection. An M-Pesa phone number
// is required if and only if the method is M-Pesa. Changing the selection
// resets any prior payment confirmation.
func (w *Wizard) SelectPayment(in PaymentInput) error {
	if in.PaymentMethod == models.PaymentMethodMpesa && in.MpesaPhone == "" {
		return fmt.Errorf("an M-Pesa phone number is required for M-Pesa payments")
	}
	w.Draft.PaymentOption = in.PaymentOption
	w.Draft.PaymentMethod = in.PaymentMethod
	w.Draft.MpesaPhone = in.MpesaPhone
	w.PaymentConfirmed = false
	w.PaymentSessionID = ""
	w.touch()
	return nil
}

// SetRate updates the resolved daily rate and recomputes the total when
// dates are already set.
func (w *Wizard) SetRate(rate float64) error {
	w.DailyRate = rate
	if w.Draft.CheckInDate != "" && w.Draft.CheckOutDate != "" {
		if err := w.recomputeTotal(); err != nil {
			return err
		}
	}
	w.touch()
	return nil
}

// Advance moves to the next step if the current step's guard passes.
func (w *Wizard) Advance() error {
	switch w.Step {
	case StepDetails:
		if err := w.validateDetails(); err != nil {
			return err
		}
		w.Step = StepPayment
	case StepPayment:
		if w.requiresMpesaConfirmation() && !w.PaymentConfirmed {
			return ErrPaymentRequired
		}
		w.Step = StepAdditional
	case StepAdditional:
		return ErrWrongStep // Terminal step advances via Submit only.
	}
	w.touch()
	return nil
}

// Back moves one step backwards; it never fails and never loses data.
func (w *Wizard) Back() {
	if w.Step > StepDetails {
		w.Step--
		w.touch()
	}
}

// requiresMpesaConfirmation reports whether the payment step must complete
// the STK push sub-flow before the wizard may continue.
func (w *Wizard) requiresMpesaConfirmation() bool {
	return w.Draft.PaymentOption == models.PaymentOptionPayNow &&
		w.Draft.PaymentMethod == models.PaymentMethodMpesa
}

func (w *Wizard) validateDetails() error {
	if w.IsLand() {
		if w.Draft.ReservationDuration == "" {
			return fmt.Errorf("reservation duration is required")
		}
		if w.Draft.PurchasePurpose == "" {
			return fmt.Errorf("purchase purpose is required")
		}
		if w.Draft.PaymentOption == "" {
			return fmt.Errorf("payment option is required")
		}
		if w.Draft.PaymentOption == models.PaymentOptionInstallments && w.Draft.PaymentPeriod == "" {
			return fmt.Errorf("payment period is required for installment payments")
		}
		return nil
	}
	return ValidateDates(w.Draft.CheckInDate, w.Draft.CheckOutDate, w.BlockedDates)
}

func (w *Wizard) recomputeTotal() error {
	total, err := Total(w.DailyRate, w.Draft.CheckInDate, w.Draft.CheckOutDate)
	if err != nil {
		return err
	}
	w.Draft.TotalAmount = total
	return nil
}

func (w *Wizard) touch() {
	w.UpdatedAt = time.Now().UTC()
}
