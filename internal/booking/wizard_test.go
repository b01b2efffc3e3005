package booking_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

func travelWizard() *booking.Wizard {
	w := &booking.Wizard{ID: "wiz-1", UserID: "user-1", DailyRate: 4500}
	w.Draft.PropertyID = "prop-1"
	w.Draft.PropertyType = "Apartments"
	w.Draft.UserID = "user-1"
	return w
}

func landWizard() *booking.Wizard {
	w := &booking.Wizard{ID: "wiz-2", UserID: "user-1"}
	w.Draft.PropertyID = "prop-2"
	w.Draft.PropertyType = "Land"
	w.Draft.UserID = "user-1"
	return w
}

func TestApplyDetails_RecomputesTotalOnDateChange(t *testing.T) {
	w := travelWizard()

	err := w.ApplyDetails(booking.DetailsInput{
		CheckInDate:    "2026-09-10",
		CheckOutDate:   "2026-09-12",
		NumberOfAdults: 2,
		NumberOfGuests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, w.Draft.TotalAmount)

	// Extending the stay updates the total immediately.
	err = w.ApplyDetails(booking.DetailsInput{
		CheckInDate:    "2026-09-10",
		CheckOutDate:   "2026-09-14",
		NumberOfAdults: 2,
		NumberOfGuests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 18000.0, w.Draft.TotalAmount)
}

func TestApplyDetails_ValidationLeavesWizardUntouched(t *testing.T) {
	w := travelWizard()
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))

	err := w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-12",
		CheckOutDate: "2026-09-10",
	})
	assert.ErrorIs(t, err, booking.ErrDateOrder)
	assert.Equal(t, "2026-09-10", w.Draft.CheckInDate)
	assert.Equal(t, 9000.0, w.Draft.TotalAmount)
}

func TestApplyDetails_BlockedDateRejected(t *testing.T) {
	w := travelWizard()
	w.BlockedDates = []string{"2026-09-11"}

	err := w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-09-11")
}

func TestAdvance_DetailsGuard(t *testing.T) {
	w := travelWizard()

	// No dates yet: the details step refuses to advance.
	assert.ErrorIs(t, w.Advance(), booking.ErrDatesRequired)
	assert.Equal(t, booking.StepDetails, w.Step)

	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))
	require.NoError(t, w.Advance())
	assert.Equal(t, booking.StepPayment, w.Step)
}

func TestAdvance_MpesaPayNowGatesOnConfirmation(t *testing.T) {
	w := travelWizard()
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))
	require.NoError(t, w.Advance())

	require.NoError(t, w.SelectPayment(booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayNow,
		PaymentMethod: models.PaymentMethodMpesa,
		MpesaPhone:    "254712345678",
	}))

	assert.ErrorIs(t, w.Advance(), booking.ErrPaymentRequired)
	assert.Equal(t, booking.StepPayment, w.Step)

	w.PaymentConfirmed = true
	require.NoError(t, w.Advance())
	assert.Equal(t, booking.StepAdditional, w.Step)
}

func TestAdvance_PayLaterSkipsPaymentGate(t *testing.T) {
	w := travelWizard()
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))
	require.NoError(t, w.Advance())

	require.NoError(t, w.SelectPayment(booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayAtProperty,
		PaymentMethod: models.PaymentMethodCash,
	}))
	require.NoError(t, w.Advance())
	assert.Equal(t, booking.StepAdditional, w.Step)
}

func TestAdvance_TerminalStep(t *testing.T) {
	w := travelWizard()
	w.Step = booking.StepAdditional
	assert.ErrorIs(t, w.Advance(), booking.ErrWrongStep)
}

func TestSelectPayment_MpesaRequiresPhone(t *testing.T) {
	w := travelWizard()
	err := w.SelectPayment(booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayNow,
		PaymentMethod: models.PaymentMethodMpesa,
	})
	assert.Error(t, err)
}

func TestSelectPayment_ResetsConfirmation(t *testing.T) {
	w := travelWizard()
	w.PaymentConfirmed = true
	w.PaymentSessionID = "pay-1"

	require.NoError(t, w.SelectPayment(booking.PaymentInput{
		PaymentOption: models.PaymentOptionPayLater,
		PaymentMethod: models.PaymentMethodCard,
	}))
	assert.False(t, w.PaymentConfirmed)
	assert.Empty(t, w.PaymentSessionID)
}

func TestBack_NeverFailsAndKeepsData(t *testing.T) {
	w := travelWizard()
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))
	require.NoError(t, w.Advance())

	w.Back()
	assert.Equal(t, booking.StepDetails, w.Step)
	assert.Equal(t, "2026-09-10", w.Draft.CheckInDate)

	// Back at the first step is a no-op.
	w.Back()
	assert.Equal(t, booking.StepDetails, w.Step)
}

func TestLandFlow_DetailsAndGuards(t *testing.T) {
	w := landWizard()
	assert.True(t, w.IsLand())

	// Missing reservation fields block the details step.
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{}))
	assert.Error(t, w.Advance())

	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		PurchasePurpose:     "residential",
		ReservationDuration: "6 months",
		PaymentOption:       models.PaymentOptionInstallments,
	}))
	// Installments require a payment period.
	err := w.Advance()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment period")

	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		PurchasePurpose:     "residential",
		ReservationDuration: "6 months",
		PaymentOption:       models.PaymentOptionInstallments,
		PaymentPeriod:       "monthly",
	}))
	require.NoError(t, w.Advance())
	assert.Equal(t, booking.StepPayment, w.Step)
}

func TestSetRate_RecomputesExistingTotal(t *testing.T) {
	w := travelWizard()
	require.NoError(t, w.ApplyDetails(booking.DetailsInput{
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
	}))
	require.NoError(t, w.SetRate(6000))
	assert.Equal(t, 12000.0, w.Draft.TotalAmount)
}

func TestUpdatePayload_CannotCarryImmutableFields(t *testing.T) {
	draft := models.BookingDraft{
		PropertyID:   "prop-1",
		PropertyType: "Apartments",
		UserID:       "user-1",
		CheckInDate:  "2026-09-10",
		CheckOutDate: "2026-09-12",
		TotalAmount:  9000,
	}

	raw, err := json.Marshal(draft.UpdatePayload())
	require.NoError(t, err)

	var keys map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.NotContains(t, keys, "property_id")
	assert.NotContains(t, keys, "property_type")
	assert.NotContains(t, keys, "user_id")
	assert.Contains(t, keys, "check_in_date")
}
