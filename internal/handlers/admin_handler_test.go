package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestAdmin_PriceRules(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/v1/admin/prices", map[string]interface{}{
		"pickup_location": "Abeokuta",
		"destination":     "Ibadan",
		"vehicle_type":    "7-Seater Bus",
		"fare":            4000,
		"vehicle_count":   3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ruleID := gjson.Get(w.Body.String(), "data.id").String()
	assert.Equal(t, "abeokuta_ibadan_7-seater-bus", ruleID)

	w = s.do(t, http.MethodPut, "/api/v1/admin/prices", map[string]interface{}{
		"pickup_location": "Abeokuta",
		"destination":     "Ibadan",
		"vehicle_type":    "Limo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown vehicle type", gjson.Get(w.Body.String(), "error.details.vehicle_type").String())

	w = s.do(t, http.MethodGet, "/api/v1/admin/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "meta.count").Int())

	w = s.do(t, http.MethodDelete, "/api/v1/admin/prices/"+ruleID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/admin/prices/"+ruleID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_BookingManagement(t *testing.T) {
	s := newTestServer(t)
	s.seedRule(t, 1)
	bookingID, _ := createBooking(t, s, "ada")
	createBooking(t, s, "bola")

	w := s.do(t, http.MethodGet, "/api/v1/admin/bookings?status=Pending&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := gjson.Parse(w.Body.String())
	assert.Len(t, body.Get("data").Array(), 1)
	assert.Equal(t, int64(2), body.Get("meta.pagination.total").Int())
	assert.True(t, body.Get("meta.pagination.has_next").Bool())

	w = s.do(t, http.MethodGet, "/api/v1/admin/bookings?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/admin/bookings/"+bookingID+"/status", map[string]string{"status": "Confirmed"})
	assert.Equal(t, http.StatusConflict, w.Code, "pending bookings cannot jump to confirmed")
	assert.Equal(t, "INVALID_TRANSITION", gjson.Get(w.Body.String(), "error.code").String())

	w = s.do(t, http.MethodPut, "/api/v1/admin/bookings/"+bookingID+"/status", map[string]string{"status": "Paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Paid", gjson.Get(w.Body.String(), "data.status").String())

	w = s.do(t, http.MethodPost, "/api/v1/admin/bookings/"+bookingID+"/reschedule", map[string]string{"new_date": "2026-03-11"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2026-03-11", gjson.Get(w.Body.String(), "data.intended_date").String())
	assert.Equal(t, "abeokuta_ibadan_4-seater-sienna_2026-03-11_1", gjson.Get(w.Body.String(), "data.trip_id").String())

	w = s.do(t, http.MethodGet, "/api/v1/admin/trips?date=2026-03-11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "meta.count").Int())

	w = s.do(t, http.MethodGet, "/api/v1/admin/trips/abeokuta_ibadan_4-seater-sienna_2026-03-11_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bookingID, gjson.Get(w.Body.String(), "data.passengers.0.booking_id").String())

	w = s.do(t, http.MethodGet, "/api/v1/admin/trips?date=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/admin/bookings/"+bookingID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/bookings/"+bookingID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_DeleteRange(t *testing.T) {
	s := newTestServer(t)
	s.seedRule(t, 1)
	createBooking(t, s, "ada")
	createBooking(t, s, "bola")

	w := s.do(t, http.MethodPost, "/api/v1/admin/bookings/delete-range", map[string]string{
		"start_date": "2026-03-11",
		"end_date":   "2026-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/admin/bookings/delete-range", map[string]string{
		"start_date": "2026-03-01",
		"end_date":   "2026-03-31",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "data.bookings_deleted").Int())
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "data.trips_modified").Int())
}

func TestAdmin_Settings(t *testing.T) {
	s := newTestServer(t)
	s.seedRule(t, 1)

	w := s.do(t, http.MethodGet, "/api/v1/admin/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "data.payment_enabled").Bool())

	w = s.do(t, http.MethodPut, "/api/v1/admin/settings", map[string]interface{}{"payment_enabled": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, gjson.Get(w.Body.String(), "data.payment_enabled").Bool())

	w = s.do(t, http.MethodPost, "/api/v1/bookings", bookingBody("ada"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "data.payment_required").Bool())
	assert.Empty(t, gjson.Get(w.Body.String(), "data.reference").String())
}

func TestAdmin_SweepsAndHistory(t *testing.T) {
	s := newTestServer(t)
	s.seedRule(t, 1)
	bookingID, _ := createBooking(t, s, "ada")

	w := s.do(t, http.MethodPost, "/api/v1/admin/sweeps/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "data.trips_scanned").Int())

	w = s.do(t, http.MethodGet, "/api/v1/admin/sweeps/cleanup/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gjson.Get(w.Body.String(), "data").Array())

	w = s.do(t, http.MethodGet, "/api/v1/admin/sweeps/nightly/reports", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.notifier.Wait()
	w = s.do(t, http.MethodGet, "/api/v1/admin/bookings/"+bookingID+"/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, gjson.Get(w.Body.String(), "meta.count").Int(), int64(1))
}

func TestAdmin_Summary(t *testing.T) {
	s := newTestServer(t)
	s.seedRule(t, 1)
	first, _ := createBooking(t, s, "ada")
	second, _ := createBooking(t, s, "bola")

	w := s.do(t, http.MethodGet, "/api/v1/admin/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := gjson.Get(w.Body.String(), "data")
	assert.Equal(t, int64(1), data.Get("upcoming_trips").Int())
	assert.Equal(t, int64(2), data.Get("upcoming_passengers").Int())
	assert.Equal(t, int64(2), data.Get("pending_bookings").Int())
	assert.Equal(t, int64(0), data.Get("confirmed_bookings").Int())
	assert.Equal(t, "abeokuta_ibadan_4-seater-sienna_2026-03-10_1", data.Get("recent_trips.0.id").String())

	recent := data.Get("recent_bookings.#.id").Array()
	require.Len(t, recent, 2)
	assert.ElementsMatch(t, []string{first, second}, []string{recent[0].String(), recent[1].String()})
}
