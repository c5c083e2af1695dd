package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cab-booking-backend/internal/api"
	"github.com/nekogravitycat/cab-booking-backend/internal/app"
	"github.com/nekogravitycat/cab-booking-backend/internal/auth"
	bookingHttp "github.com/nekogravitycat/cab-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/cab-booking-backend/internal/store/memory"
)

type testEnv struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	store  *memory.Store

	companyID string
	vendorA   vendor // associated with the company
	vendorB   vendor // partner of A
	vendorC   vendor // unrelated
}

type vendor struct {
	id        string
	driverID  string
	vehicleID string
	token     string
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	container := app.NewContainer(app.Config{
		MemoryStore:        store,
		JWTSecret:          "test-secret",
		JWTTTL:             30 * time.Minute,
		RateLimitPerMinute: 0,
	})

	env := &testEnv{
		router:    container.Router,
		jwt:       container.JWTManager,
		store:     store,
		companyID: store.PutCompany(memory.Company{Name: "Acme"}),
	}
	env.vendorA = env.addVendor(t, "Alpha Cabs")
	env.vendorB = env.addVendor(t, "Bravo Cabs")
	env.vendorC = env.addVendor(t, "Charlie Cabs")
	store.AssociateCompanyVendor(env.companyID, env.vendorA.id)
	store.AssociatePartners(env.vendorA.id, env.vendorB.id)
	return env
}

func (e *testEnv) addVendor(t *testing.T, name string) vendor {
	id := e.store.PutVendor(memory.Vendor{Name: name})
	return vendor{
		id:       id,
		driverID: e.store.PutDriver(fleet.Driver{VendorID: id, Name: name + " driver", CreatedAt: time.Now()}),
		vehicleID: e.store.PutVehicle(fleet.Vehicle{
			VendorID:     id,
			Type:         fleet.CategorySUV,
			PlateNumber:  name,
			Availability: true,
			CreatedAt:    time.Now(),
		}),
		token: e.token(t, id, auth.RoleVendor),
	}
}

func (e *testEnv) token(t *testing.T, accountID string, role auth.Role) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(accountID, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createBody() bookingHttp.CreateBookingRequest {
	return bookingHttp.CreateBookingRequest{
		ItineraryBody: bookingHttp.ItineraryBody{
			GuestName:       "Ada Lovelace",
			GuestContact:    "+44 20 7946 0000",
			PickupLocation:  "Heathrow T5",
			DropoffLocation: "The Savoy",
			PickupTime:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			CarCategory:     "suv",
		},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	companyToken := env.token(t, env.companyID, auth.RoleCompany)

	var bookingID string

	t.Run("Company creates booking", func(t *testing.T) {
		w := env.executeRequest("POST", "/v1/company/bookings", createBody(), companyToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		b := decode[bookingHttp.BookingResponse](t, w)
		assert.Equal(t, "pending", b.Status)
		assert.Equal(t, "suv", b.CarCategory)
		assert.False(t, b.InOpenMarket)
		bookingID = b.ID
	})

	t.Run("Company lists its bookings", func(t *testing.T) {
		w := env.executeRequest("GET", "/v1/company/bookings?page=1&page_size=10", nil, companyToken)
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[response.PageResponse[bookingHttp.BookingResponse]](t, w)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 10, page.PageSize)
		require.Len(t, page.Items, 1)
		assert.Equal(t, bookingID, page.Items[0].ID)
		assert.Equal(t, "Ada Lovelace", page.Items[0].GuestName)
	})

	t.Run("Associated vendor sees it as pending", func(t *testing.T) {
		w := env.executeRequest("GET", "/v1/vendor/bookings/pending", nil, env.vendorA.token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), bookingID)

		w = env.executeRequest("GET", "/v1/vendor/bookings/pending", nil, env.vendorC.token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), bookingID)
	})

	t.Run("Stranger cannot read the booking", func(t *testing.T) {
		w := env.executeRequest("GET", "/v1/bookings/"+bookingID, nil, env.vendorC.token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Vendor accepts", func(t *testing.T) {
		w := env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/accept", bookingID),
			bookingHttp.AcceptBookingRequest{DriverID: env.vendorA.driverID, VehicleID: env.vendorA.vehicleID},
			env.vendorA.token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b := decode[bookingHttp.BookingResponse](t, w)
		assert.Equal(t, "upcoming", b.Status)
		require.NotNil(t, b.VehicleID)
		assert.Equal(t, env.vendorA.vehicleID, *b.VehicleID)
	})

	t.Run("Second accept is a conflict", func(t *testing.T) {
		w := env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/accept", bookingID),
			bookingHttp.AcceptBookingRequest{DriverID: env.vendorB.driverID, VehicleID: env.vendorB.vehicleID},
			env.vendorB.token)
		assert.Equal(t, http.StatusConflict, w.Code)

		errResp := decode[response.ErrorResponse](t, w)
		assert.Equal(t, "invalid_state", errResp.Kind)
	})

	t.Run("Vehicle shows as unavailable", func(t *testing.T) {
		w := env.executeRequest("GET", "/v1/vendor/vehicles?available=true", nil, env.vendorA.token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), env.vendorA.vehicleID)
	})

	t.Run("Only the bound vendor runs the trip", func(t *testing.T) {
		w := env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/start", bookingID), nil, env.vendorB.token)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/start", bookingID), nil, env.vendorA.token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ongoing", decode[bookingHttp.BookingResponse](t, w).Status)

		w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/end", bookingID), nil, env.vendorA.token)
		require.Equal(t, http.StatusOK, w.Code)
		b := decode[bookingHttp.BookingResponse](t, w)
		assert.Equal(t, "completed", b.Status)
		assert.NotNil(t, b.DropoffTime)
	})

	t.Run("Both parties can read the completed booking", func(t *testing.T) {
		w := env.executeRequest("GET", "/v1/bookings/"+bookingID, nil, companyToken)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.executeRequest("GET", "/v1/bookings/"+bookingID, nil, env.vendorA.token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOpenMarketOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	companyToken := env.token(t, env.companyID, auth.RoleCompany)

	w := env.executeRequest("POST", "/v1/company/bookings", createBody(), companyToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decode[bookingHttp.BookingResponse](t, w).ID

	w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/open-market", bookingID), nil, env.vendorC.token)
	assert.Equal(t, http.StatusForbidden, w.Code, "only the company's vendors may release a booking")

	w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/open-market", bookingID), nil, env.vendorA.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[bookingHttp.BookingResponse](t, w).InOpenMarket)

	w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/open-market", bookingID), nil, env.vendorA.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Inside the exclusivity window only partners of the releaser see it.
	w = env.executeRequest("GET", "/v1/vendor/open-market", nil, env.vendorB.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), bookingID)

	w = env.executeRequest("GET", "/v1/vendor/open-market", nil, env.vendorC.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), bookingID)

	w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/accept", bookingID),
		bookingHttp.AcceptBookingRequest{DriverID: env.vendorC.driverID, VehicleID: env.vendorC.vehicleID},
		env.vendorC.token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not_eligible", decode[response.ErrorResponse](t, w).Kind)

	w = env.executeRequest("POST", fmt.Sprintf("/v1/vendor/bookings/%s/accept", bookingID),
		bookingHttp.AcceptBookingRequest{DriverID: env.vendorB.driverID, VehicleID: env.vendorB.vehicleID},
		env.vendorB.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[bookingHttp.BookingResponse](t, w).InOpenMarket)
}

func TestRejectAndManualOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	companyToken := env.token(t, env.companyID, auth.RoleCompany)

	w := env.executeRequest("POST", "/v1/company/bookings", createBody(), companyToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decode[bookingHttp.BookingResponse](t, w).ID

	rejectPath := fmt.Sprintf("/v1/vendor/bookings/%s/reject", bookingID)

	w = env.executeRequest("POST", rejectPath, gin.H{}, env.vendorA.token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "reason is required")

	w = env.executeRequest("POST", rejectPath, bookingHttp.RejectBookingRequest{Reason: "no cars"}, env.vendorA.token)
	require.Equal(t, http.StatusOK, w.Code)
	b := decode[bookingHttp.BookingResponse](t, w)
	assert.Equal(t, "cancelled", b.Status)
	assert.Equal(t, "no cars", *b.RejectionReason)

	w = env.executeRequest("POST", rejectPath, bookingHttp.RejectBookingRequest{Reason: "no cars"}, env.vendorA.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	manual := bookingHttp.ManualBookingRequest{
		ItineraryBody: createBody().ItineraryBody,
		DriverID:      env.vendorC.driverID,
		VehicleID:     env.vendorC.vehicleID,
	}
	w = env.executeRequest("POST", "/v1/vendor/bookings/manual", manual, env.vendorC.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b = decode[bookingHttp.BookingResponse](t, w)
	assert.Equal(t, "upcoming", b.Status)
	assert.Nil(t, b.CompanyID)

	w = env.executeRequest("POST", "/v1/vendor/bookings/manual", manual, env.vendorC.token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "resource_unavailable", decode[response.ErrorResponse](t, w).Kind)

	w = env.executeRequest("GET", "/v1/vendor/bookings", nil, env.vendorC.token)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[response.PageResponse[bookingHttp.BookingResponse]](t, w)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasMore)
}

func TestRequestValidationAndAuth(t *testing.T) {
	env := newTestEnv(t)
	companyToken := env.token(t, env.companyID, auth.RoleCompany)

	w := env.executeRequest("GET", "/v1/company/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.executeRequest("GET", "/v1/company/bookings", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.executeRequest("GET", "/v1/vendor/open-market", nil, companyToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.executeRequest("POST", "/v1/company/bookings", createBody(), env.vendorA.token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := createBody()
	body.CarCategory = "van"
	w = env.executeRequest("POST", "/v1/company/bookings", body, companyToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.executeRequest("GET", "/v1/bookings/not-a-uuid", nil, companyToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.executeRequest("GET", "/v1/company/bookings?page_size=1000", nil, companyToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.executeRequest("GET", "/v1/company/vendors", nil, companyToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alpha Cabs")

	w = env.executeRequest("GET", "/v1/vendor/partners", nil, env.vendorB.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), env.vendorA.id)

	w = env.executeRequest("GET", "/v1/vendor/drivers", nil, env.vendorA.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), env.vendorA.driverID)
}

func TestRateLimiter(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)
	limiter := api.NewRateLimiter(1, 1)

	r := gin.New()
	r.GET("/ping", auth.AuthRequired(jwtManager), limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(accountID string) int {
		token, err := jwtManager.GenerateAccessToken(accountID, auth.RoleVendor)
		require.NoError(t, err)

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusOK, call("b"), "limits are per account")
}

func TestRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Minute)

	r := gin.New()
	r.GET("/vendor-only", auth.AuthRequired(jwtManager), api.RequireRole(auth.RoleVendor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(role auth.Role) int {
		token, err := jwtManager.GenerateAccessToken("acct", role)
		require.NoError(t, err)

		req, _ := http.NewRequest("GET", "/vendor-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(auth.RoleVendor))
	assert.Equal(t, http.StatusForbidden, call(auth.RoleCompany))
}
