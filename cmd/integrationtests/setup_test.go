package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/broadcast"
	model "auction-house/internal/models"
	notification "auction-house/internal/notificationService"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	user "auction-house/internal/userService"
	userhelpers "auction-house/services/user/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// TestEnv bundles the wired application with the backdoors the tests need.
type TestEnv struct {
	Router *gin.Engine
	Store  *repository.MemoryStore
	Hub    *broadcast.Hub
	JWTer  *auth.JWTer
}

// SetupTestEnv wires the full application against the in-memory store.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	hub := broadcast.NewHub()
	jwter := &auth.JWTer{
		Secret: []byte("integration-test-secret"),
		Issuer: "auction-house-test",
		TTL:    time.Hour,
	}

	userSvc := user.NewUserService(store, jwter)
	auctionSvc := auction.NewAuctionService(store, hub)
	biddingSvc := bidding.NewBiddingService(store, hub)
	notificationSvc := notification.NewNotificationService(store, hub)

	router := server.SetupRouter(jwter, userSvc, auctionSvc, biddingSvc, notificationSvc, hub)
	return &TestEnv{Router: router, Store: store, Hub: hub, JWTer: jwter}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
// An empty token leaves the request unauthenticated.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ParseResponse unmarshals the standard response envelope.
func ParseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	return resp
}

// DataObject returns the envelope's data field as an object.
func DataObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	data, ok := ParseResponse(t, w)["data"].(map[string]any)
	require.True(t, ok, "response data is not an object: %s", w.Body.String())
	return data
}

// SignupUser registers a user through the API and returns its token and ID.
func SignupUser(t *testing.T, env *TestEnv, username, email string) (string, string) {
	t.Helper()

	w := ExecuteRequest(t, env.Router, http.MethodPost, "/auth/signup", "", userhelpers.SignupRequest{
		Username: username,
		Email:    email,
		Password: "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	token := DataObject(t, w)["token"].(string)
	claims, err := env.JWTer.Verify(token)
	require.NoError(t, err)
	return token, claims.UserID
}

// SignupAdmin registers a user and promotes it to admin through the store.
func SignupAdmin(t *testing.T, env *TestEnv, username, email string) (string, string) {
	t.Helper()

	token, userID := SignupUser(t, env, username, email)
	u, err := env.Store.GetUser(userID)
	require.NoError(t, err)
	u.Role = model.RoleAdmin
	require.NoError(t, env.Store.UpdateUser(u))
	return token, userID
}

// CreateAuction creates an auction through the API and returns its ID.
func CreateAuction(t *testing.T, env *TestEnv, token, title string, startPrice float64) string {
	t.Helper()

	w := ExecuteRequest(t, env.Router, http.MethodPost, "/auctions", token, map[string]any{
		"title":       title,
		"description": "integration test listing",
		"start_price": startPrice,
		"end_time":    time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"category":    "art",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return DataObject(t, w)["auction_id"].(string)
}
