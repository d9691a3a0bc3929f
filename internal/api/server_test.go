package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eshop/internal/config"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services"
	"eshop/internal/services/users"
	"eshop/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	svc    *services.Container
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		APIHost:        "127.0.0.1",
		APIPort:        "0",
		AllowedOrigins: []string{"*"},
		JWTSecret:      "test-secret",
		JWTExpiration:  time.Hour,
		DataDir:        t.TempDir(),
		Env:            "test",
	}
	log := logger.NewNop()
	db := testutil.NewDB(t)
	svc := services.New(cfg, log, db, &events.Recorder{})

	_, err := svc.Users.Create(context.Background(), users.CreateInput{
		Email:       "admin@2pnet.sk",
		Password:    "admin-heslo",
		CompanyName: "Admin",
		Role:        models.RoleAdmin,
	})
	require.NoError(t, err)

	return &testServer{router: New(cfg, log, svc).GetRouter(), svc: svc, db: db}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) adminToken(t *testing.T) string {
	rec := s.do(t, http.MethodPost, "/api/v1/auth/admin/login", `{"email":"admin","password":"admin-heslo"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["data"].(map[string]interface{})["token"].(string)
}

func (s *testServer) customerToken(t *testing.T) string {
	rec := s.do(t, http.MethodPost, "/api/v1/auth/customer/register",
		`{"email":"nakup@firma.sk","password":"heslo123","companyName":"Firma","ico":"12345678","dic":"2020202020"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["data"].(map[string]interface{})["token"].(string)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products?page=0&limit=500", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := decode(t, rec)["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pagination["page"])
	assert.EqualValues(t, 20, pagination["limit"])
	assert.EqualValues(t, 0, pagination["total"])

	rec = s.do(t, http.MethodGet, "/api/v1/site/menu", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]interface{})["mobileMenuEnabled"])

	rec = s.do(t, http.MethodGet, "/api/v1/chat/settings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Contains(t, data, "online")
	assert.NotContains(t, data, "telegramBotToken")
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/orders", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	customer := s.customerToken(t)
	rec = s.do(t, http.MethodGet, "/api/v1/orders", "", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.adminToken(t)
	rec = s.do(t, http.MethodGet, "/api/v1/account/orders", "", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/admin/login", `{"email":"admin","password":"zle"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/admin/list", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/admin/list", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token revoked", decode(t, rec)["error"])
}

func TestCatalogCheckoutAndInvoice(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/api/v1/categories", `{"name":"Servis"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	categories := decode(t, rec)["data"].([]interface{})
	require.Len(t, categories, 1)
	categoryID := categories[0].(map[string]interface{})["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/products", `{"slug":"servis-ups","name":"Servis UPS"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/products",
		`{"slug":"servis-ups","name":"Servis UPS","price":"120.50","stock":3,"categoryId":"`+categoryID+`"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/products/servis-ups", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Servis UPS", decode(t, rec)["data"].(map[string]interface{})["name"])

	rec = s.do(t, http.MethodGet, "/api/v1/products?inStock=true&minPrice=100&category=Servis", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	customer := s.customerToken(t)
	rec = s.do(t, http.MethodPost, "/api/v1/orders",
		`{"customerName":"Firma","email":"nakup@firma.sk","items":[{"name":"Servis UPS","quantity":2,"price":"120.50"}]}`, customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode(t, rec)["data"].(map[string]interface{})
	externalID := order["external_id"].(string)
	assert.Equal(t, "241", order["total"])

	rec = s.do(t, http.MethodPost, "/api/v1/orders", `{"customerName":"Firma","email":"a@b.sk","items":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/account/orders", "", customer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+externalID+"/status", `{"status":"EXPEDOVANA","note":"DPD"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "shipped", decode(t, rec)["data"].(map[string]interface{})["status"])

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+externalID+"/status", `{"status":"lost"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/orders/unknown", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/orders/stats", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["totalOrders"])
	assert.EqualValues(t, 1, stats["byStatus"].(map[string]interface{})["shipped"])

	rec = s.do(t, http.MethodGet, "/api/v1/orders?search="+strings.ToLower(externalID), "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/orders/export?dateFrom=2000-01-01", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "objednavky-")

	rec = s.do(t, http.MethodGet, "/api/v1/orders/export?dateFrom=yesterday", "", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/invoices", `{"orderId":"`+externalID+`"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	number := decode(t, rec)["data"].(map[string]interface{})["invoice_number"].(string)
	assert.Regexp(t, `^FA-\d{4}-00001$`, number)

	rec = s.do(t, http.MethodGet, "/api/v1/invoices/"+number+"/document", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Equal(t, `attachment; filename="`+number+`.isdoc"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "urn:cz:isdoc:invoice:1")

	rec = s.do(t, http.MethodGet, "/api/v1/invoices/FA-1999-00001/document", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/flexibee/invoices", `{"invoiceNumber":"`+number+`"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/api/v1/chat/admin/settings", `{"alwaysOnline":true}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/chat/messages", `{"message":"   "}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/chat/messages", `{"name":"Eva","message":"Dobrý deň"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := decode(t, rec)["data"].(map[string]interface{})["sessionKey"].(string)
	require.NotEmpty(t, key)

	rec = s.do(t, http.MethodPost, "/api/v1/chat/admin/reply", `{"sessionKey":"`+key+`","message":"Dobrý deň, ako pomôžeme?"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/chat/admin/reply", `{"sessionKey":"missing","message":"Haló"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/chat/admin/reply", `{"sessionKey":"`+key+`"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/chat/sessions/"+key+"/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)

	rec = s.do(t, http.MethodPost, "/api/v1/chat/send-telegram", `{"message":"Ahoj"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/chat/admin/sessions/"+key+"/close", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/chat/admin/sessions?status=closed", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/chat/telegram/poll", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["data"].(map[string]interface{})["processed"])
}

func TestSiteSettingsRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/api/v1/site/visual", `{"title":"Nový"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/site/visual", `{"title":"Nový"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/site/visual", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	visual := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Nový", visual["title"])
	assert.Equal(t, "/produkty", visual["primaryCtaLink"])

	rec = s.do(t, http.MethodPost, "/api/v1/site-settings", `{"hero":{"backgroundImage":"bg.jpg"}}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	hero := decode(t, rec)["data"].(map[string]interface{})["hero"].(map[string]interface{})
	assert.Equal(t, "bg.jpg", hero["backgroundImage"])

	rec = s.do(t, http.MethodPost, "/api/v1/admin-menu", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/admin-menu", `{"menu":[{"id":"x","label":"X"}]}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin-menu", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestUserTwoFactorRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users", `{"email":"novy@2pnet.sk","password":"heslo123","companyName":"Novy"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["data"].(map[string]interface{})["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/users", `{"email":"novy@2pnet.sk","password":"heslo123","companyName":"Novy"}`, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/users/"+id+"/2fa", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	setup := decode(t, rec)["data"].(map[string]interface{})
	assert.Contains(t, setup["otpauthUrl"], "otpauth://totp/")

	body, _ := json.Marshal(map[string]string{"secret": setup["secret"].(string), "code": "000000x"})
	rec = s.do(t, http.MethodPost, "/api/v1/users/"+id+"/2fa", string(body), admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/users/"+id, "", admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/users/"+id, "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://www.2pnet.cz")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOrderListDateFilter(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	placedAt := map[string]time.Time{
		"Vcera":  time.Date(2024, 5, 19, 12, 0, 0, 0, time.UTC),
		"Vecer":  time.Date(2024, 5, 20, 23, 0, 0, 0, time.UTC),
		"Zajtra": time.Date(2024, 5, 21, 0, 30, 0, 0, time.UTC),
	}
	for name, at := range placedAt {
		rec := s.do(t, http.MethodPost, "/api/v1/orders",
			`{"customerName":"`+name+`","email":"nakup@firma.sk","items":[{"name":"Servis","quantity":1,"price":"10"}]}`, "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		id := decode(t, rec)["data"].(map[string]interface{})["id"].(string)
		require.NoError(t, s.db.Model(&models.Order{}).Where("id = ?", id).Update("created_at", at).Error)
	}

	names := func(rec *httptest.ResponseRecorder) []string {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result []string
		for _, order := range decode(t, rec)["data"].([]interface{}) {
			result = append(result, order.(map[string]interface{})["customer_name"].(string))
		}
		return result
	}

	rec := s.do(t, http.MethodGet, "/api/v1/orders?dateFrom=2024-05-20&dateTo=2024-05-20", "", admin)
	assert.Equal(t, []string{"Vecer"}, names(rec))

	rec = s.do(t, http.MethodGet, "/api/v1/orders?dateTo=2024-05-20", "", admin)
	assert.Equal(t, []string{"Vecer", "Vcera"}, names(rec))

	rec = s.do(t, http.MethodGet, "/api/v1/orders?dateFrom=2024-05-21T00:00:00Z", "", admin)
	assert.Equal(t, []string{"Zajtra"}, names(rec))

	rec = s.do(t, http.MethodGet, "/api/v1/orders?dateTo=20.5.2024", "", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminTwoFactorLogin(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	admin, err := s.svc.Users.GetByEmail(ctx, "admin@2pnet.sk")
	require.NoError(t, err)
	setup, err := s.svc.Users.GenerateTwoFactor(ctx, admin.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.svc.Users.EnableTwoFactor(ctx, admin.ID, setup.Secret, code))

	rec := s.do(t, http.MethodPost, "/api/v1/auth/admin/login", `{"email":"admin","password":"admin-heslo"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pending := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, true, pending["requiresTwoFactor"])
	assert.Nil(t, pending["token"])
	challenge := pending["challengeToken"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/users", "", challenge)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/admin/verify-2fa", `{"challengeToken":"`+challenge+`","code":"000000x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/admin/verify-2fa", `{"challengeToken":"`+challenge+`","code":"`+code+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode(t, rec)["data"].(map[string]interface{})["token"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/users", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/admin/verify-2fa", `{"challengeToken":"`+challenge+`","code":"`+code+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
