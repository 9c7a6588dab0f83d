package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/hexforge/hwidgate/internal/config"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/security"
	"github.com/hexforge/hwidgate/internal/verify"
)

var testJWT = config.JWTConfig{Secret: "test-secret", ExpiryHours: 1}

func setupAdminTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	errMigrate := db.AutoMigrate(
		&models.Verification{},
		&models.RoleRule{},
		&models.BotAdmin{},
		&models.AdminAccount{},
		&models.Setting{},
	)
	if errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	hash, errHash := security.HashPassword("hunter2")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	account := models.AdminAccount{Username: "root", Password: hash, Active: true, IsSuperAdmin: true}
	if errCreate := db.Create(&account).Error; errCreate != nil {
		t.Fatalf("seed account: %v", errCreate)
	}

	svc := verify.NewService(db, "owner", "1d", nil)
	r := gin.New()
	RegisterAdminRoutes(r, db, svc, testJWT)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, errMarshal := json.Marshal(payload)
		if errMarshal != nil {
			t.Fatalf("marshal payload: %v", errMarshal)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "hunter2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode login: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func TestAdmin_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	r, _ := setupAdminTest(t)
	rec := doJSON(t, r, http.MethodPost, "/v0/admin/login", "", gin.H{"username": "root", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdmin_RoutesRequireToken(t *testing.T) {
	t.Parallel()

	r, _ := setupAdminTest(t)
	rec := doJSON(t, r, http.MethodGet, "/v0/admin/verifications", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, "/v0/admin/verifications", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestAdmin_DisabledAccountRejected(t *testing.T) {
	t.Parallel()

	r, db := setupAdminTest(t)
	token := login(t, r)
	if errUpdate := db.Model(&models.AdminAccount{}).Where("username = ?", "root").Update("active", false).Error; errUpdate != nil {
		t.Fatalf("disable account: %v", errUpdate)
	}
	rec := doJSON(t, r, http.MethodGet, "/v0/admin/verifications", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdmin_VerificationLifecycle(t *testing.T) {
	t.Parallel()

	r, db := setupAdminTest(t)
	token := login(t, r)

	if errCreate := db.Create(&models.Verification{HWID: "hw-1", Code: "123456"}).Error; errCreate != nil {
		t.Fatalf("seed verification: %v", errCreate)
	}

	rec := doJSON(t, r, http.MethodGet, "/v0/admin/verifications/lookup?target=hw-1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/v0/admin/verifications/ban", token, gin.H{"target": "123456"})
	if rec.Code != http.StatusOK {
		t.Fatalf("ban status = %d: %s", rec.Code, rec.Body.String())
	}
	var banned models.Verification
	if errFind := db.Where("hwid = ?", "hw-1").First(&banned).Error; errFind != nil {
		t.Fatalf("reload record: %v", errFind)
	}
	if !banned.IsBanned {
		t.Fatal("record not banned after ban call")
	}

	rec = doJSON(t, r, http.MethodPost, "/v0/admin/verifications/set-expiry", token, gin.H{"target": "hw-1", "duration": "2d"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set-expiry status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/v0/admin/verifications/set-expiry", token, gin.H{"target": "hw-1", "duration": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid duration status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/v0/admin/verifications/reset", token, gin.H{"target": "hw-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	var count int64
	if errCount := db.Model(&models.Verification{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("count after reset = %d, want 0", count)
	}

	rec = doJSON(t, r, http.MethodPost, "/v0/admin/verifications/ban", token, gin.H{"target": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing target status = %d, want 404", rec.Code)
	}
}

func TestAdmin_VerificationSearch(t *testing.T) {
	t.Parallel()

	r, db := setupAdminTest(t)
	token := login(t, r)

	rows := []models.Verification{
		{HWID: "alpha-machine", Code: "111111"},
		{HWID: "beta-machine", Code: "222222", DiscordID: "909"},
	}
	if errCreate := db.Create(&rows).Error; errCreate != nil {
		t.Fatalf("seed rows: %v", errCreate)
	}

	var resp struct {
		Items []struct {
			HWID string `json:"hwid"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	rec := doJSON(t, r, http.MethodGet, "/v0/admin/verifications?q=ALPHA", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d: %s", rec.Code, rec.Body.String())
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode search: %v", errDecode)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].HWID != "alpha-machine" {
		t.Fatalf("search result = %+v", resp)
	}

	rec = doJSON(t, r, http.MethodGet, "/v0/admin/verifications?q=909", token, nil)
	resp.Items = nil
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode discord search: %v", errDecode)
	}
	if resp.Total != 1 || resp.Items[0].HWID != "beta-machine" {
		t.Fatalf("discord search result = %+v", resp)
	}
}

func TestAdmin_RoleRuleCRUD(t *testing.T) {
	t.Parallel()

	r, _ := setupAdminTest(t)
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPut, "/v0/admin/rules", token, gin.H{"role_id": "100", "role_name": "VIP", "duration": "7d"})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPut, "/v0/admin/rules", token, gin.H{"role_id": "100", "role_name": "VIP", "duration": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid duration status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/v0/admin/rules", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Items []struct {
			RoleID   string `json:"role_id"`
			Duration string `json:"duration"`
			Kind     string `json:"kind"`
		} `json:"items"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &listResp); errDecode != nil {
		t.Fatalf("decode list: %v", errDecode)
	}
	if len(listResp.Items) != 1 || listResp.Items[0].Duration != "7d" {
		t.Fatalf("list items = %+v", listResp.Items)
	}
	if listResp.Items[0].Kind != models.RuleKindBase {
		t.Fatalf("kind = %q, want base", listResp.Items[0].Kind)
	}

	rec = doJSON(t, r, http.MethodDelete, "/v0/admin/rules/100", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/v0/admin/rules/100", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAdmin_BotAdminAllowList(t *testing.T) {
	t.Parallel()

	r, _ := setupAdminTest(t)
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPost, "/v0/admin/bot-admins", token, gin.H{"discord_id": "555"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, http.MethodGet, "/v0/admin/bot-admins", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/v0/admin/bot-admins/555", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/v0/admin/bot-admins/555", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want 404", rec.Code)
	}
}

func TestAdmin_SettingsValidation(t *testing.T) {
	r, _ := setupAdminTest(t)
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPut, "/v0/admin/settings", token, gin.H{"key": "NOT_A_KEY", "value": "1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown key status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPut, "/v0/admin/settings", token, gin.H{"key": "DEFAULT_DURATION", "value": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid duration status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPut, "/v0/admin/settings", token, gin.H{"key": "DEFAULT_DURATION", "value": "3d"})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/v0/admin/settings", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", rec.Code)
	}
	var resp struct {
		Settings map[string]json.RawMessage `json:"settings"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode settings: %v", errDecode)
	}
	if string(resp.Settings["DEFAULT_DURATION"]) != `"3d"` {
		t.Fatalf("stored value = %s", resp.Settings["DEFAULT_DURATION"])
	}
}
