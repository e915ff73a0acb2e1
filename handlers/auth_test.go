package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiclooper/database"
	"logiclooper/models"
	"logiclooper/services"
)

type fakeVerifier struct {
	identity *services.VerifiedIdentity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _ map[string]string) (*services.VerifiedIdentity, error) {
	return f.identity, f.err
}

func TestGuestLoginCreatesAccount(t *testing.T) {
	app := newTestApp(t)

	resp, body := postJSON(t, app, "/api/auth/guest", "", map[string]any{})
	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, body["success"].(bool))
	assert.NotEmpty(t, body["token"])

	userInfo := body["user"].(map[string]any)
	assert.True(t, userInfo["is_guest"].(bool))
	assert.NotEmpty(t, userInfo["id"])
	assert.Contains(t, userInfo["name"], "Guest_")

	var count int64
	database.GetDB().Model(&models.User{}).Where("is_guest = ?", true).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGuestLoginKeepsProvidedName(t *testing.T) {
	app := newTestApp(t)

	_, body := postJSON(t, app, "/api/auth/guest", "", map[string]any{"name": "Puzzler"})
	userInfo := body["user"].(map[string]any)
	assert.Equal(t, "Puzzler", userInfo["name"])
}

func TestPhoneLoginCreatesThenReuses(t *testing.T) {
	app := newTestApp(t)
	app.Post("/api/auth/phone", PhoneLogin)

	SetIdentityVerifier(&fakeVerifier{identity: &services.VerifiedIdentity{
		PhoneNumber: "+15551234567",
		Name:        "Grace",
	}})
	t.Cleanup(func() { SetIdentityVerifier(nil) })

	resp, body := postJSON(t, app, "/api/auth/phone", "", map[string]any{"accessToken": "provider-token"})
	require.Equal(t, 200, resp.StatusCode)
	first := body["user"].(map[string]any)
	assert.False(t, first["is_guest"].(bool))
	assert.Equal(t, "phone", first["auth_type"])
	assert.Equal(t, "Grace", first["name"])

	// Same phone number signs into the same account.
	resp, body = postJSON(t, app, "/api/auth/phone", "", map[string]any{"accessToken": "provider-token"})
	require.Equal(t, 200, resp.StatusCode)
	second := body["user"].(map[string]any)
	assert.Equal(t, first["id"], second["id"])

	var count int64
	database.GetDB().Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPhoneLoginRejectsFailedVerification(t *testing.T) {
	app := newTestApp(t)
	app.Post("/api/auth/phone", PhoneLogin)

	SetIdentityVerifier(&fakeVerifier{err: errors.New("provider said no")})
	t.Cleanup(func() { SetIdentityVerifier(nil) })

	resp, body := postJSON(t, app, "/api/auth/phone", "", map[string]any{"accessToken": "bad"})
	require.Equal(t, 401, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestPhoneLoginRequiresAccessToken(t *testing.T) {
	app := newTestApp(t)
	app.Post("/api/auth/phone", PhoneLogin)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/phone", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
