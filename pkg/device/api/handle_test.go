package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
)

var laptop = device.ClientInfo{
	Fingerprint: device.Fingerprint{Name: "Firefox", Class: device.DeviceClassBrowser, OS: device.OSUnknown},
	IP:          "203.0.113.7",
}

func setup(t *testing.T) (*device.InMemDeviceRepository, http.Handler) {
	repo := device.NewInMemDeviceRepository()
	h := NewDeviceHandler(device.NewDeviceService(repo))
	r := chi.NewRouter()
	r.Mount("/devices", Handler(h))
	return repo, r
}

func as(user *client.AuthUser, req *http.Request) *http.Request {
	return req.WithContext(client.WithAuthUser(req.Context(), user))
}

func TestListDevices(t *testing.T) {
	repo, h := setup(t)
	userID := uuid.New()

	current, err := repo.CreateDevice(context.Background(), userID, laptop)
	require.NoError(t, err)
	other, err := repo.CreateDevice(context.Background(), userID, laptop)
	require.NoError(t, err)
	_, err = repo.CreateDevice(context.Background(), uuid.New(), laptop)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	user := &client.AuthUser{UserID: userID, DeviceID: current.ID, Role: client.RoleMember}
	h.ServeHTTP(rr, as(user, httptest.NewRequest(http.MethodGet, "/devices", nil)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListDevicesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 2)

	flags := map[uuid.UUID]bool{}
	for _, d := range resp.Devices {
		flags[d.ID] = d.Current
	}
	assert.True(t, flags[current.ID])
	assert.False(t, flags[other.ID])
}

func TestListDevicesRequiresUser(t *testing.T) {
	_, h := setup(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/devices", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRevokeDevice(t *testing.T) {
	repo, h := setup(t)
	owner := &client.AuthUser{UserID: uuid.New(), DeviceID: uuid.New(), Role: client.RoleMember}
	stranger := &client.AuthUser{UserID: uuid.New(), DeviceID: uuid.New(), Role: client.RoleMember}

	d, err := repo.CreateDevice(context.Background(), owner.UserID, laptop)
	require.NoError(t, err)

	t.Run("not owned", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, as(stranger, httptest.NewRequest(http.MethodDelete, "/devices/"+d.ID.String(), nil)))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, as(owner, httptest.NewRequest(http.MethodDelete, "/devices/not-a-uuid", nil)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("owner", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, as(owner, httptest.NewRequest(http.MethodDelete, "/devices/"+d.ID.String(), nil)))
		require.Equal(t, http.StatusOK, rr.Code)

		stored, _, err := repo.GetDeviceWithActivities(context.Background(), d.ID)
		require.NoError(t, err)
		assert.True(t, stored.Revoked())
	})
}
