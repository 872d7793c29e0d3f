package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	"github.com/ukhsc/ukhsc-system-backend/pkg/order"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

func setup(t *testing.T) (http.Handler, *client.AuthUser, uuid.UUID) {
	members := member.NewMemberService(member.NewInMemMemberRepository())
	m, err := members.CreateMember(context.Background(), member.CreateMemberParams{SchoolID: uuid.New(), DisplayName: "Student"})
	require.NoError(t, err)

	h := NewOrderHandler(order.NewOrderService(order.NewInMemOrderRepository(), members), validator.New())
	r := chi.NewRouter()
	r.Mount("/orders", Handler(h))
	r.Get("/schools/{id}/orders", h.ListSchoolOrders)
	return r, &client.AuthUser{UserID: m.ID, DeviceID: uuid.New(), Role: client.RoleMember}, m.SchoolID
}

func do(h http.Handler, user *client.AuthUser, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = req.WithContext(client.WithAuthUser(req.Context(), user))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestOrderFlow(t *testing.T) {
	h, user, schoolID := setup(t)
	admin := &client.AuthUser{UserID: uuid.New(), DeviceID: uuid.New(), Role: client.RoleAdmin}

	rr := do(h, user, http.MethodPost, "/orders", `{"plan":"annual"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created OrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "500.00", created.Amount)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, schoolID.String(), created.SchoolID)

	rr = do(h, user, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []OrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rr = do(h, user, http.MethodPatch, "/orders/"+created.ID, `{"status":"paid"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(h, admin, http.MethodPatch, "/orders/"+created.ID, `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, user, http.MethodPatch, "/orders/"+created.ID, `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, admin, http.MethodGet, "/schools/"+schoolID.String()+"/orders", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var bySchool []OrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bySchool))
	require.Len(t, bySchool, 1)
	assert.Equal(t, "paid", bySchool[0].Status)
}

func TestOrderValidation(t *testing.T) {
	h, user, _ := setup(t)

	rr := do(h, user, http.MethodPost, "/orders", `{"plan":"lifetime"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, user, http.MethodPatch, "/orders/"+uuid.NewString(), `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h, user, http.MethodPatch, "/orders/"+uuid.NewString(), `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, nil, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
